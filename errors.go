// errors.go: user-facing error wrapping and caret-snippet rendering.
//
// WrapErrorWithSource turns the pipeline's typed errors (*LexError,
// *LiteralError, *ParseError, *ResolveError, *EvalError) into readable
// snippets with a
// caret pointing at the offending byte offset:
//
//	PARSE ERROR: expected number of sides or '%', found '+'
//
//	  2d + 3
//	     ^
//
// Any other error is returned unchanged. Offsets out of range are clamped
// so the caret can always be rendered.
package dicemind

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of the source, if err is one of the pipeline's typed errors.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", snippet(src, "LEX ERROR", e.Pos, fmt.Sprintf("unrecognized character %q", e.Char)))
	case *LiteralError:
		return fmt.Errorf("%s", snippet(src, "LEX ERROR", e.Pos, fmt.Sprintf("integer literal %s out of range", e.Lexeme)))
	case *ParseError:
		return fmt.Errorf("%s", snippet(src, "PARSE ERROR", e.Pos, fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)))
	case *ResolveError:
		return fmt.Errorf("%s", snippet(src, "RESOLVE ERROR", e.Pos, e.Reason))
	case *EvalError:
		return fmt.Errorf("%s", snippet(src, "EVAL ERROR", e.Pos, e.Err.Error()))
	default:
		return err
	}
}

// snippet renders the line containing pos with a caret under its column.
func snippet(src, header string, pos int, msg string) string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(src) {
		pos = len(src)
	}

	lineStart := strings.LastIndexByte(src[:pos], '\n') + 1
	lineEnd := strings.IndexByte(src[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += lineStart
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", header, msg)
	fmt.Fprintf(&b, "  %s\n", src[lineStart:lineEnd])
	fmt.Fprintf(&b, "  %s^\n", strings.Repeat(" ", pos-lineStart))
	return b.String()
}
