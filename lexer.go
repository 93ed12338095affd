// Package dicemind implements a dice-notation engine: a lexer, parser,
// augmentation resolver, and evaluator for tabletop expressions such as
// "2d20kh + 3 + 2 > 13".
//
// The pipeline runs in four stages: source text is tokenized (lexer.go),
// parsed into an expression tree (parser.go), each dice group's raw
// augmentation chain is resolved into typed operation records (resolve.go),
// and the tree is collapsed to a number by the evaluator (interpreter.go)
// using an injected random source (roller.go).
package dicemind

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Literals
	INTEGER

	// Dice
	DIE     // "d": dice operator, or the drop letter inside an augmentation chain
	PERCENT // "%": percentile sides marker

	// Augmentation letters
	KEEP   // "k"
	HIGH   // "h"
	LOW    // "l"
	TALLY  // "n"
	REROLL // "r"
	REPEAT // "x": reroll repeat-limit marker

	// Arithmetic operators
	PLUS
	MINUS
	MULT
	DIV

	// Comparison operators
	GREATER
	LESS
	EQUALS
	GREATER_EQ // ">="
	LESS_EQ    // "<="

	// Punctuation
	LROUND
	RROUND
)

func (tt TokenType) String() string {
	switch tt {
	case EOF:
		return "end of input"
	case INTEGER:
		return "number"
	case DIE:
		return "'d'"
	case PERCENT:
		return "'%'"
	case KEEP:
		return "'k'"
	case HIGH:
		return "'h'"
	case LOW:
		return "'l'"
	case TALLY:
		return "'n'"
	case REROLL:
		return "'r'"
	case REPEAT:
		return "'x'"
	case PLUS:
		return "'+'"
	case MINUS:
		return "'-'"
	case MULT:
		return "'*'"
	case DIV:
		return "'/'"
	case GREATER:
		return "'>'"
	case LESS:
		return "'<'"
	case EQUALS:
		return "'='"
	case GREATER_EQ:
		return "'>='"
	case LESS_EQ:
		return "'<='"
	case LROUND:
		return "'('"
	case RROUND:
		return "')'"
	default:
		return "unknown token"
	}
}

// Token is a lexical token with an optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal int64  // parsed value for INTEGER tokens
	Pos     int    // 0-based byte offset of the first character
}

// Lexer scans a dice expression string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// LexError reports an unrecognized character and its byte offset.
type LexError struct {
	Pos  int
	Char byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEX ERROR at %d: unrecognized character %q", e.Pos, e.Char)
}

// LiteralError reports an integer literal that does not fit in int64.
type LiteralError struct {
	Pos    int
	Lexeme string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("LEX ERROR at %d: integer literal %s out of range", e.Pos, e.Lexeme)
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	return ch
}

func (l *Lexer) match(want byte) bool {
	if ch, ok := l.peek(); ok && ch == want {
		l.cur++
		return true
	}
	return false
}

func (l *Lexer) addToken(tt TokenType, lit int64) {
	l.tokens = append(l.tokens, Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Pos:     l.start,
	})
	l.start = l.cur
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// scanNumber consumes a run of digits and records an INTEGER token. Numeric
// literals are unsigned; sign is handled by the grammar, not the lexer.
func (l *Lexer) scanNumber() error {
	for {
		ch, ok := l.peek()
		if !ok || !isDigit(ch) {
			break
		}
		l.advance()
	}
	n, err := strconv.ParseInt(l.src[l.start:l.cur], 10, 64)
	if err != nil {
		return &LiteralError{Pos: l.start, Lexeme: l.src[l.start:l.cur]}
	}
	l.addToken(INTEGER, n)
	return nil
}

// Scan tokenizes the whole source left to right, longest match first.
// It returns the token slice terminated by an EOF token, or a *LexError
// carrying the offset of the first unrecognized character.
func (l *Lexer) Scan() ([]Token, error) {
	for !l.isAtEnd() {
		ch := l.advance()
		switch ch {
		case ' ', '\t', '\r', '\n':
			l.start = l.cur
		case '+':
			l.addToken(PLUS, 0)
		case '-':
			l.addToken(MINUS, 0)
		case '*':
			l.addToken(MULT, 0)
		case '/':
			l.addToken(DIV, 0)
		case '=':
			l.addToken(EQUALS, 0)
		case '>':
			if l.match('=') {
				l.addToken(GREATER_EQ, 0)
			} else {
				l.addToken(GREATER, 0)
			}
		case '<':
			if l.match('=') {
				l.addToken(LESS_EQ, 0)
			} else {
				l.addToken(LESS, 0)
			}
		case '(':
			l.addToken(LROUND, 0)
		case ')':
			l.addToken(RROUND, 0)
		case '%':
			l.addToken(PERCENT, 0)
		case 'd':
			l.addToken(DIE, 0)
		case 'k':
			l.addToken(KEEP, 0)
		case 'h':
			l.addToken(HIGH, 0)
		case 'l':
			l.addToken(LOW, 0)
		case 'n':
			l.addToken(TALLY, 0)
		case 'r':
			l.addToken(REROLL, 0)
		case 'x':
			l.addToken(REPEAT, 0)
		default:
			if isDigit(ch) {
				l.cur--
				if err := l.scanNumber(); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &LexError{Pos: l.start, Char: ch}
		}
	}
	l.start = l.cur
	l.addToken(EOF, 0)
	return l.tokens, nil
}
