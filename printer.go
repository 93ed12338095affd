// printer.go: canonical formatting of expression trees.
//
// Format renders a tree back to dice notation. The output re-parses to an
// equivalent tree: parentheses are derived from the precedence table, an
// implied keep is printed explicitly ("2d20h" formats as "2d20kh"), and a
// reroll always prints its repeat limit so the text means the same thing
// under any configured default cap.
package dicemind

import (
	"fmt"
	"strings"
)

// Format renders an expression as canonical dice notation.
func Format(expr Expression) string {
	var b strings.Builder
	writeExpr(&b, expr, 0)
	return b.String()
}

// writeExpr renders expr, parenthesizing when its top operator binds no
// tighter than the enclosing precedence.
func writeExpr(b *strings.Builder, expr Expression, enclosing int) {
	switch e := expr.(type) {
	case *Number:
		fmt.Fprintf(b, "%d", e.Value)

	case *UnaryNeg:
		b.WriteByte('-')
		if _, ok := e.Operand.(*BinaryOp); ok {
			b.WriteByte('(')
			writeExpr(b, e.Operand, 0)
			b.WriteByte(')')
		} else {
			writeExpr(b, e.Operand, 0)
		}

	case *DiceGroup:
		writeGroup(b, e)

	case *BinaryOp:
		prec := e.Operator.precedence()
		if prec <= enclosing {
			b.WriteByte('(')
		}
		// Left-associative operators let an equal-precedence LHS stand bare;
		// comparisons are non-associative, so both operands need parentheses.
		lhsEnclosing := prec - 1
		if e.Operator.IsComparison() {
			lhsEnclosing = prec
		}
		writeExpr(b, e.LHS, lhsEnclosing)
		fmt.Fprintf(b, " %s ", e.Operator)
		writeExpr(b, e.RHS, prec)
		if prec <= enclosing {
			b.WriteByte(')')
		}
	}
}

func writeGroup(b *strings.Builder, g *DiceGroup) {
	if g.Count != 1 {
		fmt.Fprintf(b, "%d", g.Count)
	}
	b.WriteByte('d')
	if g.Percentile {
		b.WriteByte('%')
	} else {
		fmt.Fprintf(b, "%d", g.Sides)
	}

	if g.Augmentations == nil {
		// Unresolved chain: echo the raw tokens.
		for _, t := range g.Raw {
			b.WriteString(t.Lexeme)
		}
		return
	}
	for _, aug := range g.Augmentations {
		switch a := aug.(type) {
		case *Filter:
			fmt.Fprintf(b, "%s%s%d", a.Kind, a.Rel, a.N)
		case *Truncation:
			fmt.Fprintf(b, "%s%s", a.Kind, a.Affix)
			if a.Count != 1 {
				fmt.Fprintf(b, "%d", a.Count)
			}
		case *Tally:
			fmt.Fprintf(b, "n%d", a.Value)
		case *Reroll:
			fmt.Fprintf(b, "r%s%dx%d", a.Rel, a.Value, a.Cap)
		}
	}
}
