// simplify.go: static simplification of expression trees.
//
// Simplification is an optional pass over a parsed tree; it never runs as
// part of Evaluate. It folds subtrees whose value cannot depend on any roll,
// so "2 + 4" becomes "6", "0d8 + d6" becomes "0 + d6", and "3d1" becomes
// "3". Dice groups carrying augmentations are left alone: a tally or filter
// changes collapse semantics even when every die can only roll a 1.
package dicemind

import "math"

// SimplifySteps selects which rewrites SimplifyWith applies.
type SimplifySteps uint32

const (
	// StepCollapseConstants folds operators whose operands are constant.
	StepCollapseConstants SimplifySteps = 1 << iota
	// StepConstantDice replaces dice groups with a constant value:
	// zero-count groups collapse to 0 and one-sided groups to their count.
	StepConstantDice

	AllSteps = StepCollapseConstants | StepConstantDice
)

// Simplify applies every rewrite step to the tree and returns the result.
// The input tree is not modified.
func Simplify(expr Expression) Expression {
	return SimplifyWith(expr, AllSteps)
}

// SimplifyWith applies the selected rewrite steps bottom-up.
func SimplifyWith(expr Expression, steps SimplifySteps) Expression {
	switch e := expr.(type) {
	case *Number:
		return e

	case *UnaryNeg:
		operand := SimplifyWith(e.Operand, steps)
		if steps&StepCollapseConstants != 0 {
			if inner, ok := operand.(*UnaryNeg); ok {
				return inner.Operand
			}
			// math.MinInt64 has no negation; leave the node for the
			// evaluator to report.
			if n, ok := operand.(*Number); ok && n.Value != math.MinInt64 {
				return &Number{Value: -n.Value}
			}
		}
		return &UnaryNeg{Operand: operand, pos: e.pos}

	case *BinaryOp:
		lhs := SimplifyWith(e.LHS, steps)
		rhs := SimplifyWith(e.RHS, steps)
		if steps&StepCollapseConstants != 0 {
			ln, lok := lhs.(*Number)
			rn, rok := rhs.(*Number)
			// Division is left unfolded when the divisor is zero so the
			// failure still surfaces as an evaluation error.
			if lok && rok && !(e.Operator == OpDivide && rn.Value == 0) {
				if folded, err := (&evaluator{opts: DefaultOptions()}).apply(e, ln.Value, rn.Value); err == nil {
					return &Number{Value: folded}
				}
			}
		}
		return &BinaryOp{Operator: e.Operator, LHS: lhs, RHS: rhs, pos: e.pos}

	case *DiceGroup:
		if steps&StepConstantDice != 0 && len(e.Raw) == 0 && len(e.Augmentations) == 0 {
			if e.Count == 0 {
				return &Number{Value: 0}
			}
			if !e.Percentile && e.Sides == 1 {
				return &Number{Value: e.Count}
			}
		}
		return e
	}
	return expr
}
