// syntax.go: the expression tree produced by the parser.
//
// Expressions form a tagged variant: Number, DiceGroup, BinaryOp, UnaryNeg.
// A DiceGroup carries the raw, uninterpreted augmentation token run collected
// by the parser; resolve.go turns it into the ordered Augmentations sequence
// consumed by the evaluator.
package dicemind

// BinaryOperator identifies an arithmetic or comparison operator.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpEquals
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpEquals:
		return "="
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterEq:
		return ">="
	case OpLessEq:
		return "<="
	default:
		return "?"
	}
}

// IsComparison reports whether the operator collapses to 1/0 rather than
// performing arithmetic.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OpEquals, OpGreater, OpLess, OpGreaterEq, OpLessEq:
		return true
	}
	return false
}

// precedence returns the binding power of an operator, higher binds tighter.
// Comparisons are lowest and non-associative; parentheses are required to
// nest one comparison inside another.
func (op BinaryOperator) precedence() int {
	switch op {
	case OpMultiply, OpDivide:
		return 3
	case OpAdd, OpSubtract:
		return 2
	default:
		return 1
	}
}

// Expression is a node of the dice expression tree.
type Expression interface {
	exprNode()
}

// Number is an integer literal.
type Number struct {
	Value int64
}

// DiceGroup is one dice term: count dice of the same number of sides, plus
// the postfix augmentation chain that follows it in source order.
type DiceGroup struct {
	Count      int64
	Sides      int64
	Percentile bool // "%" sides marker; Sides is taken from Options

	// Raw is the uninterpreted augmentation token run collected by the
	// parser. Augmentations is populated by ResolveAugmentations.
	Raw           []Token
	Augmentations []Augmentation

	pos int // byte offset of the 'd', for diagnostics
}

// BinaryOp applies an arithmetic or comparison operator to two operands.
type BinaryOp struct {
	Operator BinaryOperator
	LHS, RHS Expression

	pos int // byte offset of the operator, for diagnostics
}

// UnaryNeg negates its operand.
type UnaryNeg struct {
	Operand Expression

	pos int // byte offset of the '-', for diagnostics
}

func (*Number) exprNode()    {}
func (*DiceGroup) exprNode() {}
func (*BinaryOp) exprNode()  {}
func (*UnaryNeg) exprNode()  {}

// Walk calls fn for every node of the tree in post-order (operands before
// their operator, left before right).
func Walk(expr Expression, fn func(Expression)) {
	switch e := expr.(type) {
	case *BinaryOp:
		Walk(e.LHS, fn)
		Walk(e.RHS, fn)
	case *UnaryNeg:
		Walk(e.Operand, fn)
	}
	fn(expr)
}
