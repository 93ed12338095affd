// interpreter.go — the evaluator.
//
// Evaluation is a single-threaded post-order tree walk with no I/O. Each
// dice group is rolled through the injected Source, its resolved
// augmentation sequence is applied in source order against an arena of roll
// records, and the group collapses to a scalar (sum of live rolls, or the
// tally count when a tally is present). Arithmetic and comparison nodes then
// combine operand values; comparisons collapse to 1 or 0.
//
// Given a replayable Source, evaluation is a pure function of the expression
// and the draw sequence: draws are consumed in a fixed order (group rolls by
// ascending index, then reroll redraws in augmentation order and ascending
// roll index), so identical inputs produce identical results and traces.
package dicemind

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Evaluator failure kinds.
var (
	ErrDivisionByZero          = errors.New("division by zero")
	ErrInvalidDiceSize         = errors.New("dice must have at least one side")
	ErrOverflow                = errors.New("arithmetic overflow")
	ErrUnresolvedAugmentations = errors.New("augmentation chain not resolved")
)

// EvalError wraps an evaluator failure with the byte offset of the node
// that produced it. errors.Is matches the wrapped kind.
type EvalError struct {
	Pos int
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("EVAL ERROR at %d: %s", e.Pos, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Roll records the outcome of one physical die. Index is assigned at roll
// time and never changes; a roll discarded by a filter or truncation stays
// in the group's record with Alive false so tally, trace, and truncation
// tie-breaks remain well-defined.
type Roll struct {
	Index   int
	Value   int64
	Alive   bool
	Rerolls int64
}

// GroupTrace is the per-group roll record captured when tracing is enabled.
type GroupTrace struct {
	Count int64
	Sides int64
	Rolls []Roll
}

// Result is the outcome of one evaluation.
type Result struct {
	Value int64
	Trace []GroupTrace // nil unless Options.TraceEnabled
}

// Evaluate runs the full pipeline on source text: tokenize, parse, resolve
// augmentations, evaluate. The Source is owned exclusively by this call for
// its duration.
func Evaluate(src string, source Source, opts *Options) (Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	expr, err := Parse(src)
	if err != nil {
		return Result{}, err
	}
	if err := ResolveAugmentations(expr, opts); err != nil {
		return Result{}, err
	}
	return EvaluateExpression(expr, source, opts)
}

// EvaluateExpression evaluates a tree whose augmentation chains have already
// been resolved. Each call rolls every dice group afresh; nothing is cached
// between evaluations.
func EvaluateExpression(expr Expression, source Source, opts *Options) (Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	ev := &evaluator{source: source, opts: opts}
	value, err := ev.eval(expr)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: value, Trace: ev.trace}, nil
}

type evaluator struct {
	source Source
	opts   *Options
	trace  []GroupTrace
}

func (ev *evaluator) eval(expr Expression) (int64, error) {
	switch e := expr.(type) {
	case *Number:
		return e.Value, nil

	case *UnaryNeg:
		v, err := ev.eval(e.Operand)
		if err != nil {
			return 0, err
		}
		if v == math.MinInt64 {
			return 0, &EvalError{Pos: e.pos, Err: ErrOverflow}
		}
		return -v, nil

	case *BinaryOp:
		lhs, err := ev.eval(e.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := ev.eval(e.RHS)
		if err != nil {
			return 0, err
		}
		return ev.apply(e, lhs, rhs)

	case *DiceGroup:
		return ev.evalGroup(e)
	}
	return 0, fmt.Errorf("unhandled expression node %T", expr)
}

func (ev *evaluator) apply(op *BinaryOp, lhs, rhs int64) (int64, error) {
	switch op.Operator {
	case OpAdd:
		if v, ok := addInt64(lhs, rhs); ok {
			return v, nil
		}
		return 0, &EvalError{Pos: op.pos, Err: ErrOverflow}
	case OpSubtract:
		if v, ok := subInt64(lhs, rhs); ok {
			return v, nil
		}
		return 0, &EvalError{Pos: op.pos, Err: ErrOverflow}
	case OpMultiply:
		if v, ok := mulInt64(lhs, rhs); ok {
			return v, nil
		}
		return 0, &EvalError{Pos: op.pos, Err: ErrOverflow}
	case OpDivide:
		if rhs == 0 {
			return 0, &EvalError{Pos: op.pos, Err: ErrDivisionByZero}
		}
		if lhs == math.MinInt64 && rhs == -1 {
			return 0, &EvalError{Pos: op.pos, Err: ErrOverflow}
		}
		return lhs / rhs, nil
	case OpEquals:
		return boolToInt(lhs == rhs), nil
	case OpGreater:
		return boolToInt(lhs > rhs), nil
	case OpLess:
		return boolToInt(lhs < rhs), nil
	case OpGreaterEq:
		return boolToInt(lhs >= rhs), nil
	case OpLessEq:
		return boolToInt(lhs <= rhs), nil
	}
	return 0, fmt.Errorf("unhandled operator %v", op.Operator)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Checked int64 arithmetic. The bool result reports whether the exact value
// is representable; wraparound in Go's int64 is defined, which makes the
// sign checks reliable.

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func subInt64(a, b int64) (int64, bool) {
	d := a - b
	if (b < 0 && d < a) || (b > 0 && d > a) {
		return 0, false
	}
	return d, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// evalGroup rolls one dice group and collapses it to a scalar.
func (ev *evaluator) evalGroup(g *DiceGroup) (int64, error) {
	// A nil Augmentations field with a non-empty raw chain means the caller
	// skipped ResolveAugmentations; silently ignoring the chain would sum
	// rolls the notation says to discard.
	if len(g.Raw) > 0 && g.Augmentations == nil {
		return 0, &EvalError{Pos: g.pos, Err: ErrUnresolvedAugmentations}
	}

	sides := g.Sides
	if g.Percentile {
		sides = ev.opts.PercentileSides
	}
	if sides < 1 {
		return 0, &EvalError{Pos: g.pos, Err: ErrInvalidDiceSize}
	}

	rolls := make([]Roll, g.Count)
	for i := range rolls {
		rolls[i] = Roll{Index: i, Value: ev.source.Roll(sides), Alive: true}
	}

	var tally *Tally
	for _, aug := range g.Augmentations {
		switch a := aug.(type) {
		case *Filter:
			applyFilter(rolls, a)
		case *Truncation:
			applyTruncation(rolls, a)
		case *Tally:
			tally = a
		case *Reroll:
			ev.applyReroll(rolls, a, sides)
		}
	}

	if ev.opts.TraceEnabled {
		record := GroupTrace{Count: g.Count, Sides: sides, Rolls: make([]Roll, len(rolls))}
		copy(record.Rolls, rolls)
		ev.trace = append(ev.trace, record)
	}

	var total int64
	for i := range rolls {
		if !rolls[i].Alive {
			continue
		}
		if tally != nil {
			if rolls[i].Value == tally.Value {
				total++
			}
		} else {
			total += rolls[i].Value
		}
	}
	return total, nil
}

// applyFilter marks rolls that the filter discards as not alive. Keep(pred)
// retains rolls satisfying the predicate; Drop(pred) retains its complement.
func applyFilter(rolls []Roll, f *Filter) {
	for i := range rolls {
		if !rolls[i].Alive {
			continue
		}
		matches := f.Rel.matches(rolls[i].Value, f.N)
		if matches != (f.Kind == Keep) {
			rolls[i].Alive = false
		}
	}
}

// applyTruncation ranks the live rolls from the chosen extreme, ties broken
// by ascending index, and keeps or drops the first Count of them. A count
// exceeding the live size clamps to the full live set: Drop empties the
// group, Keep is a no-op.
func applyTruncation(rolls []Roll, t *Truncation) {
	live := make([]int, 0, len(rolls))
	for i := range rolls {
		if rolls[i].Alive {
			live = append(live, i)
		}
	}

	sort.SliceStable(live, func(a, b int) bool {
		va, vb := rolls[live[a]].Value, rolls[live[b]].Value
		if va != vb {
			if t.Affix == High {
				return va > vb
			}
			return va < vb
		}
		return live[a] < live[b]
	})

	count := t.Count
	if count > int64(len(live)) {
		count = int64(len(live))
	}

	for rank, idx := range live {
		selected := int64(rank) < count
		if selected == (t.Kind == Drop) {
			rolls[idx].Alive = false
		}
	}
}

// applyReroll redraws every live roll matching the predicate, repeating
// while the new value still matches, up to Cap attempts per roll. After the
// cap the roll keeps its last drawn value even if it still matches.
func (ev *evaluator) applyReroll(rolls []Roll, r *Reroll, sides int64) {
	for i := range rolls {
		if !rolls[i].Alive {
			continue
		}
		for attempts := int64(0); attempts < r.Cap && r.Rel.matches(rolls[i].Value, r.Value); attempts++ {
			rolls[i].Value = ev.source.Roll(sides)
			rolls[i].Rerolls++
		}
	}
}
