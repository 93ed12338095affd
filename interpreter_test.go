// interpreter_test.go
package dicemind

import (
	"errors"
	"reflect"
	"testing"
)

// scripted replays a fixed draw sequence; it panics when the evaluator
// consumes more draws than the test supplied.
type scripted struct {
	draws []int64
	i     int
}

func (s *scripted) Roll(sides int64) int64 {
	if s.i >= len(s.draws) {
		panic("scripted source exhausted")
	}
	v := s.draws[s.i]
	s.i++
	return v
}

func evalWith(t *testing.T, src string, draws []int64, opts *Options) Result {
	t.Helper()
	res, err := Evaluate(src, &scripted{draws: draws}, opts)
	if err != nil {
		t.Fatalf("Evaluate(%q) error: %v", src, err)
	}
	return res
}

func Test_Evaluate_Scenarios(t *testing.T) {
	cases := []struct {
		src   string
		draws []int64
		want  int64
	}{
		{"2d6 + 2", []int64{3, 5}, 10},
		{"2d20kh", []int64{14, 9}, 14},
		{"4d6dh2", []int64{6, 1, 4, 2}, 3},
		{"6d6n6", []int64{6, 1, 6, 3, 6, 2}, 3},
		{"d%", []int64{42}, 42},
		{"(2d6 + 2) * (2d20kh + 3 + 2 > 13)", []int64{2, 4, 14, 9}, 8},
	}
	for _, tc := range cases {
		if got := evalWith(t, tc.src, tc.draws, nil); got.Value != tc.want {
			t.Fatalf("%q with draws %v: want %d, got %d", tc.src, tc.draws, tc.want, got.Value)
		}
	}
}

func Test_Evaluate_Arithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"7 / 2", 3},
		{"-3 + 5", 2},
		{"1 = 1", 1},
		{"1 < 2", 1},
		{"3 <= 2", 0},
		{"3 >= 3", 1},
		{"2 > 3", 0},
	}
	for _, tc := range cases {
		if got := evalWith(t, tc.src, nil, nil); got.Value != tc.want {
			t.Fatalf("%q: want %d, got %d", tc.src, tc.want, got.Value)
		}
	}
}

func Test_Evaluate_DivisionByZero(t *testing.T) {
	for _, src := range []string{"1 / 0", "10 / (2 - 2)"} {
		_, err := Evaluate(src, &scripted{}, nil)
		if !errors.Is(err, ErrDivisionByZero) {
			t.Fatalf("%q: want ErrDivisionByZero, got %v", src, err)
		}
	}
}

func Test_Evaluate_InvalidDiceSize(t *testing.T) {
	for _, src := range []string{"d0", "2d0kh"} {
		_, err := Evaluate(src, &scripted{}, nil)
		if !errors.Is(err, ErrInvalidDiceSize) {
			t.Fatalf("%q: want ErrInvalidDiceSize, got %v", src, err)
		}
	}
}

func Test_Evaluate_ArithmeticOverflow(t *testing.T) {
	cases := []string{
		"9223372036854775807 + 1",
		"-9223372036854775807 - 2",
		"9223372036854775807 * 2",
		"(-9223372036854775807 - 1) / -1",
		"-(-9223372036854775807 - 1)",
	}
	for _, src := range cases {
		_, err := Evaluate(src, &scripted{}, nil)
		if !errors.Is(err, ErrOverflow) {
			t.Fatalf("%q: want ErrOverflow, got %v", src, err)
		}
	}

	// The extremes themselves are representable.
	if got := evalWith(t, "-9223372036854775807 - 1", nil, nil); got.Value != -9223372036854775807-1 {
		t.Fatalf("want min int64, got %d", got.Value)
	}
}

func Test_EvaluateExpression_RequiresResolvedChains(t *testing.T) {
	// Skipping ResolveAugmentations must not silently sum both dice.
	expr := parseOK(t, "2d20kh")
	_, err := EvaluateExpression(expr, &scripted{}, nil)
	if !errors.Is(err, ErrUnresolvedAugmentations) {
		t.Fatalf("want ErrUnresolvedAugmentations, got %v", err)
	}

	// A group with no chain at all still evaluates unresolved.
	if got, err := EvaluateExpression(parseOK(t, "2d6"), &scripted{draws: []int64{3, 5}}, nil); err != nil || got.Value != 8 {
		t.Fatalf("want 8, got %d (%v)", got.Value, err)
	}
}

func Test_Evaluate_ZeroCountGroup(t *testing.T) {
	// Zero dice roll nothing and collapse to 0; the scripted source panics
	// if any draw is consumed.
	if got := evalWith(t, "0d6 + 5", nil, nil); got.Value != 5 {
		t.Fatalf("want 5, got %d", got.Value)
	}
}

func Test_Evaluate_NegatedGroup(t *testing.T) {
	if got := evalWith(t, "-2d6", []int64{3, 5}, nil); got.Value != -8 {
		t.Fatalf("want -8, got %d", got.Value)
	}
}

func Test_Evaluate_PercentileSidesOption(t *testing.T) {
	opts := DefaultOptions()
	opts.PercentileSides = 20
	opts.TraceEnabled = true
	res := evalWith(t, "d%", []int64{17}, opts)
	if res.Value != 17 {
		t.Fatalf("want 17, got %d", res.Value)
	}
	if len(res.Trace) != 1 || res.Trace[0].Sides != 20 {
		t.Fatalf("want traced sides 20, got %+v", res.Trace)
	}
}

func Test_Evaluate_TallyWithoutMatches(t *testing.T) {
	if got := evalWith(t, "4d6n6", []int64{1, 2, 3, 4}, nil); got.Value != 0 {
		t.Fatalf("want 0, got %d", got.Value)
	}
}

func Test_Evaluate_TruncationClamps(t *testing.T) {
	// Dropping more than the live size empties the group; keeping more is
	// a no-op. Neither is an error.
	if got := evalWith(t, "2d6dh5", []int64{3, 5}, nil); got.Value != 0 {
		t.Fatalf("drop beyond live size: want 0, got %d", got.Value)
	}
	if got := evalWith(t, "2d6kh5", []int64{3, 5}, nil); got.Value != 8 {
		t.Fatalf("keep beyond live size: want 8, got %d", got.Value)
	}
}

func liveCount(g GroupTrace) int {
	n := 0
	for _, r := range g.Rolls {
		if r.Alive {
			n++
		}
	}
	return n
}

func Test_Evaluate_TruncationOnlyChainSizes(t *testing.T) {
	// With no preceding filter, a truncation leaves a certain live count:
	// max(0, S-c) for drops, min(c, S) for keeps, independent of values.
	draws := []int64{7, 2, 9, 9, 1, 5, 3, 8, 4, 6}
	opts := DefaultOptions()
	opts.TraceEnabled = true

	cases := []struct {
		src  string
		want int
	}{
		{"10d10dh3", 7},
		{"10d10dl12", 0},
		{"10d10kh4", 4},
		{"10d10kl15", 10},
	}
	for _, tc := range cases {
		res := evalWith(t, tc.src, draws, opts)
		if got := liveCount(res.Trace[0]); got != tc.want {
			t.Fatalf("%q: want %d live rolls, got %d", tc.src, tc.want, got)
		}
	}
}

func Test_Evaluate_TruncationTieBreaksByIndex(t *testing.T) {
	opts := DefaultOptions()
	opts.TraceEnabled = true
	res := evalWith(t, "3d6kh", []int64{4, 4, 2}, opts)
	if res.Value != 4 {
		t.Fatalf("want 4, got %d", res.Value)
	}
	rolls := res.Trace[0].Rolls
	if !rolls[0].Alive || rolls[1].Alive || rolls[2].Alive {
		t.Fatalf("tie must keep the lowest original index: %+v", rolls)
	}
}

func Test_Evaluate_FilterPartition(t *testing.T) {
	// keep(P) and drop(P) partition the group: their sums add up to the
	// unfiltered sum under identical draws.
	draws := []int64{4, 1, 6, 3, 2, 5, 6, 1, 3, 4}
	full := evalWith(t, "10d6", draws, nil)
	kept := evalWith(t, "10d6k>3", draws, nil)
	dropped := evalWith(t, "10d6d>3", draws, nil)
	if kept.Value+dropped.Value != full.Value {
		t.Fatalf("partition violated: %d + %d != %d", kept.Value, dropped.Value, full.Value)
	}
}

func Test_Evaluate_FilterComplementEquivalence(t *testing.T) {
	// keep(v > N) ∪ keep(v = N) ≡ drop(v < N).
	draws := []int64{4, 1, 6, 3, 2, 5, 6, 1, 3, 4}
	above := evalWith(t, "10d6k>3", draws, nil)
	equal := evalWith(t, "10d6k3", draws, nil)
	kept := evalWith(t, "10d6d<3", draws, nil)
	if above.Value+equal.Value != kept.Value {
		t.Fatalf("complement violated: %d + %d != %d", above.Value, equal.Value, kept.Value)
	}
}

func Test_Evaluate_FilterThenTruncation(t *testing.T) {
	// A truncation after a filter ranks only the already-filtered rolls.
	// Draws 5,2,6,3: k>2 keeps 5,6,3; kl keeps the lowest survivor, 3.
	if got := evalWith(t, "4d6k>2kl", []int64{5, 2, 6, 3}, nil); got.Value != 3 {
		t.Fatalf("want 3, got %d", got.Value)
	}
}

func Test_Evaluate_Reroll(t *testing.T) {
	// Each matching die redraws once under the default cap.
	if got := evalWith(t, "4d6r1", []int64{1, 3, 1, 5, 2, 6}, nil); got.Value != 16 {
		t.Fatalf("want 16, got %d", got.Value)
	}
}

func Test_Evaluate_RerollRepeatsWhileMatching(t *testing.T) {
	opts := DefaultOptions()
	opts.TraceEnabled = true
	// Cap 2: draw 1, redraw 2 (matches <3), redraw 2 again; cap reached,
	// the final matching value stands and is not an error.
	res := evalWith(t, "d6r<3x2", []int64{1, 2, 2}, opts)
	if res.Value != 2 {
		t.Fatalf("want 2, got %d", res.Value)
	}
	if r := res.Trace[0].Rolls[0]; r.Rerolls != 2 {
		t.Fatalf("want 2 rerolls used, got %+v", r)
	}
}

func Test_Evaluate_RerollCapNeverExceeded(t *testing.T) {
	opts := DefaultOptions()
	opts.TraceEnabled = true
	// Initial draws 1,2,1,2: the two matching dice redraw; the first burns
	// all four attempts on 1s, the second stops once it draws a 2.
	res := evalWith(t, "4d2r1x4", []int64{1, 2, 1, 2, 1, 1, 1, 1, 1, 2}, opts)
	for _, r := range res.Trace[0].Rolls {
		if r.Rerolls > 4 {
			t.Fatalf("reroll cap exceeded: %+v", r)
		}
	}
	if got := res.Trace[0].Rolls[0].Rerolls; got != 4 {
		t.Fatalf("want 4 rerolls on first die, got %d", got)
	}
}

func Test_Evaluate_RerollCapZeroDisables(t *testing.T) {
	opts := DefaultOptions()
	opts.RerollCap = 0
	// The die matches the predicate but no redraw happens and no error is
	// raised; the scripted source would panic on an extra draw.
	if got := evalWith(t, "d6r1", []int64{1}, opts); got.Value != 1 {
		t.Fatalf("want 1, got %d", got.Value)
	}
}

func Test_Evaluate_RerollSkipsDiscardedRolls(t *testing.T) {
	// The dropped 1 is not redrawn: the scripted source has no draw left.
	if got := evalWith(t, "2d6khr1", []int64{1, 4}, nil); got.Value != 4 {
		t.Fatalf("want 4, got %d", got.Value)
	}
}

func Test_Evaluate_TraceRecordsDiscardedRolls(t *testing.T) {
	opts := DefaultOptions()
	opts.TraceEnabled = true
	res := evalWith(t, "4d6dh2", []int64{6, 1, 4, 2}, opts)
	want := []Roll{
		{Index: 0, Value: 6, Alive: false},
		{Index: 1, Value: 1, Alive: true},
		{Index: 2, Value: 4, Alive: false},
		{Index: 3, Value: 2, Alive: true},
	}
	if len(res.Trace) != 1 || !reflect.DeepEqual(res.Trace[0].Rolls, want) {
		t.Fatalf("want %+v, got %+v", want, res.Trace)
	}
	if res.Trace[0].Count != 4 || res.Trace[0].Sides != 6 {
		t.Fatalf("group header mismatch: %+v", res.Trace[0])
	}
}

func Test_Evaluate_TraceDisabledByDefault(t *testing.T) {
	if res := evalWith(t, "2d6", []int64{3, 5}, nil); res.Trace != nil {
		t.Fatalf("want nil trace, got %+v", res.Trace)
	}
}

func Test_Evaluate_TraceGroupOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.TraceEnabled = true
	res := evalWith(t, "2d6 + 3d4", []int64{3, 5, 1, 2, 4}, opts)
	if len(res.Trace) != 2 || res.Trace[0].Sides != 6 || res.Trace[1].Sides != 4 {
		t.Fatalf("want groups in evaluation order, got %+v", res.Trace)
	}
}

func Test_Evaluate_DeterministicUnderSeed(t *testing.T) {
	const src = "4d6dh2r<2x3 + d% * 2"
	opts := DefaultOptions()
	opts.TraceEnabled = true

	a, err := Evaluate(src, NewSeededSource(42), opts)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	b, err := Evaluate(src, NewSeededSource(42), opts)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical seeds diverged:\n%+v\n%+v", a, b)
	}
}

func Test_Source_RollRange(t *testing.T) {
	src := NewSeededSource(7)
	for i := 0; i < 1000; i++ {
		if v := src.Roll(6); v < 1 || v > 6 {
			t.Fatalf("roll out of range: %d", v)
		}
	}
}
