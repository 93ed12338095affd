// options.go: evaluation options recognized by the resolver and evaluator.
package dicemind

// Options configures evaluation. The zero value is not meaningful; use
// DefaultOptions and override fields as needed.
type Options struct {
	// RerollCap is the reroll attempt limit applied when an "xN" repeat
	// limit is omitted. A cap of 0 disables rerolling: a matching roll
	// keeps its initial value and that is not an error.
	RerollCap int64

	// PercentileSides is the side count substituted for the "%" marker.
	PercentileSides int64

	// TraceEnabled records per-die outcomes for every dice group into
	// Result.Trace, in evaluation order.
	TraceEnabled bool
}

// DefaultOptions returns the documented defaults: a single reroll attempt,
// 100-sided percentile dice, no trace.
func DefaultOptions() *Options {
	return &Options{
		RerollCap:       1,
		PercentileSides: 100,
	}
}
