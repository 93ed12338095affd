// roller.go: the random source consumed by the evaluator.
//
// There is no global random state. A Source is an explicit object handed to
// each evaluation call, which owns it exclusively for the call's duration.
// Independent evaluations may run concurrently as long as each has its own
// Source instance.
package dicemind

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source supplies uniform die rolls. Roll returns a value in [1, sides];
// sides is always >= 1 when called by the evaluator.
type Source interface {
	Roll(sides int64) int64
}

type randSource struct {
	rng *rand.Rand
}

func (s *randSource) Roll(sides int64) int64 {
	return s.rng.Int63n(sides) + 1
}

// NewSeededSource returns a deterministic Source. Identical seeds produce
// identical roll streams, making evaluations reproducible.
func NewSeededSource(seed int64) Source {
	return &randSource{rng: rand.New(rand.NewSource(seed))}
}

// NewSource returns a Source seeded from the operating system's entropy.
func NewSource() (Source, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededSource(seed), nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
