// resolve.go — semantic pass over raw augmentation chains.
//
// The parser attaches the uninterpreted augmentation token run to each
// DiceGroup. ResolveAugmentations turns every run into an ordered sequence
// of typed operation records with validated arguments. Validation here is
// static only: it never depends on roll outcomes. A truncation count larger
// than the eventual live group size is an evaluation-time condition, not a
// resolve-time error, because the live size may depend on prior filters.
package dicemind

import "fmt"

// AugmentKind is the polarity of a filter or truncation.
type AugmentKind int

const (
	Keep AugmentKind = iota
	Drop
)

func (k AugmentKind) String() string {
	if k == Drop {
		return "d"
	}
	return "k"
}

// Affix selects which rank extreme a truncation operates on.
type Affix int

const (
	High Affix = iota
	Low
)

func (a Affix) String() string {
	if a == Low {
		return "l"
	}
	return "h"
}

// Relation is a value predicate: equal to, greater than, or less than a
// comparison target.
type Relation int

const (
	RelEqual Relation = iota
	RelGreater
	RelLess
)

func (r Relation) String() string {
	switch r {
	case RelGreater:
		return ">"
	case RelLess:
		return "<"
	default:
		return ""
	}
}

func (r Relation) matches(value, target int64) bool {
	switch r {
	case RelGreater:
		return value > target
	case RelLess:
		return value < target
	default:
		return value == target
	}
}

// Augmentation is one resolved operation record. The sequence attached to a
// dice group is ordered, never a set: later operations observe the live-roll
// state left by earlier ones.
type Augmentation interface {
	augNode()
}

// Filter keeps or drops rolls by absolute value predicate. Drop(pred) is the
// complement of Keep(pred): it keeps exactly the rolls Keep would discard.
type Filter struct {
	Kind AugmentKind
	Rel  Relation
	N    int64
}

// Truncation keeps or drops Count rolls ranked from the High or Low extreme
// of the currently live group.
type Truncation struct {
	Kind  AugmentKind
	Affix Affix
	Count int64
}

// Tally replaces sum collapse with a count of live rolls equal to Value.
type Tally struct {
	Value int64
}

// Reroll redraws each live roll matching the predicate, up to Cap attempts
// per roll.
type Reroll struct {
	Rel   Relation
	Value int64
	Cap   int64
}

func (*Filter) augNode()     {}
func (*Truncation) augNode() {}
func (*Tally) augNode()      {}
func (*Reroll) augNode()     {}

// ResolveError reports an invalid augmentation combination or argument.
type ResolveError struct {
	Pos    int
	Reason string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("RESOLVE ERROR at %d: %s", e.Pos, e.Reason)
}

// ResolveAugmentations resolves the raw augmentation chain of every dice
// group in the tree, attaching the ordered Augmentations sequence each
// evaluator run applies. Resolving an already-resolved tree is a no-op for
// groups whose chains have not changed.
func ResolveAugmentations(expr Expression, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	var firstErr error
	Walk(expr, func(node Expression) {
		group, ok := node.(*DiceGroup)
		if !ok || firstErr != nil {
			return
		}
		augs, err := resolveChain(group.Raw, opts)
		if err != nil {
			firstErr = err
			return
		}
		group.Augmentations = augs
	})
	return firstErr
}

// resolveChain interprets one raw token run in source order. The returned
// sequence is non-nil even when empty: a nil Augmentations field marks a
// group whose chain has not been resolved yet.
func resolveChain(raw []Token, opts *Options) ([]Augmentation, error) {
	augs := []Augmentation{}
	sawTally := false

	i := 0
	next := func(tt TokenType) bool {
		if i < len(raw) && raw[i].Type == tt {
			i++
			return true
		}
		return false
	}
	qualifier := func() Relation {
		if next(GREATER) {
			return RelGreater
		}
		if next(LESS) {
			return RelLess
		}
		return RelEqual
	}

	for i < len(raw) {
		letter := raw[i]
		i++

		switch letter.Type {
		case DIE, KEEP:
			kind := Keep
			if letter.Type == DIE {
				kind = Drop
			}

			if i < len(raw) && (raw[i].Type == HIGH || raw[i].Type == LOW) {
				affix := High
				if raw[i].Type == LOW {
					affix = Low
				}
				i++
				count := int64(1)
				if next(INTEGER) {
					count = raw[i-1].Literal
				}
				if count < 0 {
					return nil, &ResolveError{Pos: letter.Pos, Reason: "negative truncation count"}
				}
				augs = append(augs, &Truncation{Kind: kind, Affix: affix, Count: count})
				continue
			}

			rel := qualifier()
			if !next(INTEGER) {
				return nil, &ResolveError{
					Pos:    letter.Pos,
					Reason: fmt.Sprintf("filter %s requires a comparison target", letter.Lexeme),
				}
			}
			augs = append(augs, &Filter{Kind: kind, Rel: rel, N: raw[i-1].Literal})

		case HIGH, LOW:
			// Bare affix: keep is implied, so "2d20h" reads as "2d20kh".
			affix := High
			if letter.Type == LOW {
				affix = Low
			}
			count := int64(1)
			if next(INTEGER) {
				count = raw[i-1].Literal
			}
			if count < 0 {
				return nil, &ResolveError{Pos: letter.Pos, Reason: "negative truncation count"}
			}
			augs = append(augs, &Truncation{Kind: Keep, Affix: affix, Count: count})

		case TALLY:
			if sawTally {
				return nil, &ResolveError{Pos: letter.Pos, Reason: "a dice group may carry at most one tally"}
			}
			sawTally = true
			if !next(INTEGER) {
				return nil, &ResolveError{Pos: letter.Pos, Reason: "tally requires a value argument"}
			}
			augs = append(augs, &Tally{Value: raw[i-1].Literal})

		case REROLL:
			rel := qualifier()
			if !next(INTEGER) {
				return nil, &ResolveError{Pos: letter.Pos, Reason: "reroll requires a comparison target"}
			}
			value := raw[i-1].Literal
			limit := opts.RerollCap
			if next(REPEAT) {
				if !next(INTEGER) {
					return nil, &ResolveError{Pos: letter.Pos, Reason: "reroll repeat limit requires a value"}
				}
				limit = raw[i-1].Literal
			}
			if limit < 0 {
				return nil, &ResolveError{Pos: letter.Pos, Reason: "negative reroll limit"}
			}
			augs = append(augs, &Reroll{Rel: rel, Value: value, Cap: limit})

		default:
			return nil, &ResolveError{
				Pos:    letter.Pos,
				Reason: fmt.Sprintf("unknown augmentation %s", letter.Lexeme),
			}
		}
	}
	return augs, nil
}
