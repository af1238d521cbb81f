package expect

import (
	"errors"
	"math/bits"
	"strings"
)

// ErrEmptySet is returned when constructing a Set from zero outcomes.
// An empty expectation is a programming-invariant violation: every
// expectation must admit at least one outcome.
var ErrEmptySet = errors.New("expectation set must not be empty")

// Set is a non-empty set of acceptable outcomes. A single-member set
// is "permanent" (the test is deterministic), a multi-member set is
// "intermittent". The zero value is invalid; construct sets with
// NewSet, Permanent, or DefaultSet.
type Set[O Outcome[O]] struct {
	bits O
}

// NewSet builds a set from one or more outcomes. It fails with
// ErrEmptySet when given none.
func NewSet[O Outcome[O]](outcomes ...O) (Set[O], error) {
	var b O
	for _, o := range outcomes {
		b |= o
	}
	if b == 0 {
		return Set[O]{}, ErrEmptySet
	}
	return Set[O]{bits: b}, nil
}

// Permanent builds the single-member set holding only the given
// outcome.
func Permanent[O Outcome[O]](outcome O) Set[O] {
	return Set[O]{bits: outcome}
}

// DefaultSet is the set containing only the enumeration's good
// outcome.
func DefaultSet[O Outcome[O]]() Set[O] {
	var z O
	return Permanent(z.Good())
}

// Union returns the set of outcomes in either s or other.
func (s Set[O]) Union(other Set[O]) Set[O] {
	return Set[O]{bits: s.bits | other.bits}
}

// Add returns s with the given outcome included.
func (s Set[O]) Add(outcome O) Set[O] {
	return Set[O]{bits: s.bits | outcome}
}

// IsSuperset reports whether every outcome of other is in s.
func (s Set[O]) IsSuperset(other Set[O]) bool {
	return s.bits&other.bits == other.bits
}

// IsDisjoint reports whether s shares no outcome with the given ones.
func (s Set[O]) IsDisjoint(outcomes ...O) bool {
	var b O
	for _, o := range outcomes {
		b |= o
	}
	return s.bits&b == 0
}

// IsPermanent reports whether s holds exactly one outcome.
func (s Set[O]) IsPermanent() bool {
	return bits.OnesCount8(uint8(s.bits)) == 1
}

// AsPermanent returns the sole member when s is permanent.
func (s Set[O]) AsPermanent() (O, bool) {
	if !s.IsPermanent() {
		var z O
		return z, false
	}
	return s.bits, true
}

// Len returns the number of outcomes in s.
func (s Set[O]) Len() int {
	return bits.OnesCount8(uint8(s.bits))
}

// IsZero reports whether s is the invalid zero value.
func (s Set[O]) IsZero() bool {
	return s.bits == 0
}

// Outcomes returns the members of s in enumeration order.
func (s Set[O]) Outcomes() []O {
	out := make([]O, 0, s.Len())
	for shift := 0; shift < 8; shift++ {
		o := O(1) << shift
		if s.bits&o != 0 {
			out = append(out, o)
		}
	}
	return out
}

// String renders a permanent set as its outcome's label and an
// intermittent set as a bracketed list, matching the metadata file
// syntax.
func (s Set[O]) String() string {
	if o, ok := s.AsPermanent(); ok {
		return o.Label()
	}
	labels := make([]string, 0, s.Len())
	for _, o := range s.Outcomes() {
		labels = append(labels, o.Label())
	}
	return "[" + strings.Join(labels, ", ") + "]"
}
