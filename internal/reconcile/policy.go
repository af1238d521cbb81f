package reconcile

import "fmt"

// Policy selects how observed outcomes fold into declared
// expectations.
type Policy int

const (
	// ResetContradictory replaces a cell's expectation only when the
	// observed outcomes contradict it. Suitable after an update where
	// behavior may have changed.
	ResetContradictory Policy = iota

	// Merge unions observed outcomes into the declared expectation.
	// Expectations never shrink; suitable for folding in more runs of
	// the same build.
	Merge

	// ResetAll discards declared expectations and rebuilds them from
	// the observed outcomes alone.
	ResetAll
)

func (p Policy) String() string {
	switch p {
	case ResetContradictory:
		return "reset-contradictory"
	case Merge:
		return "merge"
	case ResetAll:
		return "reset-all"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy recognizes the canonical policy names and their
// workflow aliases: "new-fx" for reset-contradictory and "same-fx"
// for merge.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reset-contradictory", "new-fx":
		return ResetContradictory, nil
	case "merge", "same-fx":
		return Merge, nil
	case "reset-all":
		return ResetAll, nil
	}
	return 0, fmt.Errorf("unrecognized reconciliation preset %q (expected reset-contradictory, merge, reset-all, new-fx, or same-fx)", s)
}
