// Package expect defines the expectation data model for test outcome
// reconciliation: closed outcome enumerations, non-empty outcome sets,
// the dense platform/build-profile matrix, and its normalized
// (losslessly collapsed) encoding.
package expect

import "fmt"

// Outcome is the constraint shared by both outcome enumerations. Each
// enumeration member occupies a single bit so that sets of outcomes
// can be represented as a bitmask of the same underlying type.
type Outcome[O any] interface {
	~uint8

	// Good returns the enumeration's designated passing outcome.
	Good() O

	// Label returns the wire label used in metadata files and
	// wptreport.json (e.g. "PASS", "NOTRUN").
	Label() string
}

// TestOutcome is one observed result kind for a whole test.
type TestOutcome uint8

// Test-level outcomes, in enumeration order.
const (
	TestOk TestOutcome = 1 << iota
	TestTimeout
	TestCrash
	TestError
	TestSkip
)

// Good returns TestOk.
func (TestOutcome) Good() TestOutcome { return TestOk }

// Label returns the wire label for a single test outcome.
func (o TestOutcome) Label() string {
	switch o {
	case TestOk:
		return "OK"
	case TestTimeout:
		return "TIMEOUT"
	case TestCrash:
		return "CRASH"
	case TestError:
		return "ERROR"
	case TestSkip:
		return "SKIP"
	}
	return fmt.Sprintf("TestOutcome(%#b)", uint8(o))
}

func (o TestOutcome) String() string { return o.Label() }

// ParseTestOutcome maps a wire label to a test outcome.
func ParseTestOutcome(label string) (TestOutcome, error) {
	switch label {
	case "OK":
		return TestOk, nil
	case "TIMEOUT":
		return TestTimeout, nil
	case "CRASH":
		return TestCrash, nil
	case "ERROR":
		return TestError, nil
	case "SKIP":
		return TestSkip, nil
	}
	return 0, fmt.Errorf("unrecognized test outcome %q", label)
}

// SubtestOutcome is one observed result kind for a single subtest.
type SubtestOutcome uint8

// Subtest-level outcomes, in enumeration order.
const (
	SubtestPass SubtestOutcome = 1 << iota
	SubtestFail
	SubtestTimeout
	SubtestNotRun
	SubtestCrash
)

// Good returns SubtestPass.
func (SubtestOutcome) Good() SubtestOutcome { return SubtestPass }

// Label returns the wire label for a single subtest outcome.
func (o SubtestOutcome) Label() string {
	switch o {
	case SubtestPass:
		return "PASS"
	case SubtestFail:
		return "FAIL"
	case SubtestTimeout:
		return "TIMEOUT"
	case SubtestNotRun:
		return "NOTRUN"
	case SubtestCrash:
		return "CRASH"
	}
	return fmt.Sprintf("SubtestOutcome(%#b)", uint8(o))
}

func (o SubtestOutcome) String() string { return o.Label() }

// ParseSubtestOutcome maps a wire label to a subtest outcome.
func ParseSubtestOutcome(label string) (SubtestOutcome, error) {
	switch label {
	case "PASS":
		return SubtestPass, nil
	case "FAIL":
		return SubtestFail, nil
	case "TIMEOUT":
		return SubtestTimeout, nil
	case "NOTRUN":
		return SubtestNotRun, nil
	case "CRASH":
		return SubtestCrash, nil
	}
	return 0, fmt.Errorf("unrecognized subtest outcome %q", label)
}
