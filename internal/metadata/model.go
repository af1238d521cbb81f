// Package metadata models WPT expectation metadata files and
// provides a parser and serializer for the subset of the format this
// tool emits: nested sections, disabled flags, and expected-outcome
// values conditioned on platform and build profile.
package metadata

import "github.com/unbound-force/ctsmeta/internal/expect"

// Props are the reconciliation-relevant properties of a test or
// subtest section.
type Props[O expect.Outcome[O]] struct {
	// Disabled marks the section as not run by the harness.
	Disabled bool

	// Expectations is the declared expectation value, nil when the
	// section declares none.
	Expectations *expect.Normalized[O]
}

// IsDefault reports whether the properties carry no information: not
// disabled and either no expectations or the all-default value.
func (p Props[O]) IsDefault() bool {
	if p.Disabled {
		return false
	}
	return p.Expectations == nil || p.Expectations.Equal(expect.DefaultNormalized[O]())
}

// TestProps are the properties of a test section.
type TestProps = Props[expect.TestOutcome]

// SubtestProps are the properties of a subtest section.
type SubtestProps = Props[expect.SubtestOutcome]

// Subtest is one named subtest section.
type Subtest struct {
	Name  string
	Props SubtestProps
}

// Test is one named test section with its subtests in file order.
type Test struct {
	Name     string
	Props    TestProps
	Subtests []Subtest
}

// File is one metadata file: file-level property lines preserved
// verbatim, plus test sections in file order. Format sorts tests by
// name, so emission order is deterministic regardless of Tests order.
type File struct {
	Props []string
	Tests []Test
}
