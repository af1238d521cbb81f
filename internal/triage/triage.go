// Package triage buckets declared expectations into prioritized
// problem classes for bug-filing work.
package triage

import (
	"sort"

	"github.com/unbound-force/ctsmeta/internal/expect"
	"github.com/unbound-force/ctsmeta/internal/metadata"
)

// Priority orders buckets by how urgently they deserve attention.
type Priority int

const (
	High Priority = iota
	Medium
	Low
)

func (p Priority) String() string {
	switch p {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	}
	return "?"
}

// Case is one triaged test or subtest.
type Case struct {
	// File is the checkout-relative metadata path the section lives in.
	File string

	// Test is the test section name; Subtest is empty for test-level
	// findings.
	Test    string
	Subtest string
}

// Name renders the case for display.
func (c Case) Name() string {
	if c.Subtest == "" {
		return c.Test
	}
	return c.Test + " › " + c.Subtest
}

// Tally is one platform's bucketed findings.
type Tally struct {
	PermaCrash        []Case
	PermaFail         []Case
	PermaTimeout      []Case
	IntermittentCrash []Case
	Intermittent      []Case
}

// Report is the full triage aggregation across platforms.
type Report struct {
	ByPlatform map[expect.Platform]*Tally
	Disabled   []Case
}

func (r *Report) tally(p expect.Platform) *Tally {
	t, ok := r.ByPlatform[p]
	if !ok {
		t = &Tally{}
		r.ByPlatform[p] = t
	}
	return t
}

// TotalCases counts every finding across platforms plus disabled
// sections.
func (r *Report) TotalCases() int {
	n := len(r.Disabled)
	for _, t := range r.ByPlatform {
		n += len(t.PermaCrash) + len(t.PermaFail) + len(t.PermaTimeout) +
			len(t.IntermittentCrash) + len(t.Intermittent)
	}
	return n
}

// classify puts one section's expectation into the matching bucket,
// once per platform. A profile that is permanently bad makes the
// whole platform a permanent finding; anything else non-trivial is an
// intermittent.
func classify[O expect.Outcome[O]](r *Report, c Case, exp *expect.Normalized[O], crash, timeout O) {
	if exp == nil {
		return
	}
	for _, p := range expect.Platforms {
		union := exp.Get(p, expect.Debug).Union(exp.Get(p, expect.Optimized))
		if perm, ok := union.AsPermanent(); ok && perm == perm.Good() {
			continue
		}

		permaCrash, permaTimeout, permaOther := false, false, false
		for _, b := range expect.BuildProfiles {
			perm, ok := exp.Get(p, b).AsPermanent()
			if !ok || perm == perm.Good() {
				continue
			}
			switch perm {
			case crash:
				permaCrash = true
			case timeout:
				permaTimeout = true
			default:
				permaOther = true
			}
		}

		t := r.tally(p)
		switch {
		case permaCrash:
			t.PermaCrash = append(t.PermaCrash, c)
		case permaOther:
			t.PermaFail = append(t.PermaFail, c)
		case permaTimeout:
			t.PermaTimeout = append(t.PermaTimeout, c)
		case !union.IsDisjoint(crash):
			t.IntermittentCrash = append(t.IntermittentCrash, c)
		default:
			t.Intermittent = append(t.Intermittent, c)
		}
	}
}

// Analyze buckets every test and subtest in the given metadata files.
// Files are keyed by their checkout-relative path.
func Analyze(files map[string]metadata.File) *Report {
	r := &Report{ByPlatform: map[expect.Platform]*Tally{}}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		file := files[path]
		for _, test := range file.Tests {
			tc := Case{File: path, Test: test.Name}
			if test.Props.Disabled {
				r.Disabled = append(r.Disabled, tc)
			}
			classify(r, tc, test.Props.Expectations,
				expect.TestCrash, expect.TestTimeout)
			for _, sub := range test.Subtests {
				sc := Case{File: path, Test: test.Name, Subtest: sub.Name}
				if sub.Props.Disabled {
					r.Disabled = append(r.Disabled, sc)
				}
				classify(r, sc, sub.Props.Expectations,
					expect.SubtestCrash, expect.SubtestTimeout)
			}
		}
	}
	return r
}
