// Package correlate joins expectation metadata entries with observed
// execution-report entries that refer to the same test.
package correlate

import (
	"sort"

	"github.com/unbound-force/ctsmeta/internal/diag"
	"github.com/unbound-force/ctsmeta/internal/expect"
	"github.com/unbound-force/ctsmeta/internal/metadata"
	"github.com/unbound-force/ctsmeta/internal/testpath"
)

// Accumulator collects one test's (or subtest's) declared metadata
// properties alongside the outcomes observed for it, keyed by the
// matrix cell each report ran on.
type Accumulator[O expect.Outcome[O]] struct {
	// MetaProps holds the declared properties, nil when the test was
	// never seen in metadata.
	MetaProps *metadata.Props[O]

	// Reported is sparse: only cells some report actually ran on
	// appear. Cells never reported stay absent rather than empty.
	Reported map[expect.Cell]expect.Set[O]
}

// RecordOutcome folds one observed outcome into the cell's set. The
// result is the OR of every outcome ever recorded for the cell, so
// recording order does not matter.
func (a *Accumulator[O]) RecordOutcome(cell expect.Cell, outcome O) {
	if a.Reported == nil {
		a.Reported = map[expect.Cell]expect.Set[O]{}
	}
	if prev, ok := a.Reported[cell]; ok {
		a.Reported[cell] = prev.Add(outcome)
	} else {
		a.Reported[cell] = expect.Permanent(outcome)
	}
}

// TestEntry is everything known about one test across metadata and
// reports.
type TestEntry struct {
	Test     Accumulator[expect.TestOutcome]
	Subtests map[string]*Accumulator[expect.SubtestOutcome]
}

func (e *TestEntry) subtest(name string) *Accumulator[expect.SubtestOutcome] {
	if e.Subtests == nil {
		e.Subtests = map[string]*Accumulator[expect.SubtestOutcome]{}
	}
	acc, ok := e.Subtests[name]
	if !ok {
		acc = &Accumulator[expect.SubtestOutcome]{}
		e.Subtests[name] = acc
	}
	return acc
}

// SubtestNames returns the subtest names in sorted order.
func (e *TestEntry) SubtestNames() []string {
	names := make([]string, 0, len(e.Subtests))
	for name := range e.Subtests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReportedSubtest is one subtest observation from an execution report.
type ReportedSubtest struct {
	Name    string
	Outcome expect.SubtestOutcome
}

// Record is one correlated test: where metadata declared it, where
// reports last saw it, and the accumulated entry.
type Record struct {
	// MetadataPath is where the test's metadata section lives, nil for
	// tests only seen in reports.
	MetadataPath *testpath.TestPath

	// ReportedPath is where reports last observed the test, nil for
	// tests only seen in metadata.
	ReportedPath *testpath.TestPath

	Entry TestEntry
}

// Path returns the test's current identity, preferring the reported
// location over the metadata one. Every record comes from ingesting
// one side or the other, so at least one is always set.
func (r Record) Path() testpath.TestPath {
	if r.ReportedPath != nil {
		return *r.ReportedPath
	}
	if r.MetadataPath == nil {
		panic("correlate: record has neither a metadata nor a reported path")
	}
	return *r.MetadataPath
}

type record struct {
	metaPath     *testpath.TestPath
	reportedPath *testpath.TestPath
	entry        TestEntry
}

// Store correlates metadata and report entries. CTS tests correlate by
// their WebGPU CTS query so a test that moved between scope roots
// still matches; everything else correlates by its full path.
type Store struct {
	records    map[string]*record
	order      []string
	dupWarned  map[string]bool
	relocNoted map[string]bool
	diags      diag.Collector
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records:    map[string]*record{},
		dupWarned:  map[string]bool{},
		relocNoted: map[string]bool{},
	}
}

func key(tp testpath.TestPath) string {
	if q, ok := tp.CtsQueryKey(); ok {
		return "cts:" + q
	}
	return "path:" + tp.String()
}

func (s *Store) lookup(tp testpath.TestPath) *record {
	k := key(tp)
	rec, ok := s.records[k]
	if !ok {
		rec = &record{}
		s.records[k] = rec
		s.order = append(s.order, k)
	}
	return rec
}

// IngestMetadataEntry records one metadata test section. When two
// sections resolve to the same test, the first one seen wins and the
// rest are dropped with a warning.
func (s *Store) IngestMetadataEntry(tp testpath.TestPath, test metadata.Test) {
	rec := s.lookup(tp)
	if rec.metaPath != nil {
		k := key(tp)
		if !s.dupWarned[k] {
			s.dupWarned[k] = true
			s.diags.Warnf("duplicate metadata entries for %s, keeping the first", tp)
		}
		return
	}
	p := tp
	rec.metaPath = &p
	props := test.Props
	rec.entry.Test.MetaProps = &props
	for _, sub := range test.Subtests {
		subProps := sub.Props
		rec.entry.subtest(sub.Name).MetaProps = &subProps
	}
}

// IngestReportEntry records one observed test result. The cell is the
// platform and build profile the report ran on. When reports disagree
// about where the test lives, the latest path wins.
func (s *Store) IngestReportEntry(tp testpath.TestPath, cell expect.Cell, outcome expect.TestOutcome, subtests []ReportedSubtest) {
	rec := s.lookup(tp)
	if rec.reportedPath != nil && *rec.reportedPath != tp {
		s.diags.Infof("reports disagree on the location of %s, now %s", rec.reportedPath, tp)
	}
	p := tp
	rec.reportedPath = &p
	rec.entry.Test.RecordOutcome(cell, outcome)
	for _, sub := range subtests {
		rec.entry.subtest(sub.Name).RecordOutcome(cell, sub.Outcome)
	}
}

// Records returns every correlated test in a deterministic order. A
// test seen in both metadata and reports under different paths gets a
// relocation notice; reconciliation writes it at the reported path.
func (s *Store) Records() []Record {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		rec := s.records[k]
		if rec.metaPath != nil && rec.reportedPath != nil &&
			*rec.metaPath != *rec.reportedPath && !s.relocNoted[k] {
			s.relocNoted[k] = true
			s.diags.Infof("test %s moved to %s", rec.metaPath, rec.reportedPath)
		}
		out = append(out, Record{
			MetadataPath: rec.metaPath,
			ReportedPath: rec.reportedPath,
			Entry:        rec.entry,
		})
	}
	return out
}

// Diags returns everything noted while ingesting and resolving.
func (s *Store) Diags() []diag.Diagnostic {
	return s.diags.All()
}
