// Package reconcile folds observed execution-report outcomes into
// declared expectation metadata under a chosen policy.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/unbound-force/ctsmeta/internal/correlate"
	"github.com/unbound-force/ctsmeta/internal/diag"
	"github.com/unbound-force/ctsmeta/internal/expect"
	"github.com/unbound-force/ctsmeta/internal/metadata"
	"github.com/unbound-force/ctsmeta/internal/report"
	"github.com/unbound-force/ctsmeta/internal/testpath"
)

// reconcileCells produces the new expectation matrix for one property
// from its current matrix and the sparse observed sets.
func reconcileCells[O expect.Outcome[O]](policy Policy, existing expect.Matrix[O], reported map[expect.Cell]expect.Set[O]) expect.Matrix[O] {
	return expect.MatrixFromQuery(func(p expect.Platform, b expect.BuildProfile) expect.Set[O] {
		cur := existing.Get(p, b)
		obs, seen := reported[expect.Cell{Platform: p, Profile: b}]
		switch policy {
		case ResetAll:
			if seen {
				return obs
			}
			return expect.DefaultSet[O]()
		case ResetContradictory:
			if seen && !cur.IsSuperset(obs) {
				return obs
			}
			return cur
		case Merge:
			if seen {
				return cur.Union(obs)
			}
			return cur
		}
		return cur
	})
}

// reconcileProps reconciles one test's or subtest's property block.
// taint, when non-nil, is applied to every cell before collapsing.
func reconcileProps[O expect.Outcome[O]](policy Policy, acc correlate.Accumulator[O], taint func(expect.Set[O]) expect.Set[O]) metadata.Props[O] {
	var props metadata.Props[O]
	if acc.MetaProps != nil {
		props = *acc.MetaProps
	}

	if len(acc.Reported) == 0 {
		// Nothing observed. ResetAll wipes the declaration back to the
		// default; the other policies keep it, but the kept value is
		// still tainted so Timeout and NotRun stay entangled.
		if policy == ResetAll {
			props.Expectations = nil
		} else if taint != nil && props.Expectations != nil {
			kept := expect.Collapse(props.Expectations.Expand().Map(taint))
			props.Expectations = &kept
		}
		return props
	}

	existing := expect.DefaultMatrix[O]()
	if props.Expectations != nil {
		existing = props.Expectations.Expand()
	}
	next := reconcileCells(policy, existing, acc.Reported)
	if taint != nil {
		next = next.Map(taint)
	}
	norm := expect.Collapse(next)
	props.Expectations = &norm
	return props
}

func hasObservations(entry correlate.TestEntry) bool {
	if len(entry.Test.Reported) > 0 {
		return true
	}
	for _, sub := range entry.Subtests {
		if len(sub.Reported) > 0 {
			return true
		}
	}
	return false
}

// reconcileEntry produces the reconciled test section for one
// correlated record. keep is false when the policy drops the entry.
func reconcileEntry(policy Policy, rec correlate.Record, usingReports bool, diags *diag.Collector) (metadata.Test, bool) {
	tp := rec.Path()
	name := tp.TestName()

	if rec.MetadataPath == nil {
		diags.Infof("new test entry for %s", tp)
	}

	if usingReports && !hasObservations(rec.Entry) {
		switch policy {
		case Merge:
			diags.Warnf("%s not seen in any report, keeping its entry", tp)
		default:
			diags.Infof("%s not seen in any report, removing its entry", tp)
			return metadata.Test{}, false
		}
	}

	out := metadata.Test{
		Name:  name,
		Props: reconcileProps(policy, rec.Entry.Test, nil),
	}
	for _, subName := range rec.Entry.SubtestNames() {
		acc := *rec.Entry.Subtests[subName]
		props := reconcileProps(policy, acc, expect.TaintTimeoutSuspicion)
		if props.IsDefault() {
			continue
		}
		out.Subtests = append(out.Subtests, metadata.Subtest{Name: subName, Props: props})
	}

	// A section that declares nothing carries no information.
	if len(out.Subtests) == 0 && out.Props.IsDefault() {
		return metadata.Test{}, false
	}
	return out, true
}

// Result is the outcome of reconciling a whole checkout's metadata
// against a batch of reports.
type Result struct {
	// Updated maps checkout-relative metadata paths to their new
	// contents. Every surviving file appears, changed or not.
	Updated map[string]metadata.File

	// Removed lists metadata paths whose last test entry was dropped.
	Removed []string

	Diags []diag.Diagnostic
}

// ReconcileAll correlates metadata files with execution reports and
// reconciles every test under the policy. Per-entry problems are
// collected as diagnostics and reconciliation continues; the returned
// error is non-nil only when at least one error-level diagnostic was
// recorded.
func ReconcileAll(metaFiles map[string]metadata.File, reports []report.ExecutionReport, policy Policy, browser testpath.Browser, scopes testpath.Scopes) (Result, error) {
	store := correlate.NewStore()
	var diags diag.Collector

	for relPath, file := range metaFiles {
		for _, test := range file.Tests {
			tp, err := testpath.FromMetadataLocation(relPath, test.Name, scopes)
			if err != nil {
				diags.Errorf("%s: %v", relPath, err)
				continue
			}
			store.IngestMetadataEntry(tp, test)
		}
	}

	for _, rep := range reports {
		platform, err := rep.RunInfo.Platform()
		if err != nil {
			diags.Errorf("skipping report: %v", err)
			continue
		}
		cell := expect.Cell{Platform: platform, Profile: rep.RunInfo.BuildProfile()}
		for _, res := range rep.Results {
			tp, err := testpath.FromExecutionReport(res.Test, browser, scopes)
			if err != nil {
				diags.Errorf("skipping result: %v", err)
				continue
			}
			outcome, maybeTimedOut, err := res.Outcome()
			if err != nil {
				diags.Errorf("%s: %v", tp, err)
				continue
			}
			if maybeTimedOut {
				diags.Warnf("%s has no status, the job may have timed out", tp)
			}
			subs := make([]correlate.ReportedSubtest, 0, len(res.Subtests))
			for _, sub := range res.Subtests {
				subOutcome, err := sub.Outcome()
				if err != nil {
					diags.Errorf("%s, subtest %q: %v", tp, sub.Name, err)
					continue
				}
				subs = append(subs, correlate.ReportedSubtest{Name: sub.Name, Outcome: subOutcome})
			}
			store.IngestReportEntry(tp, cell, outcome, subs)
		}
	}

	usingReports := len(reports) > 0
	updated := map[string]metadata.File{}
	for _, rec := range store.Records() {
		test, keep := reconcileEntry(policy, rec, usingReports, &diags)
		if !keep {
			continue
		}
		relPath, err := scopes.RelMetadataPath(rec.Path())
		if err != nil {
			diags.Errorf("%s: %v", rec.Path(), err)
			continue
		}
		file, ok := updated[relPath]
		if !ok {
			// Carry the original file-level properties forward.
			file.Props = metaFiles[relPath].Props
		}
		file.Tests = append(file.Tests, test)
		updated[relPath] = file
	}

	var removed []string
	for relPath := range metaFiles {
		if _, ok := updated[relPath]; !ok {
			removed = append(removed, relPath)
		}
	}

	sort.Strings(removed)

	result := Result{
		Updated: updated,
		Removed: removed,
		Diags:   append(store.Diags(), diags.All()...),
	}
	if diags.HasErrors() {
		return result, fmt.Errorf("reconciliation finished with errors")
	}
	return result, nil
}
