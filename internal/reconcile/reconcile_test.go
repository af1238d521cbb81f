package reconcile

import (
	"testing"

	"github.com/unbound-force/ctsmeta/internal/expect"
	"github.com/unbound-force/ctsmeta/internal/metadata"
	"github.com/unbound-force/ctsmeta/internal/report"
	"github.com/unbound-force/ctsmeta/internal/testpath"
)

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in   string
		want Policy
	}{
		{"reset-contradictory", ResetContradictory},
		{"new-fx", ResetContradictory},
		{"merge", Merge},
		{"same-fx", Merge},
		{"reset-all", ResetAll},
	}
	for _, c := range cases {
		got, err := ParsePolicy(c.in)
		if err != nil {
			t.Errorf("ParsePolicy(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParsePolicy("yolo"); err == nil {
		t.Error("ParsePolicy accepted an unknown preset")
	}
}

const metaPath = "testing/web-platform/mozilla/meta/webgpu/cts.https.html.ini"

func metaFileFailEverywhere() map[string]metadata.File {
	fail := expect.NormalizedUniform(expect.UniformByProfile(expect.Permanent(expect.SubtestFail)))
	return map[string]metadata.File{
		metaPath: {
			Tests: []metadata.Test{{
				Name: "cts.https.html?q=webgpu:api,validation:*",
				Subtests: []metadata.Subtest{{
					Name:  "sub",
					Props: metadata.SubtestProps{Expectations: &fail},
				}},
			}},
		},
	}
}

func passOnLinuxDebug() []report.ExecutionReport {
	return []report.ExecutionReport{{
		RunInfo: report.RunInfo{OS: "linux", Debug: true},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/cts.https.html?q=webgpu:api,validation:*",
			Status: "OK",
			Subtests: []report.SubtestResult{
				{Name: "sub", Status: "PASS"},
			},
		}},
	}}
}

func subtestExpectations(t *testing.T, res Result) *expect.Normalized[expect.SubtestOutcome] {
	t.Helper()
	file, ok := res.Updated[metaPath]
	if !ok {
		t.Fatalf("metadata file missing from result: %v", res.Updated)
	}
	if len(file.Tests) != 1 || len(file.Tests[0].Subtests) != 1 {
		t.Fatalf("unexpected result shape: %+v", file.Tests)
	}
	exp := file.Tests[0].Subtests[0].Props.Expectations
	if exp == nil {
		t.Fatal("subtest lost its expectations")
	}
	return exp
}

func TestReconcileAll_ResetContradictory(t *testing.T) {
	res, err := ReconcileAll(metaFileFailEverywhere(), passOnLinuxDebug(),
		ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}

	exp := subtestExpectations(t, res)
	if got := exp.Get(expect.Linux, expect.Debug); got != expect.Permanent(expect.SubtestPass) {
		t.Errorf("contradicted cell = %v, want PASS", got)
	}
	for _, p := range expect.Platforms {
		for _, b := range expect.BuildProfiles {
			if p == expect.Linux && b == expect.Debug {
				continue
			}
			if got := exp.Get(p, b); got != expect.Permanent(expect.SubtestFail) {
				t.Errorf("unobserved cell (%v, %v) = %v, want FAIL untouched", p, b, got)
			}
		}
	}
}

func TestReconcileAll_ResetContradictory_AgreementKeepsDeclaration(t *testing.T) {
	meta := metaFileFailEverywhere()
	reports := passOnLinuxDebug()
	reports[0].Results[0].Subtests[0].Status = "FAIL"

	res, err := ReconcileAll(meta, reports, ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	exp := subtestExpectations(t, res)
	if got := exp.Get(expect.Linux, expect.Debug); got != expect.Permanent(expect.SubtestFail) {
		t.Errorf("agreeing cell = %v, want FAIL kept", got)
	}
}

func TestReconcileAll_Merge_NeverShrinks(t *testing.T) {
	res, err := ReconcileAll(metaFileFailEverywhere(), passOnLinuxDebug(),
		Merge, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}

	exp := subtestExpectations(t, res)
	want, _ := expect.NewSet(expect.SubtestPass, expect.SubtestFail)
	if got := exp.Get(expect.Linux, expect.Debug); got != want {
		t.Errorf("observed cell = %v, want %v", got, want)
	}
	for _, p := range expect.Platforms {
		for _, b := range expect.BuildProfiles {
			if !exp.Get(p, b).IsSuperset(expect.Permanent(expect.SubtestFail)) {
				t.Errorf("merge shrank cell (%v, %v) to %v", p, b, exp.Get(p, b))
			}
		}
	}
}

// Once a run's outcomes agree with what is declared, reconciling the
// same run again changes nothing.
func TestReconcileAll_ResetContradictory_Idempotent(t *testing.T) {
	once, err := ReconcileAll(metaFileFailEverywhere(), passOnLinuxDebug(),
		ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatal(err)
	}
	twice, err := ReconcileAll(once.Updated, passOnLinuxDebug(),
		ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatal(err)
	}

	a := subtestExpectations(t, once)
	b := subtestExpectations(t, twice)
	if !a.Equal(*b) {
		t.Errorf("second reconcile changed the result: %v vs %v", a, b)
	}
}

// A test that only ever passes needs no metadata: reset-all rebuilds
// its expectations as all-default and the whole file is pruned.
func TestReconcileAll_ResetAll_PrunesPassingTest(t *testing.T) {
	res, err := ReconcileAll(metaFileFailEverywhere(), passOnLinuxDebug(),
		ResetAll, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}

	if _, ok := res.Updated[metaPath]; ok {
		t.Error("all-default file still present in Updated")
	}
	if len(res.Removed) != 1 || res.Removed[0] != metaPath {
		t.Errorf("Removed = %v, want [%s]", res.Removed, metaPath)
	}
}

func TestReconcileAll_ResetDropsUnreportedEntry(t *testing.T) {
	meta := metaFileFailEverywhere()
	reports := []report.ExecutionReport{{
		RunInfo: report.RunInfo{OS: "win", Debug: false},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/cts.https.html?q=webgpu:api,operation:*",
			Status: "ERROR",
		}},
	}}

	res, err := ReconcileAll(meta, reports, ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	file, ok := res.Updated[metaPath]
	if !ok {
		t.Fatal("metadata file dropped entirely; the reported variant should keep it")
	}
	for _, test := range file.Tests {
		if test.Name == "cts.https.html?q=webgpu:api,validation:*" {
			t.Error("entry absent from reports survived a reset policy")
		}
	}
	// The erroring variant becomes a new entry in the same file.
	found := false
	for _, test := range file.Tests {
		if test.Name == "cts.https.html?q=webgpu:api,operation:*" {
			found = true
			if test.Props.Expectations == nil {
				t.Error("new entry has no expectations")
			} else if got := test.Props.Expectations.Get(expect.Windows, expect.Optimized); got != expect.Permanent(expect.TestError) {
				t.Errorf("new entry win-opt = %v, want ERROR", got)
			}
		}
	}
	if !found {
		t.Error("newly reported test missing from result")
	}
}

func TestReconcileAll_MergeKeepsUnreportedEntry(t *testing.T) {
	meta := metaFileFailEverywhere()
	reports := []report.ExecutionReport{{
		RunInfo: report.RunInfo{OS: "mac", Debug: false},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/cts.https.html?q=webgpu:api,operation:*",
			Status: "OK",
		}},
	}}

	res, err := ReconcileAll(meta, reports, Merge, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	file, ok := res.Updated[metaPath]
	if !ok {
		t.Fatal("metadata file missing from result")
	}
	kept := false
	for _, test := range file.Tests {
		if test.Name == "cts.https.html?q=webgpu:api,validation:*" {
			kept = true
		}
	}
	if !kept {
		t.Error("merge dropped an entry absent from reports")
	}
}

// A subtest that timed out under observation gets NOTRUN added too,
// since which of the two the harness records depends on timing.
func TestReconcileAll_TaintsTimeoutSuspicion(t *testing.T) {
	reports := []report.ExecutionReport{{
		RunInfo: report.RunInfo{OS: "linux", Debug: true},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/cts.https.html?q=webgpu:api,validation:*",
			Status: "TIMEOUT",
			Subtests: []report.SubtestResult{
				{Name: "sub", Status: "TIMEOUT"},
			},
		}},
	}}

	res, err := ReconcileAll(map[string]metadata.File{}, reports,
		ResetContradictory, testpath.Firefox, testpath.DefaultScopes())
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}

	exp := subtestExpectations(t, res)
	want, _ := expect.NewSet(expect.SubtestTimeout, expect.SubtestNotRun)
	if got := exp.Get(expect.Linux, expect.Debug); got != want {
		t.Errorf("tainted cell = %v, want %v", got, want)
	}
}

// Tainting also applies to a declared subtest expectation kept as-is
// because no report observed that subtest, as long as a sibling keeps
// the test entry alive.
func TestReconcileAll_TaintsUnobservedSubtest(t *testing.T) {
	timeout := expect.NormalizedUniform(expect.UniformByProfile(expect.Permanent(expect.SubtestTimeout)))
	meta := map[string]metadata.File{
		metaPath: {
			Tests: []metadata.Test{{
				Name: "cts.https.html?q=webgpu:api,validation:*",
				Subtests: []metadata.Subtest{{
					Name:  "a",
					Props: metadata.SubtestProps{Expectations: &timeout},
				}},
			}},
		},
	}
	reports := []report.ExecutionReport{{
		RunInfo: report.RunInfo{OS: "linux", Debug: true},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/cts.https.html?q=webgpu:api,validation:*",
			Status: "OK",
			Subtests: []report.SubtestResult{
				{Name: "b", Status: "FAIL"},
			},
		}},
	}}

	want, _ := expect.NewSet(expect.SubtestTimeout, expect.SubtestNotRun)
	for _, policy := range []Policy{Merge, ResetContradictory} {
		res, err := ReconcileAll(meta, reports, policy, testpath.Firefox, testpath.DefaultScopes())
		if err != nil {
			t.Fatalf("%v: ReconcileAll error: %v", policy, err)
		}
		file, ok := res.Updated[metaPath]
		if !ok || len(file.Tests) != 1 {
			t.Fatalf("%v: unexpected result shape: %+v", policy, res.Updated)
		}
		var exp *expect.Normalized[expect.SubtestOutcome]
		for _, sub := range file.Tests[0].Subtests {
			if sub.Name == "a" {
				exp = sub.Props.Expectations
			}
		}
		if exp == nil {
			t.Fatalf("%v: unobserved subtest lost its expectations", policy)
		}
		for _, p := range expect.Platforms {
			for _, b := range expect.BuildProfiles {
				if got := exp.Get(p, b); got != want {
					t.Errorf("%v: cell (%v, %v) = %v, want %v", policy, p, b, got, want)
				}
			}
		}
	}
}

func TestReconcileAll_CollectsErrorsAndContinues(t *testing.T) {
	meta := metaFileFailEverywhere()
	reports := passOnLinuxDebug()
	reports = append(reports, report.ExecutionReport{
		RunInfo: report.RunInfo{OS: "linux", Debug: true},
		Results: []report.TestResult{{
			Test:   "/_mozilla/webgpu/other.html",
			Status: "BOGUS",
		}},
	})

	res, err := ReconcileAll(meta, reports, Merge, testpath.Firefox, testpath.DefaultScopes())
	if err == nil {
		t.Error("expected an error after error-level diagnostics")
	}
	if _, ok := res.Updated[metaPath]; !ok {
		t.Error("valid entries were not reconciled despite an unrelated bad result")
	}
}
