// Package report decodes wptreport.json execution reports and loads
// batches of them in parallel.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/unbound-force/ctsmeta/internal/expect"
)

// RunInfo identifies the platform and build profile a report's run
// executed on.
type RunInfo struct {
	OS    string `json:"os"`
	Debug bool   `json:"debug"`
}

// Platform maps the run's "os" value to a Platform.
func (r RunInfo) Platform() (expect.Platform, error) {
	return expect.ParsePlatform(r.OS)
}

// BuildProfile maps the run's debug flag to a BuildProfile.
func (r RunInfo) BuildProfile() expect.BuildProfile {
	if r.Debug {
		return expect.Debug
	}
	return expect.Optimized
}

// SubtestResult is one subtest's observed outcome.
type SubtestResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Outcome parses the subtest's status label.
func (s SubtestResult) Outcome() (expect.SubtestOutcome, error) {
	return expect.ParseSubtestOutcome(s.Status)
}

// TestResult is one test's observed outcome with its subtests.
type TestResult struct {
	Test     string          `json:"test"`
	Status   string          `json:"status"`
	Subtests []SubtestResult `json:"subtests"`
}

// Outcome parses the test's status label. An empty status is the
// harness's job-timed-out marker and maps to TIMEOUT; maybeTimedOut
// reports that case so callers can log it.
func (t TestResult) Outcome() (outcome expect.TestOutcome, maybeTimedOut bool, err error) {
	if t.Status == "" {
		return expect.TestTimeout, true, nil
	}
	outcome, err = expect.ParseTestOutcome(t.Status)
	return outcome, false, err
}

// ExecutionReport is one decoded wptreport.json document.
type ExecutionReport struct {
	RunInfo RunInfo      `json:"run_info"`
	Results []TestResult `json:"results"`
}

// Decode reads one execution report. The run_info os value is
// validated eagerly; individual result statuses are validated when
// consumed, so one bad entry does not reject the whole report.
func Decode(r io.Reader) (ExecutionReport, error) {
	var rep ExecutionReport
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rep); err != nil {
		return ExecutionReport{}, fmt.Errorf("decoding execution report: %w", err)
	}
	if _, err := rep.RunInfo.Platform(); err != nil {
		return ExecutionReport{}, fmt.Errorf("invalid run_info: %w", err)
	}
	return rep, nil
}
