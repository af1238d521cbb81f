package testpath

import (
	"fmt"
	"strings"
)

// ctsQueryPrefix marks variants that address a WebGPU CTS test by
// query string rather than by file.
const ctsQueryPrefix = "?q=webgpu:"

// ctsHarnessFile is the fixed harness page all CTS query variants
// run in.
const ctsHarnessFile = "cts.https.html"

// PathFormatError reports that a test path could not be derived from
// its raw form. It is fatal for the entry, never for the run.
type PathFormatError struct {
	// Source names the derivation that failed: "execution report" or
	// "metadata".
	Source string
	// Input is the raw path (URL path, or metadata file path).
	Input string
	// Section is the metadata test section name, when applicable.
	Section string
	// Detail explains the mismatch.
	Detail string
}

func (e *PathFormatError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf(
			"failed to derive test path from %s path %q and test section %q: %s",
			e.Source, e.Input, e.Section, e.Detail)
	}
	return fmt.Sprintf(
		"failed to derive test path from %s path %q: %s",
		e.Source, e.Input, e.Detail)
}

// TestPath is a single symbolic path to a test and its metadata,
// common to execution reports and metadata files. Two TestPaths are
// equal iff scope, path, and variant all match; the type is
// comparable and usable as a map key.
type TestPath struct {
	Scope Scope

	// Path is the forward-slash relative offset into the scope.
	Path string

	// Variant is the trailing query-string suffix including its
	// leading "?", or empty. A test is either a single test
	// (no variant) or a family of variants sharing one Path.
	Variant string
}

// FromExecutionReport derives a TestPath from an execution report's
// URL-style test name. Recognized URL prefixes come from the scope
// table, checked in order.
func FromExecutionReport(urlPath string, browser Browser, scopes Scopes) (TestPath, error) {
	fail := func(detail string) (TestPath, error) {
		return TestPath{}, &PathFormatError{
			Source: "execution report",
			Input:  urlPath,
			Detail: detail,
		}
	}

	var (
		scope   Scope
		rest    string
		matched bool
	)
	for _, root := range scopes.Roots {
		if root.Scope.Browser != browser {
			continue
		}
		if strings.HasPrefix(urlPath, root.URLPrefix) {
			scope = root.Scope
			rest = strings.TrimPrefix(urlPath, root.URLPrefix)
			matched = true
			break
		}
	}
	if !matched {
		return fail("no recognized URL prefix")
	}
	if strings.Contains(rest, `\`) {
		return fail(`path contains a backslash`)
	}
	if rest == "" {
		return fail("empty path after URL prefix")
	}

	path, variant := splitVariant(rest)
	if path == "" {
		return fail("empty path before variant")
	}
	return TestPath{Scope: scope, Path: path, Variant: variant}, nil
}

// FromMetadataLocation derives a TestPath from a metadata file's
// checkout-relative location (forward slashes) and the test section
// name inside it. The file path's final component must equal the
// section's base name.
func FromMetadataLocation(relFilePath, testSection string, scopes Scopes) (TestPath, error) {
	fail := func(detail string) (TestPath, error) {
		return TestPath{}, &PathFormatError{
			Source:  "metadata",
			Input:   relFilePath,
			Section: testSection,
			Detail:  detail,
		}
	}

	stripped, ok := strings.CutSuffix(relFilePath, ".ini")
	if !ok {
		return fail(`missing ".ini" suffix`)
	}

	var (
		scope   Scope
		rest    string
		matched bool
	)
	for _, root := range scopes.Roots {
		if strings.HasPrefix(stripped, root.MetaDir+"/") {
			scope = root.Scope
			rest = strings.TrimPrefix(stripped, root.MetaDir+"/")
			matched = true
			break
		}
	}
	if !matched {
		return fail("no recognized scope root")
	}

	rest, ok = strings.CutPrefix(rest, "meta/")
	if !ok {
		return fail(`missing "meta/" directory segment`)
	}

	baseName, variant := splitVariant(testSection)
	if lastComponent(rest) != baseName {
		return fail(fmt.Sprintf(
			"file base name %q does not match test section base name %q",
			lastComponent(rest), baseName))
	}

	return TestPath{Scope: scope, Path: rest, Variant: variant}, nil
}

// splitVariant splits a trailing "?..." query suffix off the last
// path segment.
func splitVariant(path string) (string, string) {
	last := lastComponent(path)
	q := strings.Index(last, "?")
	if q < 0 {
		return path, ""
	}
	cut := len(last) - q
	return path[:len(path)-cut], last[q:]
}

func lastComponent(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// CtsQueryKey returns the canonical join key for CTS tests addressed
// by query variant: the variant's query value, when the variant uses
// the recognized suite-query prefix and the path ends with the
// suite's harness page. Many such tests share one physical metadata
// entry and differ only by variant, and metadata and reports may
// reach the same logical test via slightly different raw paths.
func (t TestPath) CtsQueryKey() (string, bool) {
	if !strings.HasPrefix(t.Variant, ctsQueryPrefix) {
		return "", false
	}
	if lastComponent(t.Path) != ctsHarnessFile {
		return "", false
	}
	return strings.TrimPrefix(t.Variant, "?q="), true
}

// TestName is the metadata section name: base file name plus variant.
func (t TestPath) TestName() string {
	return lastComponent(t.Path) + t.Variant
}

// String renders the identity for diagnostics.
func (t TestPath) String() string {
	return fmt.Sprintf("%v/%v:%s%s", t.Scope.Browser, t.Scope.Visibility, t.Path, t.Variant)
}

// RunnerURLPath renders the path as the test runner addresses it,
// without the leading slash.
func (s Scopes) RunnerURLPath(t TestPath) (string, error) {
	root, ok := s.rootFor(t.Scope)
	if !ok {
		return "", fmt.Errorf("no scope root declared for %+v", t.Scope)
	}
	return strings.TrimPrefix(root.URLPrefix, "/") + t.Path + t.Variant, nil
}

// RelMetadataPath renders the checkout-relative metadata file path
// for the test, with forward slashes.
func (s Scopes) RelMetadataPath(t TestPath) (string, error) {
	root, ok := s.rootFor(t.Scope)
	if !ok {
		return "", fmt.Errorf("no scope root declared for %+v", t.Scope)
	}
	return root.MetaDir + "/meta/" + t.Path + ".ini", nil
}
