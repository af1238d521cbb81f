// Package testpath resolves symbolic test identities across the two
// universes a test appears in: metadata files under a checkout, and
// execution-report entries keyed by runner URL path. Both derivations
// must agree for the same logical test.
package testpath

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Browser selects which browser's test suites paths are resolved
// against.
type Browser uint8

// Supported browsers.
const (
	Firefox Browser = iota
	Servo
)

func (b Browser) String() string {
	switch b {
	case Firefox:
		return "firefox"
	case Servo:
		return "servo"
	}
	return fmt.Sprintf("Browser(%d)", uint8(b))
}

// ParseBrowser maps a CLI or config value to a Browser.
func ParseBrowser(s string) (Browser, error) {
	switch s {
	case "firefox":
		return Firefox, nil
	case "servo":
		return Servo, nil
	}
	return 0, fmt.Errorf("unrecognized browser %q", s)
}

// Visibility distinguishes upstream-public suites from
// browser-private ones.
type Visibility uint8

// Test suite visibilities.
const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Private:
		return "private"
	}
	return fmt.Sprintf("Visibility(%d)", uint8(v))
}

// ParseVisibility maps a config value to a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "public":
		return Public, nil
	case "private":
		return Private, nil
	}
	return 0, fmt.Errorf("unrecognized visibility %q", s)
}

// Scope identifies the filesystem/URL root a test path is relative
// to.
type Scope struct {
	Browser    Browser
	Visibility Visibility
}

// ScopeRoot binds a Scope to its concrete roots: the runner URL
// prefix of report entries and the checkout-relative directory
// holding the scope's metadata tree.
type ScopeRoot struct {
	Scope Scope

	// URLPrefix is stripped from execution-report test names, e.g.
	// "/_mozilla/" or the bare "/".
	URLPrefix string

	// MetaDir is the checkout-relative directory whose "meta"
	// subdirectory holds this scope's metadata, e.g.
	// "testing/web-platform/mozilla". Forward slashes.
	MetaDir string
}

// Scopes is the ordered scope-root table. Order is first match wins:
// a private root must precede the public root it extends, or the
// public prefix would shadow it.
type Scopes struct {
	Roots []ScopeRoot

	// MetaSubdir narrows metadata enumeration to one subtree under
	// each scope's meta directory ("webgpu" by default). Empty means
	// the whole meta directory.
	MetaSubdir string
}

// DefaultScopes returns the built-in scope-root table for Firefox
// (mozilla-central checkouts) and Servo.
func DefaultScopes() Scopes {
	return Scopes{
		Roots: []ScopeRoot{
			{
				Scope:     Scope{Browser: Firefox, Visibility: Private},
				URLPrefix: "/_mozilla/",
				MetaDir:   "testing/web-platform/mozilla",
			},
			{
				Scope:     Scope{Browser: Firefox, Visibility: Public},
				URLPrefix: "/",
				MetaDir:   "testing/web-platform",
			},
			{
				Scope:     Scope{Browser: Servo, Visibility: Public},
				URLPrefix: "/_webgpu/",
				MetaDir:   "tests/wpt/webgpu",
			},
		},
		MetaSubdir: "webgpu",
	}
}

// scopesConfig is the YAML shape of a scopes file.
type scopesConfig struct {
	MetaSubdir string `yaml:"meta_subdir"`
	Roots      []struct {
		Browser    string `yaml:"browser"`
		Visibility string `yaml:"visibility"`
		URLPrefix  string `yaml:"url_prefix"`
		MetaDir    string `yaml:"meta_dir"`
	} `yaml:"roots"`
}

// LoadScopes reads a scope-root table from a YAML file. The file
// replaces the built-in table wholesale.
func LoadScopes(path string) (Scopes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scopes{}, fmt.Errorf("reading scopes file: %w", err)
	}
	var cfg scopesConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Scopes{}, fmt.Errorf("parsing scopes file %s: %w", path, err)
	}
	if len(cfg.Roots) == 0 {
		return Scopes{}, fmt.Errorf("scopes file %s declares no roots", path)
	}

	scopes := Scopes{MetaSubdir: cfg.MetaSubdir}
	for i, r := range cfg.Roots {
		browser, err := ParseBrowser(r.Browser)
		if err != nil {
			return Scopes{}, fmt.Errorf("scopes file %s, root %d: %w", path, i, err)
		}
		visibility, err := ParseVisibility(r.Visibility)
		if err != nil {
			return Scopes{}, fmt.Errorf("scopes file %s, root %d: %w", path, i, err)
		}
		if !strings.HasPrefix(r.URLPrefix, "/") {
			return Scopes{}, fmt.Errorf(
				"scopes file %s, root %d: url_prefix %q must start with /",
				path, i, r.URLPrefix)
		}
		if r.MetaDir == "" || strings.HasSuffix(r.MetaDir, "/") {
			return Scopes{}, fmt.Errorf(
				"scopes file %s, root %d: invalid meta_dir %q", path, i, r.MetaDir)
		}
		scopes.Roots = append(scopes.Roots, ScopeRoot{
			Scope:     Scope{Browser: browser, Visibility: visibility},
			URLPrefix: r.URLPrefix,
			MetaDir:   r.MetaDir,
		})
	}

	if err := scopes.validateOrder(); err != nil {
		return Scopes{}, fmt.Errorf("scopes file %s: %w", path, err)
	}
	return scopes, nil
}

// validateOrder rejects tables where an earlier meta_dir shadows a
// later, more specific one.
func (s Scopes) validateOrder() error {
	for i, earlier := range s.Roots {
		for _, later := range s.Roots[i+1:] {
			if strings.HasPrefix(later.MetaDir, earlier.MetaDir+"/") {
				return fmt.Errorf(
					"root %q is shadowed by earlier root %q; order most specific first",
					later.MetaDir, earlier.MetaDir)
			}
		}
	}
	return nil
}

// rootFor returns the table entry for a scope.
func (s Scopes) rootFor(scope Scope) (ScopeRoot, bool) {
	for _, r := range s.Roots {
		if r.Scope == scope {
			return r, true
		}
	}
	return ScopeRoot{}, false
}

// MetadataSearchRoot returns the checkout-relative directory to
// enumerate metadata files under for a browser: the first (primary)
// root declared for that browser.
func (s Scopes) MetadataSearchRoot(browser Browser) (string, error) {
	for _, r := range s.Roots {
		if r.Scope.Browser == browser {
			parts := []string{r.MetaDir, "meta"}
			if s.MetaSubdir != "" {
				parts = append(parts, s.MetaSubdir)
			}
			return strings.Join(parts, "/"), nil
		}
	}
	return "", fmt.Errorf("no scope root declared for browser %v", browser)
}
