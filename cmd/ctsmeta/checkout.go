package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	"github.com/unbound-force/ctsmeta/internal/metadata"
	"github.com/unbound-force/ctsmeta/internal/testpath"
)

// discoverCheckout walks up from start looking for a VCS root,
// preferring Mercurial over Git at each level.
func discoverCheckout(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{".hg", ".git"} {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no checkout found above %s (looked for .hg or .git)", start)
		}
		dir = parent
	}
}

// enumerateMetadata lists the checkout-relative paths of every
// expectation metadata file under the browser's search root, in
// natural order. Per-directory __dir__.ini files are not test
// metadata and are skipped.
func enumerateMetadata(checkout string, browser testpath.Browser, scopes testpath.Scopes) ([]string, error) {
	root, err := scopes.MetadataSearchRoot(browser)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(checkout), root+"/**/*.ini")
	if err != nil {
		return nil, fmt.Errorf("enumerating metadata under %s: %w", root, err)
	}

	paths := matches[:0]
	for _, m := range matches {
		if strings.HasSuffix(m, "/__dir__.ini") {
			continue
		}
		paths = append(paths, m)
	}
	sort.Sort(natural.StringSlice(paths))
	return paths, nil
}

// readMetadata parses every listed file. Parse failures are reported
// together after all files were attempted.
func readMetadata(checkout string, relPaths []string) (map[string]metadata.File, error) {
	files := make(map[string]metadata.File, len(relPaths))
	var broken []string
	for _, rel := range relPaths {
		src, err := os.ReadFile(filepath.Join(checkout, filepath.FromSlash(rel)))
		if err != nil {
			logger.Error("reading metadata", "path", rel, "err", err)
			broken = append(broken, rel)
			continue
		}
		file, err := metadata.Parse(string(src))
		if err != nil {
			logger.Error("parsing metadata", "path", rel, "err", err)
			broken = append(broken, rel)
			continue
		}
		files[rel] = file
	}
	if len(broken) > 0 {
		return files, fmt.Errorf("%d metadata file(s) could not be read", len(broken))
	}
	return files, nil
}

// writeMetadata serializes and writes one metadata file, creating
// parent directories as needed.
func writeMetadata(checkout, rel string, file metadata.File) error {
	abs := filepath.Join(checkout, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(metadata.Format(file)), 0o644)
}
