package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	"github.com/spf13/cobra"
	"github.com/unbound-force/ctsmeta/internal/reconcile"
	"github.com/unbound-force/ctsmeta/internal/report"
)

// updateParams holds the parsed flags for the update-expected command.
type updateParams struct {
	env         env
	reportPaths []string
	globs       []string
	preset      string
	stdout      io.Writer
	stderr      io.Writer
}

// runUpdateExpected is the extracted, testable body of the
// update-expected command.
func runUpdateExpected(p updateParams) error {
	policy, err := reconcile.ParsePolicy(p.preset)
	if err != nil {
		return err
	}

	paths := append([]string(nil), p.reportPaths...)
	for _, pattern := range p.globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad report glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Sort(natural.StringSlice(paths))
	if len(paths) == 0 {
		return errors.New("no report files given (pass paths or --glob)")
	}

	logger.Info("loading reports", "count", len(paths))
	loaded, errs := report.LoadAll(paths, 0)
	for _, err := range errs {
		logger.Error("loading report", "err", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d report(s) could not be loaded", len(errs))
	}

	relPaths, err := enumerateMetadata(p.env.checkout, p.env.browser, p.env.scopes)
	if err != nil {
		return err
	}
	metaFiles, err := readMetadata(p.env.checkout, relPaths)
	if err != nil {
		return err
	}
	logger.Info("reconciling", "metadata_files", len(metaFiles), "reports", len(loaded), "preset", policy)

	reports := make([]report.ExecutionReport, len(loaded))
	for i, l := range loaded {
		reports[i] = l.Report
	}
	result, rerr := reconcile.ReconcileAll(metaFiles, reports, policy, p.env.browser, p.env.scopes)
	logDiags(result.Diags)
	if rerr != nil {
		return rerr
	}

	updated := make([]string, 0, len(result.Updated))
	for rel := range result.Updated {
		updated = append(updated, rel)
	}
	sort.Sort(natural.StringSlice(updated))
	for _, rel := range updated {
		if err := writeMetadata(p.env.checkout, rel, result.Updated[rel]); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	for _, rel := range result.Removed {
		err := os.Remove(filepath.Join(p.env.checkout, filepath.FromSlash(rel)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", rel, err)
		}
		logger.Info("removed empty metadata file", "path", rel)
	}

	fmt.Fprintf(p.stdout, "updated %d metadata file(s), removed %d\n",
		len(result.Updated), len(result.Removed))
	return nil
}

func newUpdateExpectedCmd(flags *rootFlags) *cobra.Command {
	var (
		globs  []string
		preset string
	)

	cmd := &cobra.Command{
		Use:     "update-expected [reports...]",
		Aliases: []string{"process-reports"},
		Short:   "Reconcile metadata against wptreport.json files",
		Long: `Reconcile checked-in expectation metadata against one or more
wptreport.json execution reports and rewrite the metadata in
normalized form. Files whose last entry is dropped are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(flags)
			if err != nil {
				return err
			}
			return runUpdateExpected(updateParams{
				env:         e,
				reportPaths: args,
				globs:       globs,
				preset:      preset,
				stdout:      os.Stdout,
				stderr:      os.Stderr,
			})
		},
	}

	cmd.Flags().StringArrayVar(&globs, "glob", nil,
		"doublestar glob of report files (repeatable)")
	cmd.Flags().StringVar(&preset, "preset", "reset-contradictory",
		"reconciliation preset: reset-contradictory (new-fx), merge (same-fx), or reset-all")

	return cmd
}
