package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/unbound-force/ctsmeta/internal/expect"
	"github.com/unbound-force/ctsmeta/internal/metadata"
)

// fixupParams holds the parsed flags for the fixup command.
type fixupParams struct {
	env    env
	stdout io.Writer
}

// taintFile widens timeout-suspicious subtest expectations so a
// TIMEOUT and the NOTRUN it implies are both accepted.
func taintFile(file metadata.File) metadata.File {
	for ti := range file.Tests {
		for si := range file.Tests[ti].Subtests {
			exp := file.Tests[ti].Subtests[si].Props.Expectations
			if exp == nil {
				continue
			}
			tainted := expect.Collapse(exp.Expand().Map(expect.TaintTimeoutSuspicion))
			file.Tests[ti].Subtests[si].Props.Expectations = &tainted
		}
	}
	return file
}

// runFixup is the extracted, testable body of the fixup command.
func runFixup(p fixupParams) error {
	relPaths, err := enumerateMetadata(p.env.checkout, p.env.browser, p.env.scopes)
	if err != nil {
		return err
	}
	files, err := readMetadata(p.env.checkout, relPaths)
	if err != nil {
		return err
	}

	for _, rel := range relPaths {
		file, ok := files[rel]
		if !ok {
			continue
		}
		if err := writeMetadata(p.env.checkout, rel, taintFile(file)); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}

	fmt.Fprintf(p.stdout, "formatted %d metadata file(s)\n", len(files))
	return nil
}

func newFixupCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "fixup",
		Aliases: []string{"fmt"},
		Short:   "Rewrite metadata files in normalized form",
		Long: `Parse every expectation metadata file in the checkout, widen
timeout-suspicious subtest expectations, and write each file back
in normalized form with sorted sections and minimal conditions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(flags)
			if err != nil {
				return err
			}
			return runFixup(fixupParams{env: e, stdout: os.Stdout})
		},
	}
}
