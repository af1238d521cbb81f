package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/unbound-force/ctsmeta/internal/triage"
)

// triageParams holds the parsed flags for the triage command.
type triageParams struct {
	env         env
	onZeroItem  string
	interactive bool
	stdout      io.Writer
}

// runTriage is the extracted, testable body of the triage command.
func runTriage(p triageParams) error {
	var opts triage.RenderOptions
	switch p.onZeroItem {
	case "show":
		opts.ShowEmpty = true
	case "hide":
	default:
		return fmt.Errorf("invalid --on-zero-item %q: must be 'show' or 'hide'", p.onZeroItem)
	}

	relPaths, err := enumerateMetadata(p.env.checkout, p.env.browser, p.env.scopes)
	if err != nil {
		return err
	}
	files, err := readMetadata(p.env.checkout, relPaths)
	if err != nil {
		return err
	}

	rpt := triage.Analyze(files)
	logger.Info("triage complete", "files", len(files), "findings", rpt.TotalCases())

	if p.interactive {
		return runInteractiveTriage(rpt, opts)
	}
	return triage.WriteText(p.stdout, rpt, opts)
}

func newTriageCmd(flags *rootFlags) *cobra.Command {
	var (
		onZeroItem  string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Bucket declared failures by priority",
		Long: `Read every expectation metadata file in the checkout and list
permanent crashes, failures, timeouts, and intermittents per
platform, ordered by bug-filing priority.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(flags)
			if err != nil {
				return err
			}
			return runTriage(triageParams{
				env:         e,
				onZeroItem:  onZeroItem,
				interactive: interactive,
				stdout:      os.Stdout,
			})
		},
	}

	cmd.Flags().StringVar(&onZeroItem, "on-zero-item", "hide",
		"what to do with empty buckets: show or hide")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing findings")

	return cmd
}
