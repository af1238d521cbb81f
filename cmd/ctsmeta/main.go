package main

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/unbound-force/ctsmeta/internal/diag"
	"github.com/unbound-force/ctsmeta/internal/report"
	"github.com/unbound-force/ctsmeta/internal/testpath"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	checkout string
	browser  string
	scopes   string
}

func main() {
	var flags rootFlags

	root := &cobra.Command{
		Use:   "ctsmeta",
		Short: "ctsmeta — WebGPU CTS expectation metadata maintenance",
		Long: `ctsmeta reconciles WPT expectation metadata against wptreport.json
execution reports, normalizes metadata files, and triages declared
failures by priority.`,
		Version: version,
	}

	root.PersistentFlags().StringVar(&flags.checkout, "checkout", "",
		"browser checkout root (default: discovered from the working directory)")
	root.PersistentFlags().StringVar(&flags.browser, "browser", "firefox",
		"browser the metadata belongs to: firefox or servo")
	root.PersistentFlags().StringVar(&flags.scopes, "scopes", "",
		"path to a YAML scope-root table (default: built-in table)")

	root.AddCommand(newUpdateExpectedCmd(&flags))
	root.AddCommand(newFixupCmd(&flags))
	root.AddCommand(newTriageCmd(&flags))
	root.AddCommand(newSchemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is the resolved shared state every subcommand needs.
type env struct {
	checkout string
	browser  testpath.Browser
	scopes   testpath.Scopes
}

// resolveEnv turns the persistent flags into a usable environment,
// discovering the checkout when none was given.
func resolveEnv(flags *rootFlags) (env, error) {
	browser, err := testpath.ParseBrowser(flags.browser)
	if err != nil {
		return env{}, err
	}

	scopes := testpath.DefaultScopes()
	if flags.scopes != "" {
		scopes, err = testpath.LoadScopes(flags.scopes)
		if err != nil {
			return env{}, err
		}
	}

	checkout := flags.checkout
	if checkout == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return env{}, fmt.Errorf("getting working directory: %w", err)
		}
		checkout, err = discoverCheckout(cwd)
		if err != nil {
			return env{}, err
		}
		logger.Info("discovered checkout", "dir", checkout)
	}

	return env{checkout: checkout, browser: browser, scopes: scopes}, nil
}

// logDiags forwards engine diagnostics through the CLI logger at
// their own levels.
func logDiags(diags []diag.Diagnostic) {
	for _, d := range diags {
		switch d.Level {
		case diag.LevelDebug:
			logger.Debug(d.Message)
		case diag.LevelInfo:
			logger.Info(d.Message)
		case diag.LevelWarn:
			logger.Warn(d.Message)
		default:
			logger.Error(d.Message)
		}
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for wptreport.json input",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
wptreport.json structure this tool consumes. Useful for validating
report files before processing them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}
