package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/unbound-force/pest2phpunit/internal/config"
	"github.com/unbound-force/pest2phpunit/internal/ledger"
	"github.com/unbound-force/pest2phpunit/internal/report"
	"github.com/unbound-force/pest2phpunit/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

// globalFlags holds the flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "",
		"path to "+config.FileName+" (default: $"+config.EnvVar+" or ./"+config.FileName+")")
	fs.BoolVarP(&g.verbose, "verbose", "v", false,
		"log per-file details")
}

// loadConfig resolves the configuration for a command.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "entry_point", cfg.EntryPoint, "method_style", cfg.MethodStyle)
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "pest2phpunit",
		Short: "pest2phpunit converts Pest test files into PHPUnit test classes",
		Long: `pest2phpunit rewrites Pest test files (test(), it(), describe(),
hooks, datasets and expect() chains) into plain PHPUnit test classes.
Constructs without a faithful PHPUnit equivalent are left as
TODO(pest2phpunit) markers for manual review.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}
	g.register(root.PersistentFlags())

	root.AddCommand(newConvertCmd(g))
	root.AddCommand(newCheckCmd(g))
	root.AddCommand(newExplainCmd(g))
	root.AddCommand(newRulesCmd())
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newInitCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for conversion reports",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of convert --format=json and check --format=json output.
Useful for validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented " + config.FileName + " into the current directory",
		Long: `Write a commented ` + config.FileName + ` holding every setting with
its default value. Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			_, err = scaffold.Run(scaffold.Options{
				TargetDir: cwd,
				Force:     force,
				Version:   version,
				Stdout:    cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing configuration file")

	return cmd
}

// statusParams holds the parsed flags for the status command.
type statusParams struct {
	ledgerPath string
	file       string
	format     string
	stdout     io.Writer
}

// runStatus is the extracted, testable body of the status command.
func runStatus(ctx context.Context, p statusParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	if _, err := os.Stat(p.ledgerPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no ledger at %s: run convert with --out or --in-place first", p.ledgerPath)
		}
		return fmt.Errorf("checking ledger: %w", err)
	}

	led, err := ledger.Open(p.ledgerPath)
	if err != nil {
		return err
	}
	defer led.Close()

	if p.file != "" {
		return writeFileStatus(ctx, p, led)
	}

	entries, err := led.Entries(ctx)
	if err != nil {
		return err
	}
	if p.format == "json" {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return writeIndentedJSON(p.stdout, entries)
	}
	return report.WriteStatus(p.stdout, entries)
}

// writeFileStatus prints one file's entry together with its markers.
func writeFileStatus(ctx context.Context, p statusParams, led *ledger.Ledger) error {
	entry, ok, err := led.Lookup(ctx, p.file)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has not been converted", p.file)
	}
	markers, err := led.Markers(ctx, p.file)
	if err != nil {
		return err
	}

	if p.format == "json" {
		return writeIndentedJSON(p.stdout, struct {
			ledger.Entry
			MarkerList any `json:"marker_list"`
		}{entry, nonNil(markers)})
	}

	s := report.DefaultStyles()
	fmt.Fprintln(p.stdout, s.Header.Render(fmt.Sprintf("=== %s ===", entry.SourcePath)))
	fmt.Fprintf(p.stdout, "    status:  %s\n", s.StatusStyle(entry.Status).Render(string(entry.Status)))
	if entry.OutputPath != "" {
		fmt.Fprintf(p.stdout, "    output:  %s\n", entry.OutputPath)
	}
	fmt.Fprintf(p.stdout, "    tests:   %d\n", entry.Tests)
	if entry.Error != "" {
		fmt.Fprintf(p.stdout, "    error:   %s\n", entry.Error)
	}
	for _, m := range markers {
		fmt.Fprintf(p.stdout, "    %s %s:%d %s\n", s.Marker.Render("TODO"), entry.OutputPath, m.Line, m.Message)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status [file]",
		Short: "Show the conversion ledger",
		Long: `Show what earlier convert runs recorded: per-file status, test,
marker and leak counts. With a file argument, list that file's
markers with their line in the generated output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			p := statusParams{
				ledgerPath: cfg.Ledger.Path,
				format:     format,
				stdout:     cmd.OutOrStdout(),
			}
			if len(args) == 1 {
				p.file = args[0]
			}
			return runStatus(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}
