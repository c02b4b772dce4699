package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/unbound-force/pest2phpunit/internal/config"
	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/ledger"
	"github.com/unbound-force/pest2phpunit/internal/report"
	"github.com/unbound-force/pest2phpunit/internal/scan"
)

// convertParams holds the parsed flags for the convert command.
type convertParams struct {
	roots       []string
	cfg         *config.Config
	outDir      string
	inPlace     bool
	force       bool
	noLedger    bool
	jobs        int
	format      string
	showClean   bool
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

// writes reports whether the run writes generated files.
func (p convertParams) writes() bool {
	return p.outDir != "" || p.inPlace
}

// outputPath returns where the class generated for f is written.
func (p convertParams) outputPath(f scan.File, res *convert.Result) string {
	if p.inPlace {
		return f.Path
	}
	dir := filepath.Dir(filepath.FromSlash(f.Rel))
	return filepath.Join(p.outDir, dir, res.Class+".php")
}

// runConvert is the extracted, testable body of the convert command.
func runConvert(ctx context.Context, p convertParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	if p.outDir != "" && p.inPlace {
		return errors.New("--out and --in-place are mutually exclusive")
	}

	opts, err := p.cfg.ConvertOptions(logger)
	if err != nil {
		return err
	}

	files, err := scan.Paths(ctx, p.roots, scan.Options{Config: p.cfg})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no PHP files found", "paths", p.roots)
	}

	// The ledger tracks written files only; a dry run must not mark
	// anything as up to date.
	var led *ledger.Ledger
	if p.writes() && !p.noLedger {
		led, err = ledger.Open(p.cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer led.Close()
	} else if !p.writes() {
		logger.Info("dry run: no files written (use --out or --in-place)")
	}

	logger.Info("converting", "files", len(files), "jobs", workerCount(p.jobs))
	run, err := convertFiles(ctx, files, opts, led, p)
	if err != nil {
		return err
	}

	t := run.Totals()
	logger.Info("conversion complete", "converted", t.Converted, "markers", t.Markers, "leaks", t.Leaks, "failed", t.Failed)

	if p.interactive {
		return runInteractiveMarkers(run)
	}
	return writeRun(p.stdout, p.format, run, p.showClean)
}

// writeRun outputs the run report in the requested format.
func writeRun(w io.Writer, format string, run *report.Run, showClean bool) error {
	switch format {
	case "json":
		return report.WriteJSON(w, run, version)
	default:
		return report.WriteText(w, run, report.TextOptions{ShowClean: showClean})
	}
}

// pending is a file that needs converting.
type pending struct {
	file scan.File
	src  []byte
	hash string
}

// outcome is the result of converting one pending file.
type outcome struct {
	pending
	res *convert.Result
	err error
}

// convertFiles reads, converts and (when the params ask for it) writes
// every file. Files unchanged since the ledger last saw them are
// skipped unless force is set. The ledger and the file system are only
// touched from the calling goroutine.
func convertFiles(ctx context.Context, files []scan.File, opts convert.Options, led *ledger.Ledger, p convertParams) (*report.Run, error) {
	run := &report.Run{}

	// Step 1: Read sources and drop unchanged files.
	var work []pending
	for _, f := range files {
		src, err := os.ReadFile(f.Path)
		if err != nil {
			run.Failures = append(run.Failures, report.Failure{Path: f.Path, Error: err.Error()})
			continue
		}
		item := pending{file: f, src: src, hash: ledger.Hash(src)}
		if led != nil && !p.force {
			unchanged, err := led.Unchanged(ctx, f.Path, item.hash)
			if err != nil {
				return nil, err
			}
			if unchanged {
				logger.Debug("unchanged since last run", "file", f.Path)
				run.Unchanged = append(run.Unchanged, f.Path)
				continue
			}
		}
		work = append(work, item)
	}

	// Step 2: Convert in parallel.
	outcomes := convertParallel(ctx, work, opts, p.jobs)

	// Step 3: Write outputs and record them, in input order.
	for _, o := range outcomes {
		if o.err != nil {
			run.Failures = append(run.Failures, report.Failure{Path: o.file.Path, Error: o.err.Error()})
			if led != nil {
				if err := led.RecordFailure(ctx, o.file.Path, o.err); err != nil {
					return nil, err
				}
			}
			continue
		}
		run.Files = append(run.Files, o.res)
		if !p.writes() {
			continue
		}
		if !o.res.Converted {
			if led != nil {
				if err := led.Record(ctx, o.file.Path, o.hash, "", o.res); err != nil {
					return nil, err
				}
			}
			continue
		}

		dest := p.outputPath(o.file, o.res)
		if err := writeOutput(dest, o.res.Output); err != nil {
			run.Failures = append(run.Failures, report.Failure{Path: o.file.Path, Error: err.Error()})
			if led != nil {
				if err := led.RecordFailure(ctx, o.file.Path, err); err != nil {
					return nil, err
				}
			}
			continue
		}
		logger.Debug("wrote class", "file", o.file.Path, "output", dest, "class", o.res.Class)
		if led != nil {
			if err := led.Record(ctx, o.file.Path, o.hash, dest, o.res); err != nil {
				return nil, err
			}
		}
	}
	return run, nil
}

// workerCount resolves the --jobs flag.
func workerCount(jobs int) int {
	if jobs < 1 {
		return runtime.NumCPU()
	}
	return jobs
}

// convertParallel converts work on a bounded pool of goroutines. Each
// conversion builds its own registry and unwinder, so workers share
// nothing but the read-only options. Outcomes keep the order of work.
func convertParallel(ctx context.Context, work []pending, opts convert.Options, jobs int) []outcome {
	out := make([]outcome, len(work))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for range min(workerCount(jobs), len(work)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				item := work[i]
				res, err := convert.File(item.file.Path, item.src, opts)
				out[i] = outcome{pending: item, res: res, err: err}
			}
		}()
	}

	i := 0
feed:
	for ; i < len(work); i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for ; i < len(work); i++ {
		out[i] = outcome{pending: work[i], err: fmt.Errorf("converting %s: %w", work[i].file.Path, ctx.Err())}
	}
	return out
}

func writeOutput(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func newConvertCmd(g *globalFlags) *cobra.Command {
	var (
		outDir      string
		inPlace     bool
		force       bool
		noLedger    bool
		jobs        int
		format      string
		showClean   bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert Pest test files into PHPUnit test classes",
		Long: `Convert every Pest file under the given paths (default: tests)
into a PHPUnit test class. Without --out or --in-place nothing is
written and only the report is printed.

Runs that write files record their results in a SQLite ledger so
later runs skip files whose source has not changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"tests"}
			}
			return runConvert(cmd.Context(), convertParams{
				roots:       args,
				cfg:         cfg,
				outDir:      outDir,
				inPlace:     inPlace,
				force:       force,
				noLedger:    noLedger,
				jobs:        jobs,
				format:      format,
				showClean:   showClean,
				interactive: interactive,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "",
		"write generated classes below this directory")
	cmd.Flags().BoolVar(&inPlace, "in-place", false,
		"overwrite the Pest files with the generated classes")
	cmd.Flags().BoolVar(&force, "force", false,
		"convert files the ledger reports as unchanged")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false,
		"do not read or update the conversion ledger")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"number of files converted in parallel (default: number of CPUs)")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVar(&showClean, "show-clean", false,
		"list files that need no follow-up in the text report")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing markers")

	return cmd
}

// checkParams holds the parsed flags for the check command.
type checkParams struct {
	roots  []string
	cfg    *config.Config
	strict bool
	jobs   int
	format string
	stdout io.Writer
	stderr io.Writer
}

// runCheck is the extracted, testable body of the check command. It
// converts without writing and fails when the output would not run.
func runCheck(ctx context.Context, p checkParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	opts, err := p.cfg.ConvertOptions(logger)
	if err != nil {
		return err
	}
	files, err := scan.Paths(ctx, p.roots, scan.Options{Config: p.cfg})
	if err != nil {
		return err
	}

	logger.Info("checking", "files", len(files))
	run, err := convertFiles(ctx, files, opts, nil, convertParams{jobs: p.jobs})
	if err != nil {
		return err
	}

	if err := writeRun(p.stdout, p.format, run, false); err != nil {
		return err
	}

	totals := run.Totals()
	printCheckSummary(p.stderr, totals, p.strict)
	return checkThresholds(totals, p.strict)
}

// printCheckSummary prints a one-line CI summary.
func printCheckSummary(w io.Writer, t report.Totals, strict bool) {
	status := func(fail bool) string {
		if fail {
			return "FAIL"
		}
		return "PASS"
	}

	parts := []string{
		fmt.Sprintf("Failed: %d (%s)", t.Failed, status(t.Failed > 0)),
		fmt.Sprintf("Leaks: %d (%s)", t.Leaks, status(t.Leaks > 0)),
	}
	if strict {
		parts = append(parts, fmt.Sprintf("Markers: %d (%s)", t.Markers, status(t.Markers > 0)))
	} else {
		parts = append(parts, fmt.Sprintf("Markers: %d", t.Markers))
	}
	fmt.Fprintln(w, strings.Join(parts, " | "))
}

// checkThresholds returns an error if the converted suite would not
// run as is. Markers only count with strict.
func checkThresholds(t report.Totals, strict bool) error {
	if t.Failed > 0 {
		return fmt.Errorf("%d file(s) could not be converted", t.Failed)
	}
	if t.Leaks > 0 {
		return fmt.Errorf("%d Pest call(s) would remain in the generated classes", t.Leaks)
	}
	if strict && t.Markers > 0 {
		return fmt.Errorf("%d marker(s) need manual review", t.Markers)
	}
	return nil
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var (
		strict bool
		jobs   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check that a Pest suite converts cleanly",
		Long: `Convert every Pest file under the given paths (default: tests)
without writing anything, and fail if a file cannot be parsed or
a generated class would still call Pest functions. With --strict,
markers left for manual review fail the check too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"tests"}
			}
			return runCheck(cmd.Context(), checkParams{
				roots:  args,
				cfg:    cfg,
				strict: strict,
				jobs:   jobs,
				format: format,
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false,
		"fail when markers are left for manual review")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"number of files converted in parallel (default: number of CPUs)")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}
