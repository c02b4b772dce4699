// Package scaffold writes the default configuration file into a
// project directory.
package scaffold

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/pest2phpunit/internal/config"
)

// defaultConfig is the commented configuration written by init. It is
// stored without the leading dot that go:embed would skip.
//
//go:embed assets/pest2phpunit.yaml
var defaultConfig []byte

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing configuration file.
	Force bool

	// Version is embedded in the marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Action is what Run did with the configuration file.
type Action string

const (
	Created     Action = "created"
	Skipped     Action = "skipped"
	Overwritten Action = "overwritten"
)

// Result reports what the scaffold operation did.
type Result struct {
	// Path is the configuration file's location.
	Path   string
	Action Action
}

// Content returns the configuration file as init writes it, including
// the version marker line:
//
//	# scaffolded by pest2phpunit vX.Y.Z
func Content(version string) []byte {
	if version == "" {
		version = "dev"
	}
	marker := fmt.Sprintf("# scaffolded by pest2phpunit %s\n", version)
	return append([]byte(marker), defaultConfig...)
}

// Run writes the configuration file into the target directory. An
// existing file is left alone unless opts.Force is set.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if _, err := os.Stat(filepath.Join(opts.TargetDir, "composer.json")); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no composer.json found in current directory.")
		fmt.Fprintln(opts.Stdout, "pest2phpunit works best in a PHP project root.")
		fmt.Fprintln(opts.Stdout)
	}

	result := &Result{Path: filepath.Join(opts.TargetDir, config.FileName), Action: Created}
	if _, err := os.Stat(result.Path); err == nil {
		if !opts.Force {
			result.Action = Skipped
			printSummary(opts.Stdout, result)
			return result, nil
		}
		result.Action = Overwritten
	}

	if err := os.WriteFile(result.Path, Content(opts.Version), 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", config.FileName, err)
	}
	printSummary(opts.Stdout, result)
	return result, nil
}

func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "pest2phpunit initialized:")
	if r.Action == Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists, use --force to overwrite)\n", config.FileName)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", r.Action, config.FileName)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `pest2phpunit convert tests` to convert your Pest suite.")
}
