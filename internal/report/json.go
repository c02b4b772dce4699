// Package report provides output formatters for conversion runs in
// JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/pest2phpunit/internal/convert"
)

// Failure is a file that could not be converted.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Run is the outcome of one convert or check invocation.
type Run struct {
	// Files holds a result per file that was read and parsed.
	Files []*convert.Result

	// Unchanged lists files skipped because the ledger shows they were
	// already converted from the same content.
	Unchanged []string

	Failures []Failure
}

// Totals aggregates a run.
type Totals struct {
	Files     int `json:"files"`
	Converted int `json:"converted"`
	Skipped   int `json:"skipped"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Tests     int `json:"tests"`
	Markers   int `json:"markers"`
	Leaks     int `json:"leaks"`
}

// Totals counts files, tests, markers and leaks.
func (r *Run) Totals() Totals {
	t := Totals{
		Files:     len(r.Files) + len(r.Unchanged) + len(r.Failures),
		Unchanged: len(r.Unchanged),
		Failed:    len(r.Failures),
	}
	for _, f := range r.Files {
		if !f.Converted {
			t.Skipped++
			continue
		}
		t.Converted++
		t.Tests += len(f.Tests)
		t.Markers += len(f.Markers)
		t.Leaks += len(f.Leaks)
	}
	return t
}

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version   string            `json:"version"`
	Totals    Totals            `json:"totals"`
	Files     []*convert.Result `json:"files"`
	Unchanged []string          `json:"unchanged"`
	Failures  []Failure         `json:"failures"`
}

// WriteJSON writes a run as formatted JSON to the writer.
func WriteJSON(w io.Writer, run *Run, version string) error {
	if run == nil {
		run = &Run{}
	}
	report := JSONReport{
		Version:   version,
		Totals:    run.Totals(),
		Files:     run.Files,
		Unchanged: run.Unchanged,
		Failures:  run.Failures,
	}
	if report.Files == nil {
		report.Files = []*convert.Result{}
	}
	if report.Unchanged == nil {
		report.Unchanged = []string{}
	}
	if report.Failures == nil {
		report.Failures = []Failure{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
