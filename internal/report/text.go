package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/ledger"
)

// TextOptions controls text output.
type TextOptions struct {
	// ShowClean lists files that need no follow-up. By default only
	// files with markers, leaks or errors get a section.
	ShowClean bool
}

// WriteText writes a run as human-readable styled text to the writer.
// Output uses lipgloss for color and formatting when the output is a
// TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, run *Run, opts TextOptions) error {
	s := DefaultStyles()
	if run == nil {
		run = &Run{}
	}

	first := true
	section := func() {
		if !first {
			fmt.Fprintln(w)
		}
		first = false
	}

	for _, res := range run.Files {
		if !res.Converted || (res.Clean() && !opts.ShowClean) {
			continue
		}
		section()
		writeOneResult(w, res, s)
	}
	for _, f := range run.Failures {
		section()
		fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", f.Path)))
		fmt.Fprintf(w, "    %s %s\n", s.Fail.Render("FAILED"), f.Error)
	}

	t := run.Totals()
	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d file(s) converted, %d test(s), %d marker(s), %d leak(s)",
		t.Converted, t.Tests, t.Markers, t.Leaks)))
	if t.Skipped+t.Unchanged+t.Failed > 0 {
		fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf(
			"%d without Pest constructs, %d unchanged, %d failed",
			t.Skipped, t.Unchanged, t.Failed)))
	}
	return nil
}

func writeOneResult(w io.Writer, res *convert.Result, s Styles) {
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", res.Path)))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    class %s, %d test(s)", res.Class, len(res.Tests))))

	if res.Clean() {
		fmt.Fprintf(w, "    %s\n", s.Pass.Render("CLEAN"))
		return
	}

	// Budget: 80 cols total; LINE=6, METHOD=26, MESSAGE gets the rest.
	const maxMessage = 40
	const maxMethod = 24
	if len(res.Markers) > 0 {
		rows := make([][]string, 0, len(res.Markers))
		for _, m := range res.Markers {
			rows = append(rows, []string{strconv.Itoa(m.Line), truncate(m.Method, maxMethod), truncate(m.Message, maxMessage)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, newTable(s, s.Marker, 2, "LINE", "METHOD", "MARKER").Rows(rows...))
	}
	if len(res.Leaks) > 0 {
		rows := make([][]string, 0, len(res.Leaks))
		for _, l := range res.Leaks {
			rows = append(rows, []string{truncate(l.Method, maxMethod), l.Call, truncate(l.Code, maxMessage)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, newTable(s, s.Leak, 1, "METHOD", "CALL", "CODE").Rows(rows...))
	}
	fmt.Fprintf(w, "    Summary: %s, %s\n",
		s.Marker.Render(fmt.Sprintf("%d marker(s)", len(res.Markers))),
		s.Leak.Render(fmt.Sprintf("%d leak(s)", len(res.Leaks))))
}

// newTable builds a bordered table whose highlight column uses accent.
func newTable(s Styles, accent lipgloss.Style, highlight int, headers ...string) *table.Table {
	return table.New().
		Width(76). // Leave 4 chars for left indent.
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == highlight {
				return accent
			}
			return s.TableCell
		}).
		Headers(headers...)
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}

// WriteStatus writes the ledger as a table with a per-status summary.
func WriteStatus(w io.Writer, entries []ledger.Entry) error {
	s := DefaultStyles()
	if len(entries) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No conversions recorded yet."))
		return nil
	}

	const maxPath = 36
	rows := make([][]string, 0, len(entries))
	counts := make(map[ledger.Status]int)
	for _, e := range entries {
		counts[e.Status]++
		rows = append(rows, []string{
			truncateLeft(e.SourcePath, maxPath),
			string(e.Status),
			strconv.Itoa(e.Tests),
			strconv.Itoa(e.Markers),
			strconv.Itoa(e.Leaks),
		})
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(rows) {
				return s.StatusStyle(ledger.Status(rows[row][1]))
			}
			return s.TableCell
		}).
		Headers("FILE", "STATUS", "TESTS", "MARKERS", "LEAKS").
		Rows(rows...)
	fmt.Fprintln(w, t)

	var parts []string
	for _, status := range []ledger.Status{ledger.StatusClean, ledger.StatusReview, ledger.StatusSkipped, ledger.StatusFailed} {
		if c, ok := counts[status]; ok {
			parts = append(parts, s.StatusStyle(status).Render(fmt.Sprintf("%s: %d", status, c)))
		}
	}
	fmt.Fprintf(w, "    Summary: %s\n", strings.Join(parts, ", "))
	return nil
}

// truncateLeft keeps the end of a path, which names the file.
func truncateLeft(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return "..." + text[len(text)-limit+3:]
}
