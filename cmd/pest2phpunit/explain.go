package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/config"
	"github.com/unbound-force/pest2phpunit/internal/expectation"
	"github.com/unbound-force/pest2phpunit/internal/mapping"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
	"github.com/unbound-force/pest2phpunit/internal/report"
	"github.com/unbound-force/pest2phpunit/internal/unwind"
)

// explainParams holds the parsed flags for the explain command.
type explainParams struct {
	expr   string
	file   string
	cfg    *config.Config
	stdout io.Writer
}

// segmentDump is the printable form of a chain segment.
type segmentDump struct {
	Kind string
	Name string
	Args []string
}

// groupDump is the printable form of a chain group.
type groupDump struct {
	Subject  string
	Segments []segmentDump
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
}

// runExplain is the extracted, testable body of the explain command.
// It shows how a single expectation chain is split and what it
// converts to.
func runExplain(p explainParams) error {
	opts, err := p.cfg.ConvertOptions(logger)
	if err != nil {
		return err
	}

	expr, err := phpast.ParseExpr(p.expr)
	if err != nil {
		return err
	}
	subject, segments, ok := chain.Flatten(expr, opts.EntryPoint)
	if !ok {
		return fmt.Errorf("%s is not an expectation chain: it must start with %s(<subject>)",
			strings.TrimSpace(p.expr), opts.EntryPoint)
	}

	reg := expectation.NewRegistry(opts.EntryPoint)
	if p.file != "" {
		root, _, err := phpast.ParseFile(p.file)
		if err != nil {
			return err
		}
		names := reg.CollectFromStatements(root.Stmts)
		logger.Debug("custom expectations registered", "file", p.file, "names", names)
	}

	u := unwind.New(reg, unwind.Options{EntryPoint: opts.EntryPoint, ClassNames: opts.ClassNames})
	s := report.DefaultStyles()

	// Step 1: Show the groups the chain splits into.
	var groups []groupDump
	for _, g := range chain.Split(subject, segments, u.Options().Join) {
		gd := groupDump{Subject: renderCode(g.Subject)}
		for _, seg := range g.Segments {
			sd := segmentDump{Kind: seg.Kind.String(), Name: seg.Name}
			for _, a := range seg.Args {
				sd.Args = append(sd.Args, renderCode(a))
			}
			gd.Segments = append(gd.Segments, sd)
		}
		groups = append(groups, gd)
	}
	fmt.Fprintln(p.stdout, s.Header.Render("=== Chain ==="))
	dumper.Fdump(p.stdout, groups)

	// Step 2: Show the converted statements.
	out, _ := u.Unwind(expr, false)
	fmt.Fprintln(p.stdout)
	fmt.Fprintln(p.stdout, s.Header.Render("=== PHPUnit ==="))
	for _, stmt := range out {
		for _, line := range statementLines(stmt) {
			if strings.HasPrefix(line, "// "+phpast.MarkerPrefix) {
				line = s.Marker.Render(line)
			}
			fmt.Fprintln(p.stdout, line)
		}
	}
	return nil
}

func renderCode(n ast.Vertex) string {
	return strings.TrimSpace(phpast.Render(n))
}

// statementLines prints a converted statement the way it appears in a
// generated class, without indentation.
func statementLines(stmt ast.Vertex) []string {
	if msg := phpast.MarkerText(stmt); msg != "" {
		return []string{"// " + phpast.MarkerPrefix + " " + msg}
	}
	if phpast.IsCommentOnly(stmt) {
		return phpast.LeadingComments(stmt)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(phpast.Render(stmt)), "\n") {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

func newExplainCmd(g *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "explain <expression>",
		Short: "Show how one expect() chain converts",
		Long: `Parse a single expect() chain, dump the groups and segments it
splits into, and print the PHPUnit statements it converts to.
Custom expectations registered with expect()->extend() in --file
are inlined.`,
		Example: `  pest2phpunit explain 'expect($user->name)->not->toBeEmpty()->toStartWith("A")'
  pest2phpunit explain --file tests/Pest.php 'expect($email)->toBeValidEmail()'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			return runExplain(explainParams{
				expr:   args[0],
				file:   file,
				cfg:    cfg,
				stdout: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "",
		"PHP file whose expect()->extend() registrations are used")

	return cmd
}

// rulesParams holds the parsed flags for the rules command.
type rulesParams struct {
	kind   string
	format string
	stdout io.Writer
}

// allRules lists the table-driven rules followed by the terminals that
// have a dedicated handler and the lifecycle hooks.
func allRules() []mapping.Rule {
	rules := mapping.Rules()
	for _, name := range unwind.SpecialTerminals() {
		rules = append(rules, mapping.Rule{Pest: name, PHPUnit: "dedicated handler", Kind: "special"})
	}
	for _, h := range mapping.Hooks() {
		rules = append(rules, mapping.Rule{Pest: h.Pest + "()", PHPUnit: h.Method + "()", Kind: "hook"})
	}
	return rules
}

// runRules is the extracted, testable body of the rules command.
func runRules(p rulesParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	var rules []mapping.Rule
	for _, r := range allRules() {
		if p.kind == "" || r.Kind == p.kind {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules of kind %q", p.kind)
	}

	if p.format == "json" {
		return writeIndentedJSON(p.stdout, rules)
	}

	s := report.DefaultStyles()
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{r.Kind, r.Pest, r.PHPUnit, r.Negated})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 0 {
				return s.Muted
			}
			return s.TableCell
		}).
		Headers("KIND", "PEST", "PHPUNIT", "NEGATED").
		Rows(rows...)

	fmt.Fprintln(p.stdout, t.String())
	fmt.Fprintln(p.stdout, s.SubHeader.Render(fmt.Sprintf("%d rule(s)", len(rules))))
	return nil
}

func newRulesCmd() *cobra.Command {
	var (
		kind   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the Pest to PHPUnit translation rules",
		Long: `List every expectation, format, key-case, predicate and hook
translation the converter knows, with the negated form where one
exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rulesParams{
				kind:   kind,
				format: format,
				stdout: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "",
		"only list rules of this kind (assertion, format, key-case, case, predicate, special, hook)")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}
