// Package convert rewrites a Pest test file into a PHPUnit test class.
//
// The file's top-level Pest calls (test, it, describe, hooks, datasets,
// uses) are collected into a suite, every body is run through the
// expectation unwinder, and the class is assembled as source text
// around the printed statements. Whatever could not be translated is
// reported as markers; expectation or Pest calls that survive
// conversion are reported as leaks.
package convert

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/pest2phpunit/internal/expectation"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
	"github.com/unbound-force/pest2phpunit/internal/unwind"
)

// DefaultBaseClass is the class generated tests extend when the file
// does not name one with uses() or pest()->extend().
const DefaultBaseClass = `PHPUnit\Framework\TestCase`

// Options configures a conversion.
type Options struct {
	// EntryPoint is the expectation function. Default "expect".
	EntryPoint string

	// BaseClass is the fully qualified default base class.
	BaseClass string

	// Namespace is declared when the file has no namespace of its own.
	// Empty means none.
	Namespace string

	// MethodStyle selects snake_case or camelCase method names.
	MethodStyle MethodStyle

	// Final declares generated classes final.
	Final bool

	// ClassNames decides whether toThrow() strings name classes.
	ClassNames unwind.ClassNamePolicy

	// Logger receives per-file debug details. If nil, nothing is
	// logged.
	Logger *charmlog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		EntryPoint:  "expect",
		BaseClass:   DefaultBaseClass,
		MethodStyle: SnakeCase,
		ClassNames:  unwind.DefaultClassNamePolicy(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EntryPoint == "" {
		o.EntryPoint = d.EntryPoint
	}
	if o.BaseClass == "" {
		o.BaseClass = d.BaseClass
	}
	if o.MethodStyle == "" {
		o.MethodStyle = d.MethodStyle
	}
	if o.ClassNames.Pattern == nil {
		o.ClassNames = d.ClassNames
	}
	if o.Logger == nil {
		o.Logger = charmlog.New(io.Discard)
	}
	return o
}

// Test summarizes one generated test method.
type Test struct {
	Description string `json:"description"`
	Method      string `json:"method"`
	Line        int    `json:"line"`
	Markers     int    `json:"markers"`
}

// Marker is a TODO comment left in the output for manual review.
type Marker struct {
	// Line is the 1-based line of the marker in the generated source.
	Line    int    `json:"line"`
	Method  string `json:"method,omitempty"`
	Message string `json:"message"`
}

// Leak is a Pest or expectation call that is still live in the
// generated class and would fail at runtime.
type Leak struct {
	Method string `json:"method,omitempty"`
	Call   string `json:"call"`
	Code   string `json:"code"`
}

// Result is the outcome of converting one file.
type Result struct {
	Path string `json:"path"`

	// Converted is false when the file holds no Pest constructs. Output
	// is then the unchanged source.
	Converted bool   `json:"converted"`
	Class     string `json:"class,omitempty"`
	Output    string `json:"-"`

	Tests              []Test   `json:"tests"`
	Hooks              []string `json:"hooks,omitempty"`
	Providers          []string `json:"providers,omitempty"`
	CustomExpectations []string `json:"custom_expectations,omitempty"`
	Markers            []Marker `json:"markers"`
	Leaks              []Leak   `json:"leaks"`
}

// Clean reports whether the conversion needs no manual follow-up.
func (r *Result) Clean() bool {
	return len(r.Markers) == 0 && len(r.Leaks) == 0
}

// File converts the Pest source of the file at path. path only names
// the file: the class name derives from it and errors mention it.
func File(path string, src []byte, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("file", path)

	// Step 1: Parse and find the top-level statements.
	root, err := phpast.Parse(src)
	if err != nil {
		var pe *phpast.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	namespace, stmts := topLevel(root)

	// Step 2: Register custom expectations before any body is read,
	// so tests may use expectations declared further down.
	reg := expectation.NewRegistry(opts.EntryPoint)
	if names := reg.CollectFromStatements(stmts); len(names) > 0 {
		logger.Debug("registered custom expectations", "names", strings.Join(names, ","))
	}

	// Step 3: Collect the suite.
	s := newSuite(opts, reg)
	s.namespace = namespace
	s.collect(stmts, scope{})
	if !s.pest {
		logger.Debug("no Pest constructs found")
		return &Result{Path: path, Output: string(src), Tests: []Test{}, Markers: []Marker{}, Leaks: []Leak{}}, nil
	}

	// Step 4: Convert bodies and assemble the class.
	u := unwind.New(reg, unwind.Options{EntryPoint: opts.EntryPoint, ClassNames: opts.ClassNames})
	cls := s.build(ClassName(path), u)
	out := cls.write()

	res := &Result{
		Path:               path,
		Converted:          true,
		Class:              cls.name,
		Output:             out,
		Hooks:              cls.hookNames(),
		Providers:          cls.providerNames(),
		CustomExpectations: reg.Names(),
		Markers:            scanMarkers(out),
		Leaks:              cls.leaks(s.pestNames()),
	}
	res.Tests = cls.testSummaries(res.Markers)
	if res.Markers == nil {
		res.Markers = []Marker{}
	}
	if res.Leaks == nil {
		res.Leaks = []Leak{}
	}
	logger.Debug("converted",
		"class", res.Class,
		"tests", len(res.Tests),
		"markers", len(res.Markers),
		"leaks", len(res.Leaks))
	return res, nil
}

// topLevel returns the declared namespace and the statements that make
// up the file body. Both the statement form (namespace X;) and the
// braced form are accepted; a braced namespace's statements are
// returned in its place.
func topLevel(root *ast.Root) (string, []ast.Vertex) {
	var namespace string
	var out []ast.Vertex
	for _, stmt := range root.Stmts {
		ns, ok := stmt.(*ast.StmtNamespace)
		if !ok {
			out = append(out, stmt)
			continue
		}
		if ns.Name != nil {
			namespace = phpast.NameOf(ns.Name)
		}
		out = append(out, ns.Stmts...)
	}
	return namespace, out
}

var functionLine = regexp.MustCompile(`\bfunction\s+(\w+)\s*\(`)

// scanMarkers finds every marker comment in the generated source and
// attributes it to the enclosing method.
func scanMarkers(out string) []Marker {
	var markers []Marker
	method := ""
	for i, line := range strings.Split(out, "\n") {
		if m := functionLine.FindStringSubmatch(line); m != nil {
			method = m[1]
		}
		rest := line
		for {
			idx := strings.Index(rest, phpast.MarkerPrefix)
			if idx < 0 {
				break
			}
			rest = rest[idx+len(phpast.MarkerPrefix):]
			msg := rest
			if next := strings.Index(msg, phpast.MarkerPrefix); next >= 0 {
				msg = msg[:next]
			}
			markers = append(markers, Marker{Line: i + 1, Method: method, Message: strings.TrimSpace(msg)})
		}
	}
	return markers
}
