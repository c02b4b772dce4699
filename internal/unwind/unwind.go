// Package unwind converts Pest expectation chains into PHPUnit
// assertion statements.
//
// A chain is flattened into segments, split into groups at ->and(),
// and each group's segments are walked in order against an accumulator
// that tracks the current subject, pending negation, each-mode and
// pass-through assertion chaining. Anything without a safe translation
// becomes a marker statement at the exact point of the gap.
package unwind

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/expectation"
	"github.com/unbound-force/pest2phpunit/internal/mapping"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
	"github.com/unbound-force/pest2phpunit/internal/walk"
)

// Options configures an Unwinder. Zero fields take the defaults.
type Options struct {
	// EntryPoint is the function that starts a chain. Default "expect".
	EntryPoint string

	// Join is the method that starts a new group against a new
	// subject. Default "and".
	Join string

	// AssertPrefix marks methods that are called on the subject as-is
	// (assertOk, assertSee...). Default "assert".
	AssertPrefix string

	// TerminalPrefix marks assertion-shaped names. Unknown names with
	// this prefix become markers instead of accessors. Default "to".
	TerminalPrefix string

	// ClassNames decides whether a toThrow() string names a class.
	ClassNames ClassNamePolicy
}

// DefaultOptions returns the Pest defaults.
func DefaultOptions() Options {
	return Options{
		EntryPoint:     "expect",
		Join:           "and",
		AssertPrefix:   "assert",
		TerminalPrefix: "to",
		ClassNames:     DefaultClassNamePolicy(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EntryPoint == "" {
		o.EntryPoint = d.EntryPoint
	}
	if o.Join == "" {
		o.Join = d.Join
	}
	if o.AssertPrefix == "" {
		o.AssertPrefix = d.AssertPrefix
	}
	if o.TerminalPrefix == "" {
		o.TerminalPrefix = d.TerminalPrefix
	}
	if o.ClassNames.Pattern == nil {
		o.ClassNames = d.ClassNames
	}
	return o
}

// Unwinder converts chains for one file. It is not safe for concurrent
// use: the registry and the loop-variable counter belong to one file.
type Unwinder struct {
	opts     Options
	registry *expectation.Registry
	inliner  *expectation.Inliner
	names    map[string]int
}

// New returns an Unwinder that dispatches custom expectations to reg.
// A nil registry means no custom expectations.
func New(reg *expectation.Registry, opts Options) *Unwinder {
	opts = opts.withDefaults()
	if reg == nil {
		reg = expectation.NewRegistry(opts.EntryPoint)
	}
	u := &Unwinder{
		opts:     opts,
		registry: reg,
		names:    make(map[string]int),
	}
	u.inliner = expectation.NewInliner(u, opts.EntryPoint)
	return u
}

// Options returns the effective options.
func (u *Unwinder) Options() Options {
	return u.opts
}

// Unwind converts one expression. ok is false when expr is not a chain
// rooted at the entry point, or the entry point has no subject; the
// caller then leaves the expression alone.
//
// negated applies to the first group only. It is set when a negated
// custom expectation re-enters the unwinder.
func (u *Unwinder) Unwind(expr ast.Vertex, negated bool) ([]ast.Vertex, bool) {
	subject, segments, ok := chain.Flatten(expr, u.opts.EntryPoint)
	if !ok {
		return nil, false
	}
	var out []ast.Vertex
	for i, g := range chain.Split(subject, segments, u.opts.Join) {
		out = append(out, u.walkGroup(g, negated && i == 0)...)
	}
	return out, true
}

// Statement converts an expression statement holding a chain. Comments
// written above the chain are kept above its replacement.
func (u *Unwinder) Statement(stmt ast.Vertex) ([]ast.Vertex, bool) {
	es, ok := stmt.(*ast.StmtExpression)
	if !ok {
		return nil, false
	}
	out, ok := u.Unwind(es.Expr, false)
	if !ok {
		return nil, false
	}
	if comments := phpast.LeadingComments(stmt); len(comments) > 0 {
		out = append([]ast.Vertex{phpast.Comment(comments)}, out...)
	}
	return out, true
}

// Block converts every chain in stmts, at any depth.
func (u *Unwinder) Block(stmts []ast.Vertex) []ast.Vertex {
	return walk.Statements(stmts, u.Statement)
}

// state is the accumulator of one group walk.
type state struct {
	current  ast.Vertex
	negated  bool
	each     bool
	chaining bool
	out      []ast.Vertex
}

// take consumes the pending negation.
func (s *state) take() bool {
	n := s.negated
	s.negated = false
	return n
}

// subject returns a fresh copy of the current subject.
func (s *state) subject() ast.Vertex {
	return phpast.Clone(s.current)
}

func (s *state) add(stmts ...ast.Vertex) {
	s.out = append(s.out, stmts...)
}

func (s *state) mark(format string, args ...any) {
	s.out = append(s.out, phpast.Marker(fmt.Sprintf(format, args...)))
}

func (u *Unwinder) walkGroup(g chain.Group, negated bool) []ast.Vertex {
	s := &state{current: g.Subject, negated: negated}
	for _, seg := range g.Segments {
		u.step(s, seg)
	}
	if s.chaining {
		s.add(phpast.Stmt(s.current))
	}
	return s.out
}

// step handles one segment. The order of the checks is significant:
// modifiers, special terminals, the generic table, custom expectations,
// pass-through assertions, unknown terminals, then plain accessors.
func (u *Unwinder) step(s *state, seg chain.Segment) {
	if u.modifier(s, seg) {
		return
	}
	if seg.Kind == chain.MethodCall {
		if u.terminal(s, seg) {
			return
		}
		if def, ok := u.registry.Lookup(seg.Name); ok {
			u.custom(s, seg, def)
			return
		}
		if hasWordPrefix(seg.Name, u.opts.AssertPrefix) {
			u.passThrough(s, seg)
			return
		}
		if hasWordPrefix(seg.Name, u.opts.TerminalPrefix) {
			s.take()
			s.mark("no PHPUnit equivalent, unknown expectation %s()", seg.Name)
			return
		}
	}
	s.current = chain.Fold(s.current, seg)
}

// modifier handles segments that change how the rest of the group is
// read. It reports whether seg was consumed.
func (u *Unwinder) modifier(s *state, seg chain.Segment) bool {
	kind := mapping.ClassifyModifier(seg.Name)
	if seg.Kind == chain.Property && kind != mapping.ModNot && kind != mapping.ModEach {
		// ->json or ->match on a subject object is an accessor.
		return false
	}
	switch kind {
	case mapping.ModNot:
		s.negated = !s.negated
	case mapping.ModEach:
		if len(seg.Args) > 0 {
			s.mark("each() with a callback needs manual conversion")
			return true
		}
		s.each = true
	case mapping.ModDrop:
	case mapping.ModUnsupported:
		s.mark("%s() has no PHPUnit equivalent and needs manual conversion", seg.Name)
	case mapping.ModTap:
		u.tap(s, seg)
	case mapping.ModPipe:
		fn := seg.Arg(0)
		if fn == nil {
			s.mark("pipe() without a callable needs manual conversion")
			return true
		}
		s.current = phpast.Invoke(phpast.Clone(fn), s.subject())
	case mapping.ModJSON:
		s.add(phpast.Assert("assertJson", s.subject()))
		s.current = phpast.Call("json_decode", s.subject(), phpast.Const("true"))
	default:
		return false
	}
	return true
}

// passThrough chains an assert* method onto the subject. There is no
// negated form of an arbitrary assertion, and in each-mode the method
// runs against every element instead.
func (u *Unwinder) passThrough(s *state, seg chain.Segment) {
	if s.take() {
		s.mark("no PHPUnit equivalent for not->%s()", seg.Name)
		return
	}
	if s.each {
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			return []ast.Vertex{phpast.Stmt(chain.Fold(subject, seg))}
		})
		return
	}
	s.current = chain.Fold(s.current, seg)
	s.chaining = true
}

// tap runs the callback's body against the subject without replacing
// it. A closure's parameter is bound to the subject and its body is
// spliced in with nested chains converted; any other callable is
// invoked with the subject.
func (u *Unwinder) tap(s *state, seg chain.Segment) {
	fn := seg.Arg(0)
	switch {
	case fn == nil:
		s.mark("tap() without a callback needs manual conversion")
		return
	case !phpast.IsClosure(fn):
		s.add(phpast.Stmt(phpast.Invoke(phpast.Clone(fn), s.subject())))
		return
	}

	if params := phpast.ClosureParams(fn); len(params) > 0 {
		if name := phpast.ParamName(params[0]); name != "" {
			s.add(phpast.Assign(phpast.Var(name), s.subject()))
		}
	}

	body, arrow := phpast.ClosureBody(fn)
	body = phpast.CloneAll(body)
	if arrow {
		// The arrow function's value is discarded.
		body = []ast.Vertex{phpast.Stmt(body[0].(*ast.StmtReturn).Expr)}
	}
	for i, stmt := range body {
		body[i] = expectation.Substitute(stmt, s.current, nil)
	}
	s.add(u.Block(body)...)
}

// custom inlines a registered custom expectation.
func (u *Unwinder) custom(s *state, seg chain.Segment, def *expectation.Definition) {
	negated := s.take()
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return u.inliner.Inline(def, subject, seg.Args, negated)
	})
}

// emit adds the statements built for the subject. In each-mode they go
// inside a loop over the subject, against a fresh element variable.
func (u *Unwinder) emit(s *state, build func(subject ast.Vertex) []ast.Vertex) {
	if !s.each {
		s.add(build(s.subject())...)
		return
	}
	item := u.fresh("eachItem")
	s.add(phpast.Foreach(s.subject(), nil, phpast.Var(item), build(phpast.Var(item))...))
}

// fresh returns a variable name not yet handed out by this Unwinder:
// base, base2, base3...
func (u *Unwinder) fresh(base string) string {
	u.names[base]++
	if n := u.names[base]; n > 1 {
		return base + strconv.Itoa(n)
	}
	return base
}

// hasWordPrefix reports whether name is prefix followed by an upper
// case letter, the way toBe and assertOk are built.
func hasWordPrefix(name, prefix string) bool {
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return unicode.IsUpper(r)
}
