package convert

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/expectation"
	"github.com/unbound-force/pest2phpunit/internal/mapping"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// suite is everything a Pest file declares, before any body is
// converted.
type suite struct {
	opts Options
	reg  *expectation.Registry

	// pest is set once any Pest construct is seen.
	pest bool

	namespace string
	declares  []ast.Vertex
	imports   []ast.Vertex
	preamble  []ast.Vertex

	// base is the base class named by uses() or pest()->extend(), as
	// written.
	base       string
	traits     []string
	classAttrs []string

	// notes become marker comments at the top of the class body.
	notes []string

	hooks    map[string][]ast.Vertex
	tests    []*testCase
	datasets map[string]ast.Vertex
}

// testCase is one test() or it() call.
type testCase struct {
	// description includes enclosing describe() names and, for it(),
	// the "it" prefix.
	description string
	line        int
	comments    []string
	params      []ast.Vertex
	body        []ast.Vertex
	trailing    []string

	// before and after are the describe-level beforeEach and afterEach
	// bodies that wrap this test.
	before []ast.Vertex
	after  []ast.Vertex

	// mods are the chained test modifiers, describe-level ones first.
	mods []chain.Segment

	// todo is set for tests without a body.
	todo  bool
	notes []string

	method string
}

// scope is the describe() nesting a statement is read in.
type scope struct {
	prefix []string
	before []ast.Vertex
	after  []ast.Vertex
	mods   []chain.Segment
}

func (sc scope) nested() bool {
	return len(sc.prefix) > 0
}

// call is a statement made of a function call with chained methods:
// test('x', fn)->with([...])->skip().
type call struct {
	name string
	args []ast.Vertex
	mods []chain.Segment
}

func (c call) arg(i int) ast.Vertex {
	if i < len(c.args) {
		return c.args[i]
	}
	return nil
}

func asCall(stmt ast.Vertex) (call, bool) {
	es, ok := stmt.(*ast.StmtExpression)
	if !ok {
		return call{}, false
	}
	root, segs := chain.Peel(es.Expr)
	fc, ok := root.(*ast.ExprFunctionCall)
	if !ok {
		return call{}, false
	}
	name := phpast.FuncName(fc)
	if name == "" {
		return call{}, false
	}
	return call{name: name, args: phpast.ArgExprs(fc.Args), mods: segs}, true
}

func newSuite(opts Options, reg *expectation.Registry) *suite {
	return &suite{
		opts:     opts,
		reg:      reg,
		hooks:    make(map[string][]ast.Vertex),
		datasets: make(map[string]ast.Vertex),
	}
}

// pestNames are the functions that must not survive conversion.
func (s *suite) pestNames() map[string]bool {
	names := map[string]bool{
		s.opts.EntryPoint: true,
		"test":            true,
		"it":              true,
		"describe":        true,
		"dataset":         true,
		"uses":            true,
		"pest":            true,
	}
	for _, h := range mapping.Hooks() {
		names[h.Pest] = true
	}
	return names
}

// collect reads stmts in scope sc.
func (s *suite) collect(stmts []ast.Vertex, sc scope) {
	for _, stmt := range stmts {
		if s.reg.IsRegistration(stmt) {
			s.pest = true
			continue
		}
		if c, ok := asCall(stmt); ok && s.pestCall(stmt, c, sc) {
			s.pest = true
			continue
		}
		s.other(stmt, sc)
	}
}

// pestCall handles a recognized Pest call and reports whether it was
// one.
func (s *suite) pestCall(stmt ast.Vertex, c call, sc scope) bool {
	switch c.name {
	case "test", "it":
		if len(c.args) == 0 {
			return false
		}
		s.addTest(stmt, c, sc)
	case "describe":
		if len(c.args) == 0 {
			return false
		}
		s.describe(c, sc)
	case "uses":
		s.uses(c.args)
		s.classMods(c.mods, sc)
	case "pest":
		s.classMods(c.mods, sc)
	case "dataset":
		s.dataset(c)
	case "covers", "coversClass", "coversFunction", "coversNothing", "mutates":
		s.covers(c.name, c.args)
	default:
		if _, ok := mapping.LookupHook(c.name); ok {
			s.addHook(c.name, c.arg(0), sc)
			return true
		}
		return false
	}
	return true
}

// other keeps a statement that is not a Pest call.
func (s *suite) other(stmt ast.Vertex, sc scope) {
	switch {
	case isDeclare(stmt) && !sc.nested():
		s.declares = append(s.declares, stmt)
	case isUse(stmt) && !sc.nested():
		s.imports = append(s.imports, stmt)
	case isEmpty(stmt):
	default:
		if sc.nested() {
			s.note("a statement inside describe('%s') was moved to file level", strings.Join(sc.prefix, " "))
		}
		s.preamble = append(s.preamble, stmt)
	}
}

func (s *suite) note(format string, args ...any) {
	s.notes = append(s.notes, fmt.Sprintf(format, args...))
}

func (s *suite) addTest(stmt ast.Vertex, c call, sc scope) {
	desc := description(c.arg(0))
	if c.name == "it" {
		desc = "it " + desc
	}
	tc := &testCase{
		description: strings.Join(append(append([]string(nil), sc.prefix...), desc), " "),
		line:        line(stmt),
		comments:    phpast.LeadingComments(stmt),
		before:      phpast.CloneAll(sc.before),
		after:       phpast.CloneAll(sc.after),
		mods:        append(append([]chain.Segment(nil), sc.mods...), c.mods...),
	}

	switch fn := c.arg(1); {
	case fn == nil:
		tc.todo = true
	case phpast.IsClosure(fn):
		tc.params = phpast.ClosureParams(fn)
		tc.body = closureStmts(fn)
		tc.trailing = phpast.TrailingComments(fn)
		if captures(fn) {
			tc.notes = append(tc.notes, "variables captured with use() are not available in a test method")
		}
	default:
		tc.notes = append(tc.notes, "the test body is not a closure and is called as a callable")
		tc.body = []ast.Vertex{phpast.Stmt(phpast.Invoke(phpast.Clone(fn)))}
	}
	s.tests = append(s.tests, tc)
}

// describe flattens a describe() block. Its beforeEach and afterEach
// hooks wrap every test inside it, wherever they are declared.
func (s *suite) describe(c call, sc scope) {
	inner := scope{
		prefix: append(append([]string(nil), sc.prefix...), description(c.arg(0))),
		before: append([]ast.Vertex(nil), sc.before...),
		after:  append([]ast.Vertex(nil), sc.after...),
		mods:   append(append([]chain.Segment(nil), sc.mods...), c.mods...),
	}

	fn := c.arg(1)
	if fn == nil || !phpast.IsClosure(fn) {
		s.note("describe('%s') has no closure body", strings.Join(inner.prefix, " "))
		return
	}

	var rest []ast.Vertex
	for _, stmt := range closureStmts(fn) {
		hc, ok := asCall(stmt)
		switch {
		case ok && hc.name == "beforeEach":
			inner.before = append(inner.before, hookStmts(hc.arg(0))...)
		case ok && hc.name == "afterEach":
			// Inner teardown runs before the enclosing one.
			inner.after = append(hookStmts(hc.arg(0)), inner.after...)
		default:
			rest = append(rest, stmt)
		}
	}
	s.collect(rest, inner)
}

func (s *suite) addHook(name string, fn ast.Vertex, sc scope) {
	h, _ := mapping.LookupHook(name)
	body := hookStmts(fn)
	if h.Static && usesThis(body) {
		s.note("%s() uses $this, which is not available in the static %s()", name, h.Method)
	}
	if sc.nested() {
		s.note("%s() inside describe('%s') now runs for the whole class", name, strings.Join(sc.prefix, " "))
	}
	s.hooks[name] = append(s.hooks[name], body...)
}

// uses reads the classes given to uses() or pest()->extend()/use().
// A class named *TestCase becomes the base class; the rest are traits.
func (s *suite) uses(args []ast.Vertex) {
	for _, a := range args {
		name, ok := className(a)
		if !ok {
			s.note("cannot resolve the class %s given to uses()", strings.TrimSpace(phpast.Render(a)))
			continue
		}
		switch {
		case !strings.HasSuffix(name, "TestCase"):
			s.traits = append(s.traits, name)
		case s.base == "":
			s.base = name
		default:
			s.note("%s cannot be a second base class of this test", name)
		}
	}
}

// classMods handles the methods chained on uses() and pest().
func (s *suite) classMods(mods []chain.Segment, sc scope) {
	for _, m := range mods {
		switch m.Name {
		case "in":
			// Directory scoping is meaningless for a single class.
		case "extend", "use":
			s.uses(m.Args)
		case "group":
			s.classAttrs = append(s.classAttrs, groupAttrs(m.Args)...)
		default:
			if _, ok := mapping.LookupHook(m.Name); ok {
				s.addHook(m.Name, m.Arg(0), sc)
				continue
			}
			s.note("%s() on uses() has no PHPUnit equivalent", m.Name)
		}
	}
}

func (s *suite) dataset(c call) {
	name, ok := phpast.StringValue(c.arg(0))
	if !ok || c.arg(1) == nil {
		s.note("dataset() needs a literal name and a value")
		return
	}
	s.datasets[name] = c.arg(1)
}

func (s *suite) covers(fn string, args []ast.Vertex) {
	switch fn {
	case "mutates":
		return
	case "coversNothing":
		s.classAttrs = append(s.classAttrs, "#[CoversNothing]")
		return
	}
	for _, a := range args {
		if name, ok := phpast.StringValue(a); ok && fn != "coversClass" {
			s.classAttrs = append(s.classAttrs, fmt.Sprintf("#[CoversFunction(%s)]", phpast.Quote(name)))
			continue
		}
		s.classAttrs = append(s.classAttrs, fmt.Sprintf("#[CoversClass(%s)]", strings.TrimSpace(phpast.Render(a))))
	}
}

// description returns the literal text of a test or describe name, or
// its source for computed names.
func description(n ast.Vertex) string {
	if n == nil {
		return ""
	}
	if s, ok := phpast.StringValue(n); ok {
		return s
	}
	return strings.TrimSpace(phpast.Render(n))
}

// closureStmts returns the body of a closure. An arrow function's
// expression becomes a plain statement; its value is never used.
func closureStmts(fn ast.Vertex) []ast.Vertex {
	body, arrow := phpast.ClosureBody(fn)
	if arrow && len(body) == 1 {
		if ret, ok := body[0].(*ast.StmtReturn); ok {
			return []ast.Vertex{phpast.Stmt(ret.Expr)}
		}
	}
	return body
}

// hookStmts returns a hook's body. A non-closure callable is called.
func hookStmts(fn ast.Vertex) []ast.Vertex {
	switch {
	case fn == nil:
		return nil
	case phpast.IsClosure(fn):
		return closureStmts(fn)
	}
	return []ast.Vertex{phpast.Stmt(phpast.Invoke(phpast.Clone(fn)))}
}

func captures(fn ast.Vertex) bool {
	c, ok := fn.(*ast.ExprClosure)
	return ok && len(c.Uses) > 0
}

func usesThis(stmts []ast.Vertex) bool {
	found := false
	for _, stmt := range stmts {
		phpast.Inspect(stmt, func(n ast.Vertex) bool {
			if phpast.IsThis(n) {
				found = true
			}
			return !found
		})
	}
	return found
}

// className resolves a class argument: Foo::class or 'Foo'.
func className(n ast.Vertex) (string, bool) {
	if cc, ok := n.(*ast.ExprClassConstFetch); ok && strings.EqualFold(phpast.NameOf(cc.Const), "class") {
		return phpast.NameOf(cc.Class), true
	}
	return phpast.StringValue(n)
}

func groupAttrs(args []ast.Vertex) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if name, ok := phpast.StringValue(a); ok {
			out = append(out, fmt.Sprintf("#[Group(%s)]", phpast.Quote(name)))
			continue
		}
		out = append(out, fmt.Sprintf("#[Group(%s)]", strings.TrimSpace(phpast.Render(a))))
	}
	return out
}

func isDeclare(stmt ast.Vertex) bool {
	_, ok := stmt.(*ast.StmtDeclare)
	return ok
}

// isUse reports whether stmt imports names (use, use function, group
// use).
func isUse(stmt ast.Vertex) bool {
	t := reflect.TypeOf(stmt)
	if t == nil || t.Kind() != reflect.Ptr {
		return false
	}
	name := t.Elem().Name()
	return strings.HasPrefix(name, "StmtUse") || strings.HasPrefix(name, "StmtGroupUse")
}

func isEmpty(stmt ast.Vertex) bool {
	_, ok := stmt.(*ast.StmtNop)
	return ok && !phpast.IsMarker(stmt) && !phpast.IsCommentOnly(stmt)
}

func line(n ast.Vertex) int {
	if n == nil {
		return 0
	}
	if pos := n.GetPosition(); pos != nil {
		return pos.StartLine
	}
	return 0
}
