package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/mapping"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
	"github.com/unbound-force/pest2phpunit/internal/unwind"
)

// attributeNamespace holds the PHPUnit attributes the class may use.
const attributeNamespace = `PHPUnit\Framework\Attributes\`

type methodKind int

const (
	hookMethod methodKind = iota
	testMethod
	providerMethod
)

// method is one generated class method. Hooks and tests carry
// converted statements; providers carry pre-rendered lines.
type method struct {
	kind       methodKind
	name       string
	comments   []string
	attributes []string
	signature  string
	head       []string
	body       []ast.Vertex
	tail       []string
	lines      []string
	test       *testCase
}

// class is the generated PHPUnit class.
type class struct {
	name    string
	suite   *suite
	extends string
	imports []string
	methods []*method
}

// builder converts the suite's bodies into methods.
type builder struct {
	s     *suite
	u     *unwind.Unwinder
	names *names
	cls   *class

	// byDescription resolves depends() to method names.
	byDescription map[string]string

	// shared maps dataset names to their provider methods.
	shared map[string]string

	attrs map[string]bool
}

func (s *suite) build(name string, u *unwind.Unwinder) *class {
	b := &builder{
		s:             s,
		u:             u,
		cls:           &class{name: name, suite: s},
		byDescription: make(map[string]string),
		shared:        make(map[string]string),
		attrs:         make(map[string]bool),
	}
	var reserved []string
	for _, h := range mapping.Hooks() {
		reserved = append(reserved, h.Method)
	}
	b.names = newNames(s.opts.MethodStyle, reserved...)

	b.hooks()
	for _, tc := range s.tests {
		tc.method = b.names.unique(MethodName(tc.description, s.opts.MethodStyle))
		if _, ok := b.byDescription[tc.description]; !ok {
			b.byDescription[tc.description] = tc.method
		}
	}
	var providers []*method
	for _, tc := range s.tests {
		m, p := b.test(tc)
		b.cls.methods = append(b.cls.methods, m)
		providers = append(providers, p...)
	}
	b.cls.methods = append(b.cls.methods, providers...)
	b.baseClass()
	b.attributeImports()
	return b.cls
}

func (b *builder) hooks() {
	for _, h := range mapping.Hooks() {
		body, ok := b.s.hooks[h.Pest]
		if !ok {
			continue
		}
		m := &method{kind: hookMethod, name: h.Method, body: b.u.Block(body)}
		parent := "parent::" + h.Method + "();"
		if h.Before {
			m.head = []string{parent}
		} else {
			m.tail = []string{parent}
		}
		if h.Static {
			m.signature = "public static function " + h.Method + "(): void"
		} else {
			m.signature = "protected function " + h.Method + "(): void"
		}
		b.cls.methods = append(b.cls.methods, m)
	}
}

// test builds the method for tc and any provider it needs.
func (b *builder) test(tc *testCase) (*method, []*method) {
	m := &method{
		kind:     testMethod,
		name:     tc.method,
		comments: tc.comments,
		test:     tc,
	}
	params := make([]string, 0, len(tc.params))
	for _, p := range tc.params {
		params = append(params, strings.TrimSpace(phpast.Render(p)))
	}
	m.signature = fmt.Sprintf("public function %s(%s): void", tc.method, strings.Join(params, ", "))

	var prologue []ast.Vertex
	for _, n := range tc.notes {
		prologue = append(prologue, phpast.Marker(n))
	}
	if tc.todo {
		prologue = append(prologue, phpast.Assert("markTestIncomplete"))
	}

	var providers []*method
	var datasets []ast.Vertex
	for _, mod := range tc.mods {
		switch mod.Name {
		case "with":
			datasets = append(datasets, mod.Args...)
		case "group":
			m.attributes = append(m.attributes, groupAttrs(mod.Args)...)
			b.attrs["Group"] = true
		case "depends":
			prologue = append(prologue, b.depends(m, mod)...)
		case "covers", "coversClass", "coversFunction", "coversNothing", "mutates":
			b.s.covers(mod.Name, mod.Args)
		case "todo":
			if !tc.todo {
				prologue = append(prologue, phpast.Assert("markTestIncomplete"))
			}
		default:
			prologue = append(prologue, b.modifier(mod)...)
		}
	}
	if len(datasets) > 0 {
		if len(datasets) > 1 {
			prologue = append(prologue, phpast.Marker("combined datasets need manual conversion; only the first dataset was converted"))
		}
		p, created, note := b.provider(tc, datasets[0])
		if note != "" {
			prologue = append(prologue, phpast.Marker(note))
		}
		if p != "" {
			m.attributes = append(m.attributes, fmt.Sprintf("#[DataProvider(%s)]", phpast.Quote(p)))
			b.attrs["DataProvider"] = true
		}
		if created != nil {
			providers = append(providers, created)
		}
	}

	stmts := make([]ast.Vertex, 0, len(prologue)+len(tc.before)+len(tc.body)+len(tc.after)+1)
	stmts = append(stmts, prologue...)
	stmts = append(stmts, tc.before...)
	stmts = append(stmts, tc.body...)
	stmts = append(stmts, tc.after...)
	if len(tc.trailing) > 0 {
		stmts = append(stmts, phpast.Comment(tc.trailing))
	}
	m.body = b.u.Block(stmts)
	return m, providers
}

func (b *builder) depends(m *method, mod chain.Segment) []ast.Vertex {
	var markers []ast.Vertex
	for _, a := range mod.Args {
		desc, ok := phpast.StringValue(a)
		target, found := b.byDescription[desc]
		if !ok || !found {
			markers = append(markers, phpast.Marker(fmt.Sprintf("depends(%s) does not name a test in this file", strings.TrimSpace(phpast.Render(a)))))
			continue
		}
		m.attributes = append(m.attributes, fmt.Sprintf("#[Depends(%s)]", phpast.Quote(target)))
		b.attrs["Depends"] = true
	}
	return markers
}

// osFamilies maps the platform modifiers to PHP_OS_FAMILY values.
var osFamilies = map[string]string{
	"Windows": "Windows",
	"Mac":     "Darwin",
	"Linux":   "Linux",
}

// modifier converts a test modifier into leading statements.
func (b *builder) modifier(mod chain.Segment) []ast.Vertex {
	switch mod.Name {
	case "throws":
		return b.throws(mod.Args)
	case "throwsIf", "throwsUnless":
		if len(mod.Args) < 2 {
			break
		}
		cond := condition(mod.Args[0])
		if mod.Name == "throwsUnless" {
			cond = phpast.Not(cond)
		}
		return []ast.Vertex{phpast.If(cond, b.throws(mod.Args[1:]), nil)}
	case "skip":
		return skip(mod.Args)
	}

	for suffix, family := range osFamilies {
		onFamily := phpast.Identical(phpast.Const("PHP_OS_FAMILY"), phpast.Str(family))
		switch mod.Name {
		case "skipOn" + suffix:
			return []ast.Vertex{phpast.If(onFamily, []ast.Vertex{phpast.Assert("markTestSkipped", phpast.Str("Skipped on "+suffix))}, nil)}
		case "onlyOn" + suffix:
			return []ast.Vertex{phpast.If(phpast.Not(onFamily), []ast.Vertex{phpast.Assert("markTestSkipped", phpast.Str("Runs on "+suffix+" only"))}, nil)}
		}
	}
	return []ast.Vertex{phpast.Marker(fmt.Sprintf("test modifier %s() has no PHPUnit equivalent", mod.Name))}
}

// throws reads (class, message, code). A first argument that is not a
// class name is the expected message.
func (b *builder) throws(args []ast.Vertex) []ast.Vertex {
	if len(args) == 0 {
		return []ast.Vertex{phpast.Marker("throws() without an exception needs manual conversion")}
	}
	var out []ast.Vertex
	first := args[0]
	if text, ok := phpast.StringValue(first); ok && !b.s.opts.ClassNames.IsClassName(text) {
		out = append(out, phpast.Assert("expectExceptionMessage", phpast.Clone(first)))
	} else {
		out = append(out, phpast.Assert("expectException", phpast.Clone(first)))
	}
	if len(args) > 1 && !isNull(args[1]) {
		out = append(out, phpast.Assert("expectExceptionMessage", phpast.Clone(args[1])))
	}
	if len(args) > 2 {
		out = append(out, phpast.Assert("expectExceptionCode", phpast.Clone(args[2])))
	}
	return out
}

func isNull(n ast.Vertex) bool {
	c, ok := n.(*ast.ExprConstFetch)
	return ok && strings.EqualFold(phpast.NameOf(c.Const), "null")
}

// skip converts skip(), skip('why'), skip($condition, 'why') and
// skip(fn () => ..., 'why').
func skip(args []ast.Vertex) []ast.Vertex {
	if len(args) == 0 {
		return []ast.Vertex{phpast.Assert("markTestSkipped")}
	}
	if _, ok := phpast.StringValue(args[0]); ok {
		return []ast.Vertex{phpast.Assert("markTestSkipped", phpast.Clone(args[0]))}
	}
	var reason []ast.Vertex
	if len(args) > 1 {
		reason = append(reason, phpast.Clone(args[1]))
	}
	return []ast.Vertex{phpast.If(condition(args[0]), []ast.Vertex{phpast.Assert("markTestSkipped", reason...)}, nil)}
}

// condition turns a condition argument into an expression; closures
// are called.
func condition(n ast.Vertex) ast.Vertex {
	if phpast.IsClosure(n) {
		return phpast.Invoke(phpast.Clone(n))
	}
	return phpast.Clone(n)
}

// provider returns the provider for a test's dataset. created is nil
// when an existing shared provider is reused; name is empty when no
// provider could be built.
func (b *builder) provider(tc *testCase, dataset ast.Vertex) (name string, created *method, note string) {
	if ref, ok := phpast.StringValue(dataset); ok {
		if existing, ok := b.shared[ref]; ok {
			return existing, nil, ""
		}
		value, ok := b.s.datasets[ref]
		if !ok {
			return "", nil, fmt.Sprintf("dataset '%s' is not defined in this file", ref)
		}
		name = b.names.unique(ProviderName(ref))
		b.shared[ref] = name
		return name, providerFor(name, value), ""
	}
	name = b.names.unique(ProviderName(tc.description))
	return name, providerFor(name, dataset), ""
}

// providerFor renders a static data provider. Literal arrays become a
// literal return with every row wrapped in an argument list; anything
// else is iterated at runtime.
func providerFor(name string, value ast.Vertex) *method {
	m := &method{kind: providerMethod, name: name}
	if rows, ok := datasetRows(value); ok {
		m.signature = "public static function " + name + "(): array"
		m.lines = append(m.lines, "return [")
		for _, r := range rows {
			m.lines = append(m.lines, "    "+r+",")
		}
		m.lines = append(m.lines, "];")
		return m
	}

	src := strings.TrimSpace(phpast.Render(value))
	if phpast.IsClosure(value) {
		src = "(" + src + ")()"
	}
	m.signature = "public static function " + name + "(): iterable"
	m.lines = []string{
		"foreach (" + src + " as $key => $row) {",
		"    yield $key => is_array($row) ? $row : [$row];",
		"}",
	}
	return m
}

// datasetRows renders the rows of a literal dataset array.
func datasetRows(n ast.Vertex) ([]string, bool) {
	arr, ok := n.(*ast.ExprArray)
	if !ok {
		return nil, false
	}
	var rows []string
	for _, it := range arr.Items {
		item, ok := it.(*ast.ExprArrayItem)
		if !ok || item == nil || item.Val == nil {
			continue
		}
		if item.EllipsisTkn != nil {
			return nil, false
		}
		val := strings.TrimSpace(phpast.Render(item.Val))
		if _, isArray := item.Val.(*ast.ExprArray); !isArray {
			val = "[" + val + "]"
		}
		if item.Key != nil {
			val = strings.TrimSpace(phpast.Render(item.Key)) + " => " + val
		}
		rows = append(rows, val)
	}
	return rows, true
}

// baseClass picks what the class extends and imports it when needed.
func (b *builder) baseClass() {
	if b.s.base != "" {
		b.cls.extends = b.s.base
		return
	}
	base := b.s.opts.BaseClass
	if strings.HasPrefix(base, `\`) || !strings.Contains(base, `\`) {
		b.cls.extends = base
		return
	}
	short := base[strings.LastIndex(base, `\`)+1:]
	b.cls.extends = short
	if !b.imported(short) {
		b.cls.imports = append(b.cls.imports, base)
	}
}

// imported reports whether the file already imports a class under the
// given short name.
func (b *builder) imported(short string) bool {
	for _, imp := range b.s.imports {
		text := phpast.Compact(phpast.Render(imp))
		if strings.HasSuffix(text, `\`+short+";") || text == "use"+short+";" {
			return true
		}
	}
	return false
}

func (b *builder) attributeImports() {
	for _, a := range b.s.classAttrs {
		name := strings.TrimPrefix(a, "#[")
		if i := strings.IndexAny(name, "(]"); i >= 0 {
			name = name[:i]
		}
		b.attrs[name] = true
	}
	for n := range b.attrs {
		if !b.imported(n) {
			b.cls.imports = append(b.cls.imports, attributeNamespace+n)
		}
	}
	sort.Strings(b.cls.imports)
}

func (c *class) hookNames() []string {
	var out []string
	for _, m := range c.methods {
		if m.kind == hookMethod {
			out = append(out, m.name)
		}
	}
	return out
}

func (c *class) providerNames() []string {
	var out []string
	for _, m := range c.methods {
		if m.kind == providerMethod {
			out = append(out, m.name)
		}
	}
	return out
}

// testSummaries lists the tests with their marker counts.
func (c *class) testSummaries(markers []Marker) []Test {
	perMethod := make(map[string]int)
	for _, mk := range markers {
		perMethod[mk.Method]++
	}
	out := []Test{}
	for _, m := range c.methods {
		if m.kind != testMethod {
			continue
		}
		out = append(out, Test{
			Description: m.test.description,
			Method:      m.name,
			Line:        m.test.line,
			Markers:     perMethod[m.name],
		})
	}
	return out
}

// leaks finds calls to Pest functions that survived conversion.
func (c *class) leaks(pest map[string]bool) []Leak {
	var out []Leak
	check := func(method string, stmts []ast.Vertex) {
		for _, stmt := range stmts {
			if name := leakingCall(stmt, pest); name != "" {
				out = append(out, Leak{Method: method, Call: name, Code: snippet(stmt)})
			}
		}
	}
	check("", c.suite.preamble)
	for _, m := range c.methods {
		check(m.name, m.body)
	}
	return out
}

func leakingCall(stmt ast.Vertex, pest map[string]bool) string {
	var found string
	phpast.Inspect(stmt, func(n ast.Vertex) bool {
		if found != "" {
			return false
		}
		if fc, ok := n.(*ast.ExprFunctionCall); ok && pest[phpast.FuncName(fc)] {
			found = phpast.FuncName(fc)
			return false
		}
		return true
	})
	return found
}

// snippet is a one-line excerpt of stmt for reports.
func snippet(stmt ast.Vertex) string {
	const limit = 80
	text := strings.Join(strings.Fields(phpast.Render(stmt)), " ")
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit-3]) + "..."
	}
	return text
}
