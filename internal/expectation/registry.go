// Package expectation collects custom Pest expectations registered with
// expect()->extend() and inlines their bodies at call sites.
package expectation

import (
	"sort"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// ExtendMethod is the chained method that registers a custom
// expectation: expect()->extend('name', fn).
const ExtendMethod = "extend"

// Param is a declared parameter of a custom expectation.
type Param struct {
	Name string

	// Default is the declared default value, nil when there is none.
	Default ast.Vertex
}

// Definition is a registered custom expectation. It is never mutated
// after registration; inlining always works on a clone of Body.
type Definition struct {
	Name   string
	Params []Param

	// Body holds the closure's statements. For an arrow function it is
	// a single return statement and ExpressionForm is true.
	Body           []ast.Vertex
	ExpressionForm bool
}

// Registry maps custom expectation names to their definitions for one
// file conversion. It is not safe for concurrent use; create one per
// file.
type Registry struct {
	entryPoint string
	defs       map[string]*Definition
}

// NewRegistry returns an empty registry for chains rooted at the given
// entry-point function.
func NewRegistry(entryPoint string) *Registry {
	return &Registry{
		entryPoint: entryPoint,
		defs:       make(map[string]*Definition),
	}
}

// CollectFromStatements registers every expect()->extend(...) call
// found among stmts and returns the registered names in source order.
// Only the given statements are scanned, never nested blocks. A later
// registration of the same name replaces the earlier one.
func (r *Registry) CollectFromStatements(stmts []ast.Vertex) []string {
	var names []string
	for _, stmt := range stmts {
		def, ok := r.Parse(stmt)
		if !ok {
			continue
		}
		r.Register(def)
		names = append(names, def.Name)
	}
	return names
}

// Parse recognizes a registration statement and builds its definition
// without registering it.
func (r *Registry) Parse(stmt ast.Vertex) (*Definition, bool) {
	es, ok := stmt.(*ast.StmtExpression)
	if !ok {
		return nil, false
	}
	call, ok := es.Expr.(*ast.ExprMethodCall)
	if !ok || phpast.NameOf(call.Method) != ExtendMethod {
		return nil, false
	}
	entry, ok := call.Var.(*ast.ExprFunctionCall)
	if !ok || phpast.FuncName(entry) != r.entryPoint || len(entry.Args) > 0 {
		return nil, false
	}

	args := phpast.ArgExprs(call.Args)
	if len(args) < 2 {
		return nil, false
	}
	name, ok := phpast.StringValue(args[0])
	if !ok || name == "" || !phpast.IsClosure(args[1]) {
		return nil, false
	}

	def := &Definition{Name: name}
	for _, p := range phpast.ClosureParams(args[1]) {
		def.Params = append(def.Params, Param{
			Name:    phpast.ParamName(p),
			Default: phpast.ParamDefault(p),
		})
	}
	def.Body, def.ExpressionForm = phpast.ClosureBody(args[1])
	return def, true
}

// IsRegistration reports whether stmt registers a custom expectation.
func (r *Registry) IsRegistration(stmt ast.Vertex) bool {
	_, ok := r.Parse(stmt)
	return ok
}

// Register stores def, replacing any definition with the same name.
func (r *Registry) Register(def *Definition) {
	r.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered expectations.
func (r *Registry) Len() int {
	return len(r.defs)
}
