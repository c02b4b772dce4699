package expectation

import (
	"fmt"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
	"github.com/unbound-force/pest2phpunit/internal/walk"
)

// ValueVar is the local variable a complex body's subject is bound to.
const ValueVar = "expectationValue"

// Unwinder converts expectation chains to assertion statements. ok is
// false when expr is not a chain.
type Unwinder interface {
	Unwind(expr ast.Vertex, negated bool) (stmts []ast.Vertex, ok bool)
}

// Inliner expands custom expectation calls into the statements of
// their bodies, handing nested chains back to the Unwinder.
type Inliner struct {
	unwinder   Unwinder
	entryPoint string
}

// NewInliner returns an inliner that feeds rewritten chains to u.
func NewInliner(u Unwinder, entryPoint string) *Inliner {
	return &Inliner{unwinder: u, entryPoint: entryPoint}
}

// site is one call site: the subject the expectation runs against,
// the bound parameters and the negation in effect.
type site struct {
	subject ast.Vertex
	params  map[string]ast.Vertex
	negated bool
}

func (s site) substitute(n ast.Vertex) ast.Vertex {
	return Substitute(n, s.subject, s.params)
}

// Inline returns the statements that replace a call to def against
// subject. args are the call's argument expressions; missing arguments
// take the parameter default, or null. Negation applies to every
// assertion the body produces.
func (in *Inliner) Inline(def *Definition, subject ast.Vertex, args []ast.Vertex, negated bool) []ast.Vertex {
	body := phpast.CloneAll(def.Body)
	s := site{
		subject: subject,
		params:  bindParams(def.Params, args),
		negated: negated,
	}

	switch Classify(body, in.entryPoint) {
	case Delegate, Mixed:
		var out []ast.Vertex
		for _, stmt := range body {
			if repl, ok := in.convert(stmt, s); ok {
				out = append(out, repl...)
				continue
			}
			out = append(out, s.substitute(stmt))
		}
		return out
	default:
		return in.inlineComplex(def, body, s)
	}
}

// inlineComplex binds the subject to a local, substitutes it and the
// parameters throughout, and converts whatever chains it can find.
func (in *Inliner) inlineComplex(def *Definition, body []ast.Vertex, s site) []ast.Vertex {
	value := phpast.Var(ValueVar)
	out := []ast.Vertex{
		phpast.Marker(fmt.Sprintf("custom expectation %s() has a complex body and was inlined for manual review", def.Name)),
		phpast.Assign(value, phpast.Clone(s.subject)),
	}

	bound := site{subject: value, params: s.params}
	substituted := make([]ast.Vertex, 0, len(body))
	for _, stmt := range body {
		substituted = append(substituted, bound.substitute(stmt))
	}

	// Parameters are already substituted; a second pass would rewrite
	// argument expressions that happen to reuse a parameter name.
	after := site{subject: value, negated: s.negated}
	converted := walk.Statements(substituted, func(stmt ast.Vertex) ([]ast.Vertex, bool) {
		return in.convert(stmt, after)
	})
	return append(out, converted...)
}

// convert handles the statements that have a direct translation:
// return $this (dropped), delegate chains and nested expect() chains,
// bare or returned.
func (in *Inliner) convert(stmt ast.Vertex, s site) ([]ast.Vertex, bool) {
	var expr ast.Vertex
	switch n := stmt.(type) {
	case *ast.StmtReturn:
		if phpast.IsThis(n.Expr) {
			return nil, true
		}
		expr = n.Expr
	case *ast.StmtExpression:
		expr = n.Expr
	default:
		return nil, false
	}
	if expr == nil {
		return nil, false
	}

	switch {
	case isDelegate(expr):
		_, segs := chain.Peel(s.substitute(expr))
		rooted := chain.Rebuild(phpast.Call(in.entryPoint, phpast.Clone(s.subject)), segs)
		return in.unwinder.Unwind(rooted, s.negated)
	case chain.RootedAt(expr, in.entryPoint):
		return in.unwinder.Unwind(s.substitute(expr), s.negated)
	}
	return nil, false
}

func bindParams(params []Param, args []ast.Vertex) map[string]ast.Vertex {
	bound := make(map[string]ast.Vertex, len(params))
	for i, p := range params {
		switch {
		case i < len(args):
			bound[p.Name] = args[i]
		case p.Default != nil:
			bound[p.Name] = p.Default
		default:
			bound[p.Name] = phpast.Null()
		}
	}
	return bound
}

// Substitute returns a copy of n in which $this->value is replaced by
// subject and every parameter variable by its bound expression. Each
// occurrence gets its own copy of the replacement.
func Substitute(n ast.Vertex, subject ast.Vertex, params map[string]ast.Vertex) ast.Vertex {
	return phpast.Rewrite(n, func(v ast.Vertex) (ast.Vertex, bool) {
		if subject != nil && phpast.IsThisProperty(v, ValueProperty) {
			return subject, true
		}
		if name := phpast.VarName(v); name != "" {
			if repl, ok := params[name]; ok {
				return repl, true
			}
		}
		return nil, false
	})
}
