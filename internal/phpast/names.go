package phpast

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
)

// NameOf returns the text of a name-like node: identifiers, qualified
// names and variables. A leading namespace separator is kept, callers
// decide whether it matters. Names are built from their parts, so
// comments attached to the node never leak into the result.
func NameOf(n ast.Vertex) string {
	switch n := n.(type) {
	case nil:
		return ""
	case *ast.Identifier:
		return string(n.Value)
	case *ast.NamePart:
		return string(n.Value)
	case *ast.Name:
		return joinParts(n.Parts)
	case *ast.NameFullyQualified:
		return `\` + joinParts(n.Parts)
	case *ast.NameRelative:
		return `namespace\` + joinParts(n.Parts)
	case *ast.ExprVariable:
		if id, ok := n.Name.(*ast.Identifier); ok {
			return string(id.Value)
		}
		return strings.TrimSpace(Render(n))
	default:
		return strings.TrimSpace(Render(n))
	}
}

func joinParts(parts []ast.Vertex) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, NameOf(p))
	}
	return strings.Join(names, `\`)
}

// FuncName returns the unqualified name of a function call, or "" when
// the callee is not a plain name (a closure, a variable...).
func FuncName(call *ast.ExprFunctionCall) string {
	switch call.Function.(type) {
	case *ast.ExprVariable, *ast.ExprClosure, *ast.ExprArrowFunction, *ast.ExprBrackets:
		return ""
	}
	return strings.TrimPrefix(NameOf(call.Function), `\`)
}

// VarName returns the name of a simple variable without its "$", or ""
// for anything else (including variable variables).
func VarName(n ast.Vertex) string {
	v, ok := n.(*ast.ExprVariable)
	if !ok {
		return ""
	}
	id, ok := v.Name.(*ast.Identifier)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(string(id.Value), "$")
}

// IsThis reports whether n is $this.
func IsThis(n ast.Vertex) bool {
	return VarName(n) == "this"
}

// IsThisProperty reports whether n is $this->prop.
func IsThisProperty(n ast.Vertex, prop string) bool {
	pf, ok := n.(*ast.ExprPropertyFetch)
	if !ok {
		return false
	}
	return IsThis(pf.Var) && NameOf(pf.Prop) == prop
}

// ArgExprs unwraps call arguments to their expressions.
func ArgExprs(args []ast.Vertex) []ast.Vertex {
	out := make([]ast.Vertex, 0, len(args))
	for _, a := range args {
		if arg, ok := a.(*ast.Argument); ok {
			out = append(out, arg.Expr)
			continue
		}
		out = append(out, a)
	}
	return out
}

// StringValue returns the contents of a plain (non-interpolated) string
// literal and true, or false when n is not one.
func StringValue(n ast.Vertex) (string, bool) {
	s, ok := n.(*ast.ScalarString)
	if !ok {
		return "", false
	}
	raw := string(s.Value)
	if len(raw) < 2 {
		return "", false
	}
	quote := raw[0]
	if (quote != '\'' && quote != '"') || raw[len(raw)-1] != quote {
		return "", false
	}
	body := raw[1 : len(raw)-1]
	if quote == '\'' {
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `\\`, `\`)
		return body, true
	}
	return unescapeDouble(body), true
}

// unescapeDouble handles the escapes that matter for class names and
// messages inside double-quoted strings.
func unescapeDouble(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t", `\$`, `$`)
	return r.Replace(s)
}

// IsClosure reports whether n is a closure or arrow function.
func IsClosure(n ast.Vertex) bool {
	switch n.(type) {
	case *ast.ExprClosure, *ast.ExprArrowFunction:
		return true
	}
	return false
}

// ClosureParams returns the parameter nodes of a closure or arrow
// function.
func ClosureParams(n ast.Vertex) []ast.Vertex {
	switch fn := n.(type) {
	case *ast.ExprClosure:
		return fn.Params
	case *ast.ExprArrowFunction:
		return fn.Params
	}
	return nil
}

// ClosureBody returns the body of a closure as statements. An arrow
// function's expression becomes a single return statement; the second
// result reports that form.
func ClosureBody(n ast.Vertex) ([]ast.Vertex, bool) {
	switch fn := n.(type) {
	case *ast.ExprClosure:
		return fn.Stmts, false
	case *ast.ExprArrowFunction:
		return []ast.Vertex{Return(fn.Expr)}, true
	}
	return nil, false
}

// ParamName returns the variable name declared by a parameter node.
func ParamName(p ast.Vertex) string {
	param, ok := p.(*ast.Parameter)
	if !ok {
		return ""
	}
	return VarName(param.Var)
}

// ParamDefault returns a parameter's default value, or nil.
func ParamDefault(p ast.Vertex) ast.Vertex {
	param, ok := p.(*ast.Parameter)
	if !ok {
		return nil
	}
	return param.DefaultValue
}
