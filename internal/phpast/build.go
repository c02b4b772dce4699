package phpast

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/token"
)

// Builders for synthesized nodes. Keyword tokens carry their own
// surrounding spaces so that the printer's compact layout never glues a
// keyword to an adjacent identifier ("foreach($x as $item)").

func kw(word string) *token.Token {
	return &token.Token{Value: []byte(" " + word + " ")}
}

// tok is a token printed verbatim.
func tok(text string) *token.Token {
	return &token.Token{Value: []byte(text)}
}

// separators returns the ", " tokens between n list items.
func separators(n int) []*token.Token {
	if n < 2 {
		return nil
	}
	out := make([]*token.Token, n-1)
	for i := range out {
		out[i] = tok(", ")
	}
	return out
}

// Ident returns a bare identifier (function, method, class or constant
// name).
func Ident(name string) *ast.Identifier {
	return &ast.Identifier{Value: []byte(name)}
}

// Var returns the variable $name. A leading "$" in name is optional.
func Var(name string) *ast.ExprVariable {
	return &ast.ExprVariable{Name: Ident("$" + strings.TrimPrefix(name, "$"))}
}

// This returns $this.
func This() *ast.ExprVariable {
	return Var("this")
}

// Str returns a single-quoted string literal holding s.
func Str(s string) *ast.ScalarString {
	return &ast.ScalarString{Value: []byte(Quote(s))}
}

// Quote renders s as a single-quoted PHP string literal.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Int returns an integer literal.
func Int(digits string) *ast.ScalarLnumber {
	return &ast.ScalarLnumber{Value: []byte(digits)}
}

// Const returns a constant fetch such as null, true or PHP_EOL.
func Const(name string) *ast.ExprConstFetch {
	return &ast.ExprConstFetch{Const: Ident(name)}
}

// Null returns the null constant.
func Null() *ast.ExprConstFetch {
	return Const("null")
}

// Args wraps expressions as call arguments.
func Args(exprs ...ast.Vertex) []ast.Vertex {
	out := make([]ast.Vertex, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, &ast.Argument{Expr: e})
	}
	return out
}

// Call returns name(args...).
func Call(name string, args ...ast.Vertex) *ast.ExprFunctionCall {
	return &ast.ExprFunctionCall{Function: Ident(name), Args: Args(args...), SeparatorTkns: separators(len(args))}
}

// Invoke calls a callable expression with args. Anything that is not a
// plain variable is parenthesized first: (function ($v) { ... })($x).
func Invoke(callable ast.Vertex, args ...ast.Vertex) *ast.ExprFunctionCall {
	fn := callable
	if _, ok := callable.(*ast.ExprVariable); !ok {
		fn = Parens(callable)
	}
	return &ast.ExprFunctionCall{Function: fn, Args: Args(args...), SeparatorTkns: separators(len(args))}
}

// MethodCall returns recv->method(args...).
func MethodCall(recv ast.Vertex, method string, args ...ast.Vertex) *ast.ExprMethodCall {
	return &ast.ExprMethodCall{Var: recv, Method: Ident(method), Args: Args(args...), SeparatorTkns: separators(len(args))}
}

// MethodCallArgs is MethodCall with pre-built argument nodes, used
// when forwarding the arguments of an existing call unchanged.
func MethodCallArgs(recv ast.Vertex, method string, args []ast.Vertex) *ast.ExprMethodCall {
	return &ast.ExprMethodCall{Var: recv, Method: Ident(method), Args: args, SeparatorTkns: separators(len(args))}
}

// PropertyFetch returns recv->prop.
func PropertyFetch(recv ast.Vertex, prop string) *ast.ExprPropertyFetch {
	return &ast.ExprPropertyFetch{Var: recv, Prop: Ident(prop)}
}

// DynamicPropertyFetch returns recv->$name.
func DynamicPropertyFetch(recv ast.Vertex, name ast.Vertex) *ast.ExprPropertyFetch {
	return &ast.ExprPropertyFetch{Var: recv, Prop: name}
}

// Index returns recv[dim].
func Index(recv, dim ast.Vertex) *ast.ExprArrayDimFetch {
	return &ast.ExprArrayDimFetch{Var: recv, Dim: dim}
}

// ClassConst returns class::class for a class name node.
func ClassConst(class ast.Vertex) *ast.ExprClassConstFetch {
	return &ast.ExprClassConstFetch{Class: class, Const: Ident("class")}
}

// Concat joins the operands with the string concatenation operator.
func Concat(parts ...ast.Vertex) ast.Vertex {
	if len(parts) == 0 {
		return Str("")
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = &ast.ExprBinaryConcat{Left: out, OpTkn: kw("."), Right: p}
	}
	return out
}

// Ternary returns cond ? a : b.
func Ternary(cond, a, b ast.Vertex) *ast.ExprTernary {
	return &ast.ExprTernary{Cond: cond, QuestionTkn: kw("?"), IfTrue: a, ColonTkn: kw(":"), IfFalse: b}
}

// Parens wraps expr in parentheses.
func Parens(expr ast.Vertex) *ast.ExprBrackets {
	return &ast.ExprBrackets{OpenParenthesisTkn: tok("("), Expr: expr, CloseParenthesisTkn: tok(")")}
}

// Not returns !expr, parenthesizing anything but a variable or call.
func Not(expr ast.Vertex) *ast.ExprBooleanNot {
	switch expr.(type) {
	case *ast.ExprVariable, *ast.ExprFunctionCall, *ast.ExprMethodCall, *ast.ExprConstFetch:
	default:
		expr = Parens(expr)
	}
	return &ast.ExprBooleanNot{Expr: expr}
}

// Identical returns a === b.
func Identical(a, b ast.Vertex) *ast.ExprBinaryIdentical {
	return &ast.ExprBinaryIdentical{Left: a, OpTkn: kw("==="), Right: b}
}

// Assign returns the statement $name = expr;.
func Assign(target, expr ast.Vertex) *ast.StmtExpression {
	return Stmt(&ast.ExprAssign{Var: target, EqualTkn: kw("="), Expr: expr})
}

// Stmt wraps an expression as an expression statement.
func Stmt(expr ast.Vertex) *ast.StmtExpression {
	return &ast.StmtExpression{Expr: expr, SemiColonTkn: tok("; ")}
}

// Block wraps statements in braces.
func Block(stmts ...ast.Vertex) *ast.StmtStmtList {
	return &ast.StmtStmtList{
		OpenCurlyBracketTkn:  tok(" { "),
		Stmts:                stmts,
		CloseCurlyBracketTkn: tok("}"),
	}
}

// Foreach returns foreach (expr as $value) { body }, or the key/value
// form when key is not nil.
func Foreach(expr ast.Vertex, key, value ast.Vertex, body ...ast.Vertex) *ast.StmtForeach {
	n := &ast.StmtForeach{
		ForeachTkn: tok("foreach "),
		Expr:       expr,
		AsTkn:      kw("as"),
		Key:        key,
		Var:        value,
		Stmt:       Block(body...),
	}
	if key != nil {
		n.DoubleArrowTkn = kw("=>")
	}
	return n
}

// If returns if (cond) { then } else { otherwise }. The else branch is
// omitted when otherwise is empty.
func If(cond ast.Vertex, then []ast.Vertex, otherwise []ast.Vertex) *ast.StmtIf {
	n := &ast.StmtIf{IfTkn: tok("if "), Cond: cond, Stmt: Block(then...)}
	if len(otherwise) > 0 {
		n.Else = &ast.StmtElse{ElseTkn: tok(" else"), Stmt: Block(otherwise...)}
	}
	return n
}

// Try returns try { body } catch (types $name) { handler }.
func Try(body []ast.Vertex, types []ast.Vertex, name string, handler []ast.Vertex) *ast.StmtTry {
	return &ast.StmtTry{
		TryTkn:               tok("try"),
		OpenCurlyBracketTkn:  tok(" { "),
		Stmts:                body,
		CloseCurlyBracketTkn: tok("}"),
		Catches: []ast.Vertex{
			&ast.StmtCatch{
				CatchTkn:             tok(" catch "),
				Types:                types,
				Var:                  spacedVar(name),
				OpenCurlyBracketTkn:  tok(" { "),
				Stmts:                handler,
				CloseCurlyBracketTkn: tok("}"),
			},
		},
	}
}

// spacedVar is Var printed with a leading space, for positions where
// the printer would glue it to a preceding name (catch (Type $e)).
func spacedVar(name string) *ast.ExprVariable {
	text := []byte("$" + strings.TrimPrefix(name, "$"))
	return &ast.ExprVariable{Name: &ast.Identifier{
		IdentifierTkn: &token.Token{
			Value:        text,
			FreeFloating: []*token.Token{{ID: token.T_WHITESPACE, Value: []byte(" ")}},
		},
		Value: text,
	}}
}

// Return returns the statement return expr;.
func Return(expr ast.Vertex) *ast.StmtReturn {
	return &ast.StmtReturn{ReturnTkn: kw("return"), Expr: expr}
}

// Assert returns the statement $this->method(args...);.
func Assert(method string, args ...ast.Vertex) *ast.StmtExpression {
	return Stmt(MethodCall(This(), method, args...))
}
