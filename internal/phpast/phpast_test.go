package phpast_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

func mustExpr(t *testing.T, src string) ast.Vertex {
	t.Helper()
	e, err := phpast.ParseExpr(src)
	require.NoError(t, err)
	return e
}

func TestParse_AddsOpenTag(t *testing.T) {
	root, err := phpast.Parse([]byte("$x = 1;"))
	require.NoError(t, err)
	require.Len(t, root.Stmts, 1)
	assert.IsType(t, &ast.StmtExpression{}, root.Stmts[0])
}

func TestParse_SyntaxErrorIsParseError(t *testing.T) {
	_, err := phpast.Parse([]byte("<?php\n$x = ;\n"))
	require.Error(t, err)

	var pe *phpast.ParseError
	require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
	assert.NotEmpty(t, pe.Messages)
	assert.Contains(t, pe.Error(), "<source>")
}

func TestParseExpr_MethodCall(t *testing.T) {
	e := mustExpr(t, "expect($a)->toBe(1)")
	mc, ok := e.(*ast.ExprMethodCall)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "toBe", phpast.NameOf(mc.Method))
}

func TestParseExpr_RejectsStatements(t *testing.T) {
	_, err := phpast.ParseExpr("if ($a) { $b = 1; }")
	assert.Error(t, err)
}

func TestRender_RoundTripsParsedSource(t *testing.T) {
	src := "<?php\nexpect($user->name)->toBe('Ada');\n"
	root, err := phpast.Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, phpast.Render(root))
}

func TestBuilders_Assert(t *testing.T) {
	stmt := phpast.Assert("assertSame", phpast.Int("1"), phpast.Var("x"))
	assert.Equal(t, "$this->assertSame(1,$x);", phpast.Compact(phpast.Render(stmt)))
}

func TestBuilders_Quote(t *testing.T) {
	assert.Equal(t, `'it\'s'`, phpast.Quote("it's"))
	assert.Equal(t, `'App\\Foo'`, phpast.Quote(`App\Foo`))
}

func TestBuilders_InvokeParenthesizesClosures(t *testing.T) {
	fn := mustExpr(t, "fn ($v) => $v * 2")
	call := phpast.Invoke(fn, phpast.Var("x"))
	got := phpast.Compact(phpast.Render(call))
	assert.True(t, strings.HasPrefix(got, "(fn"), got)
	assert.True(t, strings.HasSuffix(got, ")($x)"), got)

	byVar := phpast.Compact(phpast.Render(phpast.Invoke(phpast.Var("f"), phpast.Var("x"))))
	assert.Equal(t, "$f($x)", byVar)
}

func TestBuilders_NotParenthesizesOperators(t *testing.T) {
	cond := phpast.Identical(phpast.Const("PHP_OS_FAMILY"), phpast.Str("Windows"))
	assert.Equal(t, "!(PHP_OS_FAMILY==='Windows')", phpast.Compact(phpast.Render(phpast.Not(cond))))
	assert.Equal(t, "!$ok", phpast.Compact(phpast.Render(phpast.Not(phpast.Var("ok")))))
}

func TestBuilders_ForeachKeepsKeywordSpacing(t *testing.T) {
	loop := phpast.Foreach(phpast.Var("items"), nil, phpast.Var("item"),
		phpast.Assert("assertTrue", phpast.Var("item")))
	out := phpast.Render(loop)
	assert.Contains(t, out, " as ")
	assert.Contains(t, phpast.Compact(out), "$this->assertTrue($item);")
}

func TestClone_IsIndependent(t *testing.T) {
	orig := mustExpr(t, "$a->b($c)")
	before := phpast.Render(orig)

	cp := phpast.Clone(orig)
	id := cp.(*ast.ExprMethodCall).Method.(*ast.Identifier)
	require.NotNil(t, id.IdentifierTkn)
	// The printer reads the token, the rest of the package reads Value.
	id.IdentifierTkn.Value = []byte("changed")
	id.Value = []byte("changed")

	assert.Equal(t, before, phpast.Render(orig))
	assert.Equal(t, "b", string(orig.(*ast.ExprMethodCall).Method.(*ast.Identifier).Value))
	assert.Contains(t, phpast.Render(cp), "changed")
}

func TestRewrite_ClonesReplacementPerOccurrence(t *testing.T) {
	orig := mustExpr(t, "$this->value + $this->value")
	repl := phpast.Var("subject")

	out := phpast.Rewrite(orig, func(n ast.Vertex) (ast.Vertex, bool) {
		if phpast.IsThisProperty(n, "value") {
			return repl, true
		}
		return nil, false
	})

	assert.Equal(t, "$subject+$subject", phpast.Compact(phpast.Render(out)))
	assert.Contains(t, phpast.Render(orig), "$this->value")

	var seen []ast.Vertex
	phpast.Inspect(out, func(n ast.Vertex) bool {
		if phpast.VarName(n) == "subject" {
			seen = append(seen, n)
		}
		return true
	})
	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
	assert.NotSame(t, repl, seen[0])
}

func TestMarker(t *testing.T) {
	m := phpast.Marker("unsupported\nmodifier")
	out := phpast.Render(m)
	assert.Contains(t, out, "// TODO(pest2phpunit): unsupported modifier")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ";"))
	assert.True(t, phpast.IsMarker(m))
	assert.Equal(t, "unsupported modifier", phpast.MarkerText(m))
	assert.False(t, phpast.IsMarker(phpast.Assert("assertTrue", phpast.Var("x"))))
}

func TestFuncName_IgnoresLeadingComments(t *testing.T) {
	stmts, err := phpast.ParseStatements("// a second test\nit('b', function () {});\n/** doc */\n\\Pest\\test('c');")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	call := stmts[0].(*ast.StmtExpression).Expr.(*ast.ExprFunctionCall)
	assert.Equal(t, "it", phpast.FuncName(call))

	call = stmts[1].(*ast.StmtExpression).Expr.(*ast.ExprFunctionCall)
	assert.Equal(t, `Pest\test`, phpast.FuncName(call))
	assert.Equal(t, `\Pest\test`, phpast.NameOf(call.Function))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "x", phpast.VarName(phpast.Var("$x")))
	assert.True(t, phpast.IsThis(mustExpr(t, "$this")))
	assert.True(t, phpast.IsThisProperty(mustExpr(t, "$this->value"), "value"))
	assert.False(t, phpast.IsThisProperty(mustExpr(t, "$other->value"), "value"))

	call := mustExpr(t, `\expect($x)`).(*ast.ExprFunctionCall)
	assert.Equal(t, "expect", phpast.FuncName(call))
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{`'RuntimeException'`, "RuntimeException", true},
		{`'App\\Exceptions\\Custom'`, `App\Exceptions\Custom`, true},
		{`"An Error"`, "An Error", true},
		{`"with $var"`, "", false},
		{`42`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, ok := phpast.StringValue(mustExpr(t, tt.src))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClosureHelpers(t *testing.T) {
	arrow := mustExpr(t, "fn ($v, $n = 2) => $v")
	params := phpast.ClosureParams(arrow)
	require.Len(t, params, 2)
	assert.Equal(t, "v", phpast.ParamName(params[0]))
	assert.Nil(t, phpast.ParamDefault(params[0]))
	assert.NotNil(t, phpast.ParamDefault(params[1]))

	body, expr := phpast.ClosureBody(arrow)
	assert.True(t, expr)
	require.Len(t, body, 1)
	assert.IsType(t, &ast.StmtReturn{}, body[0])
}
