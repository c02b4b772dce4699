package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

func TestMethodName(t *testing.T) {
	tests := []struct {
		desc  string
		snake string
		camel string
	}{
		{"adds numbers", "test_adds_numbers", "testAddsNumbers"},
		{"it can't fail", "test_it_cant_fail", "testItCantFail"},
		{"  Handles: JSON/XML (v2)  ", "test_handles_json_xml_v2", "testHandlesJsonXmlV2"},
		{"größe prüfen", "test_größe_prüfen", "testGrößePrüfen"},
		{"!!!", "test_unnamed", "testUnnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.snake, MethodName(tt.desc, SnakeCase))
			assert.Equal(t, tt.camel, MethodName(tt.desc, CamelCase))
		})
	}
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "provideValidEmails", ProviderName("valid emails"))
	assert.Equal(t, "provideItSumsNumbers", ProviderName("it sums numbers"))
	assert.Equal(t, "provideData", ProviderName(""))
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"tests/Feature/user_login.php": "UserLoginTest",
		"tests/Unit/ExampleTest.php":   "ExampleTest",
		"tests/Unit/money.php":         "MoneyTest",
		"tests/2fa-flow.php":           "Test2faFlowTest",
		"tests/---.php":                "ConvertedTest",
	}
	for path, want := range tests {
		assert.Equal(t, want, ClassName(path), path)
	}
}

func TestParseMethodStyle(t *testing.T) {
	for in, want := range map[string]MethodStyle{"": SnakeCase, "snake": SnakeCase, " Camel ": CamelCase} {
		got, err := ParseMethodStyle(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMethodStyle("kebab")
	assert.ErrorContains(t, err, "unknown method style")
}

func TestNames_Unique(t *testing.T) {
	snake := newNames(SnakeCase, "setUp")
	assert.Equal(t, "test_a", snake.unique("test_a"))
	assert.Equal(t, "test_a_2", snake.unique("test_a"))
	assert.Equal(t, "test_a_3", snake.unique("test_a"))
	assert.Equal(t, "setup_2", snake.unique("setup"), "reserved names are case-insensitive")

	camel := newNames(CamelCase)
	assert.Equal(t, "testA", camel.unique("testA"))
	assert.Equal(t, "testa2", camel.unique("testa"))
}

func TestRenderStmt_Reindents(t *testing.T) {
	stmts, err := phpast.ParseStatements("<?php\n\n\t\t// keep\n\t\tif ($a) {\n\t\t\t$b = 1;\n\t\t}\n")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, []string{
		"        // keep",
		"        if ($a) {",
		"        \t$b = 1;",
		"        }",
	}, renderStmt(stmts[0], "        "))
}

func TestRenderStmt_Markers(t *testing.T) {
	assert.Equal(t,
		[]string{"    // " + phpast.MarkerPrefix + " check this"},
		renderStmt(phpast.Marker("check this"), "    "))
	assert.Equal(t,
		[]string{"    // one", "    // two"},
		renderStmt(phpast.Comment([]string{"// one", "// two"}), "    "))
}

func TestRenderStmt_KeepsMultilineStrings(t *testing.T) {
	stmts, err := phpast.ParseStatements("<?php\n    $sql = '\n  SELECT 1\n';\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"        $sql = '", "  SELECT 1", "';"}, renderStmt(stmts[0], "        "))
}

func TestCommentLines_AlignsDocblocks(t *testing.T) {
	got := commentLines([]string{"/**\n         * Does things.\n         */"}, "    ")
	assert.Equal(t, []string{"    /**", "     * Does things.", "     */"}, got)
}
