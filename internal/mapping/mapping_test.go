package mapping_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/mapping"
)

func TestLookup(t *testing.T) {
	a, ok := mapping.Lookup("toBe")
	require.True(t, ok)
	assert.Equal(t, "assertSame", a.Target)
	assert.Equal(t, mapping.ExpectedActual, a.Order)

	a, ok = mapping.Lookup("toBeNull")
	require.True(t, ok)
	assert.Equal(t, mapping.ActualOnly, a.Order)

	a, ok = mapping.Lookup("toBeIn")
	require.True(t, ok)
	assert.Equal(t, mapping.ActualExpected, a.Order)

	_, ok = mapping.Lookup("toFrobnicate")
	assert.False(t, ok)
}

func TestNegate_NeverReturnsTheSameAssertion(t *testing.T) {
	for _, name := range mapping.Names() {
		a, _ := mapping.Lookup(name)
		neg, ok := mapping.Negate(a.Target)
		if !ok {
			continue
		}
		assert.NotEqual(t, a.Target, neg, "%s negates to itself", name)
	}
}

func TestNegate_OrderingFlipsToStrictOpposite(t *testing.T) {
	pairs := map[string]string{
		"assertGreaterThan":        "assertLessThanOrEqual",
		"assertGreaterThanOrEqual": "assertLessThan",
		"assertLessThan":           "assertGreaterThanOrEqual",
		"assertLessThanOrEqual":    "assertGreaterThan",
	}
	for in, want := range pairs {
		got, ok := mapping.Negate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNegate_MissingCounterparts(t *testing.T) {
	for _, target := range []string{"assertNan", "assertInfinite", "assertJson", "assertIsList", "assertThat"} {
		_, ok := mapping.Negate(target)
		assert.False(t, ok, "%s must not have a negated form", target)
	}
}

func TestNames_Sorted(t *testing.T) {
	names := mapping.Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestClassifyModifier(t *testing.T) {
	tests := map[string]mapping.Modifier{
		"not":             mapping.ModNot,
		"each":            mapping.ModEach,
		"dd":              mapping.ModDrop,
		"ray":             mapping.ModDrop,
		"sequence":        mapping.ModUnsupported,
		"toMatchSnapshot": mapping.ModUnsupported,
		"tap":             mapping.ModTap,
		"pipe":            mapping.ModPipe,
		"json":            mapping.ModJSON,
		"toBe":            mapping.ModNone,
		"name":            mapping.ModNone,
	}
	for name, want := range tests {
		assert.Equal(t, want, mapping.ClassifyModifier(name), name)
	}
	assert.Equal(t, "Unsupported", mapping.ModUnsupported.String())
	assert.Equal(t, "ActualOnly", mapping.ActualOnly.String())
}

func TestLookupHook(t *testing.T) {
	h, ok := mapping.LookupHook("beforeAll")
	require.True(t, ok)
	assert.Equal(t, "setUpBeforeClass", h.Method)
	assert.True(t, h.Static)
	assert.True(t, h.Before)

	h, ok = mapping.LookupHook("afterEach")
	require.True(t, ok)
	assert.Equal(t, "tearDown", h.Method)
	assert.False(t, h.Before)

	_, ok = mapping.LookupHook("around")
	assert.False(t, ok)
	assert.Len(t, mapping.Hooks(), 4)
}

// The regex literals are PCRE; strip the delimiters and flags so Go's
// RE2 can sanity-check them against sample values.
func goRegex(t *testing.T, literal string) *regexp.Regexp {
	t.Helper()
	delim := literal[:1]
	end := strings.LastIndex(literal, delim)
	body := literal[1:end]
	if strings.Contains(literal[end+1:], "i") {
		body = "(?i)" + body
	}
	return regexp.MustCompile(body)
}

func TestFormatRegex(t *testing.T) {
	tests := []struct {
		name  string
		match []string
		miss  []string
	}{
		{"toBeAlpha", []string{"abcXYZ"}, []string{"abc1", ""}},
		{"toBeDigits", []string{"0123"}, []string{"12a"}},
		{"toBeSnakeCase", []string{"snake_case", "a1_b2"}, []string{"Snake_case", "kebab-case"}},
		{"toBeKebabCase", []string{"kebab-case"}, []string{"kebab_case"}},
		{"toBeCamelCase", []string{"camelCase"}, []string{"CamelCase", "camel_case"}},
		{"toBeStudlyCase", []string{"StudlyCase"}, []string{"studlyCase"}},
		{"toBeUuid", []string{"123E4567-e89b-12d3-a456-426614174000"}, []string{"not-a-uuid"}},
		{"toBeUrl", []string{"https://example.com/a?b=c"}, []string{"ftp://example.com", "example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, ok := mapping.FormatRegex(tt.name)
			require.True(t, ok)
			re := goRegex(t, lit)
			for _, s := range tt.match {
				assert.True(t, re.MatchString(s), "%q should match %s", s, lit)
			}
			for _, s := range tt.miss {
				assert.False(t, re.MatchString(s), "%q should not match %s", s, lit)
			}
		})
	}
}

func TestKeyCaseRegex(t *testing.T) {
	lit, ok := mapping.KeyCaseRegex("toHaveSnakeCaseKeys")
	require.True(t, ok)
	re := goRegex(t, lit)
	assert.True(t, re.MatchString("created_at"))
	assert.False(t, re.MatchString("1_leading_digit"))
	assert.False(t, re.MatchString("createdAt"))

	_, ok = mapping.KeyCaseRegex("toHaveSpongeCaseKeys")
	assert.False(t, ok)
}

func TestPredicatesAndCaseTransforms(t *testing.T) {
	p, ok := mapping.LookupPredicate("toHaveMethod")
	require.True(t, ok)
	assert.Equal(t, "method_exists", p.Func)
	assert.True(t, p.TakesArg)

	fn, ok := mapping.CaseTransform("toBeLowercase")
	require.True(t, ok)
	assert.Equal(t, "mb_strtolower", fn)
}

func TestRules(t *testing.T) {
	rules := mapping.Rules()
	kinds := map[string]int{}
	for _, r := range rules {
		kinds[r.Kind]++
		assert.NotEmpty(t, r.Pest)
		assert.NotEmpty(t, r.PHPUnit)
	}
	assert.Equal(t, len(mapping.Names()), kinds["assertion"])
	assert.Equal(t, 9, kinds["format"])
	assert.Equal(t, 4, kinds["key-case"])
	assert.Equal(t, 2, kinds["case"])
	assert.Equal(t, 2, kinds["predicate"])
}
