package convert

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MethodStyle selects how test descriptions become method names.
type MethodStyle string

const (
	// SnakeCase names methods test_it_adds_numbers.
	SnakeCase MethodStyle = "snake"

	// CamelCase names methods testItAddsNumbers.
	CamelCase MethodStyle = "camel"
)

// ParseMethodStyle validates a configured method style. The empty
// string selects SnakeCase.
func ParseMethodStyle(s string) (MethodStyle, error) {
	switch MethodStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", SnakeCase:
		return SnakeCase, nil
	case CamelCase:
		return CamelCase, nil
	}
	return "", fmt.Errorf("unknown method style %q (want %q or %q)", s, SnakeCase, CamelCase)
}

// words splits a free-text description into lower-cased words.
// Apostrophes join their word ("it's" is "its").
func words(s string) []string {
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// upperFirst upper-cases the first rune of s and keeps the rest.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func studly(parts []string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(upperFirst(p))
	}
	return sb.String()
}

// MethodName turns a test description into a PHPUnit test method
// name. The result always starts with "test" so PHPUnit discovers it
// without an attribute.
func MethodName(description string, style MethodStyle) string {
	w := words(description)
	if len(w) == 0 {
		w = []string{"unnamed"}
	}
	if style == CamelCase {
		return "test" + studly(w)
	}
	return "test_" + strings.Join(w, "_")
}

// ProviderName names the data provider for a test description or a
// shared dataset. Providers never start with "test", which would make
// PHPUnit run them.
func ProviderName(base string) string {
	w := words(base)
	if len(w) == 0 {
		w = []string{"data"}
	}
	return "provide" + studly(w)
}

// ClassName derives the test class name from a file path:
// tests/Feature/user_login.php becomes UserLoginTest.
func ClassName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	name := studly(parts)
	if name == "" {
		name = "Converted"
	}
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) {
		name = "Test" + name
	}
	if !strings.HasSuffix(name, "Test") {
		name += "Test"
	}
	return name
}

// names hands out unique method names within one class.
type names struct {
	style MethodStyle
	used  map[string]bool
}

func newNames(style MethodStyle, reserved ...string) *names {
	n := &names{style: style, used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

// unique returns name, or name with the smallest numeric suffix that
// is still free. PHP method names are case-insensitive.
func (n *names) unique(name string) string {
	candidate := name
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		if n.style == CamelCase {
			candidate = name + strconv.Itoa(i)
		} else {
			candidate = name + "_" + strconv.Itoa(i)
		}
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
