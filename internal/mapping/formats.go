package mapping

import "sort"

// Format regexes are PHP PCRE literals, emitted verbatim into
// assertMatchesRegularExpression calls.
var formats = map[string]string{
	"toBeAlpha":        `/^[a-zA-Z]+$/`,
	"toBeAlphaNumeric": `/^[a-zA-Z0-9]+$/`,
	"toBeDigits":       `/^[0-9]+$/`,
	"toBeSnakeCase":    `/^[a-z0-9]+(?:_[a-z0-9]+)*$/`,
	"toBeKebabCase":    `/^[a-z0-9]+(?:-[a-z0-9]+)*$/`,
	"toBeCamelCase":    `/^[a-z][a-zA-Z0-9]*$/`,
	"toBeStudlyCase":   `/^[A-Z][a-zA-Z0-9]*$/`,
	"toBeUuid":         `/^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$/i`,
	"toBeUrl":          `~^https?://[^\s/$.?#].[^\s]*$~i`,
}

// keyCases holds one regex per key casing convention. Keys are matched
// after strval(), so integer keys always fail.
var keyCases = map[string]string{
	"toHaveKebabCaseKeys":  `/^[a-z][a-z0-9]*(?:-[a-z0-9]+)*$/`,
	"toHaveCamelCaseKeys":  `/^[a-z][a-zA-Z0-9]*$/`,
	"toHaveSnakeCaseKeys":  `/^[a-z][a-z0-9]*(?:_[a-z0-9]+)*$/`,
	"toHaveStudlyCaseKeys": `/^[A-Z][a-zA-Z0-9]*$/`,
}

// caseTransforms compares the subject with a case-converted copy of
// itself, which is exact where a regex would only approximate.
var caseTransforms = map[string]string{
	"toBeUppercase": "mb_strtoupper",
	"toBeLowercase": "mb_strtolower",
}

// Predicate is a terminal that becomes assertTrue over a PHP builtin.
type Predicate struct {
	// Func is the PHP function called with the subject.
	Func string

	// TakesArg is true when the terminal's first argument is passed
	// after the subject: toHaveMethod('x') -> method_exists($s, 'x').
	TakesArg bool
}

var predicates = map[string]Predicate{
	"toHaveMethod":  {Func: "method_exists", TakesArg: true},
	"toBeInvokable": {Func: "is_callable"},
}

// FormatRegex returns the regex literal of a format terminal.
func FormatRegex(name string) (string, bool) {
	re, ok := formats[name]
	return re, ok
}

// KeyCaseRegex returns the regex literal a key-case terminal applies
// to every key of the subject.
func KeyCaseRegex(name string) (string, bool) {
	re, ok := keyCases[name]
	return re, ok
}

// CaseTransform returns the PHP function of an uppercase/lowercase
// terminal.
func CaseTransform(name string) (string, bool) {
	fn, ok := caseTransforms[name]
	return fn, ok
}

// LookupPredicate returns the predicate terminal for name.
func LookupPredicate(name string) (Predicate, bool) {
	p, ok := predicates[name]
	return p, ok
}

// Rule describes one table-driven translation for listings.
type Rule struct {
	Pest    string `json:"pest"`
	PHPUnit string `json:"phpunit"`
	Negated string `json:"negated,omitempty"`
	Kind    string `json:"kind"`
}

// Rules lists every table-driven translation, sorted by kind then
// Pest name. Rules without a negated form leave Negated empty.
func Rules() []Rule {
	var out []Rule
	for name, a := range assertions {
		neg, _ := Negate(a.Target)
		out = append(out, Rule{Pest: name, PHPUnit: a.Target, Negated: neg, Kind: "assertion"})
	}
	for name, re := range formats {
		out = append(out, Rule{
			Pest:    name,
			PHPUnit: "assertMatchesRegularExpression " + re,
			Negated: "assertDoesNotMatchRegularExpression",
			Kind:    "format",
		})
	}
	for name, re := range keyCases {
		out = append(out, Rule{
			Pest:    name,
			PHPUnit: "foreach key: assertMatchesRegularExpression " + re,
			Negated: "assertDoesNotMatchRegularExpression",
			Kind:    "key-case",
		})
	}
	for name, fn := range caseTransforms {
		out = append(out, Rule{
			Pest:    name,
			PHPUnit: "assertSame(" + fn + "(x), x)",
			Negated: "assertNotSame",
			Kind:    "case",
		})
	}
	for name, p := range predicates {
		out = append(out, Rule{
			Pest:    name,
			PHPUnit: "assertTrue(" + p.Func + "(...))",
			Negated: "assertFalse",
			Kind:    "predicate",
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Pest < out[j].Pest
	})
	return out
}
