// Package mapping holds the static tables that translate Pest
// expectation names into PHPUnit assertions.
//
// The tables are immutable package-level values. Lookups never allocate
// and are safe for concurrent use.
package mapping

import "sort"

//go:generate go tool stringer -type=ArgOrder -output=argorder_string.go

// ArgOrder says how a terminal's arguments and the subject are laid out
// in the generated PHPUnit call.
type ArgOrder int

const (
	// ExpectedActual puts the terminal's first argument first, then the
	// subject, then any remaining terminal arguments:
	// toBe(1) -> assertSame(1, $subject).
	ExpectedActual ArgOrder = iota

	// ActualOnly passes only the subject: toBeTrue() -> assertTrue($subject).
	ActualOnly

	// ActualExpected puts the subject first, then the terminal's
	// arguments: toBeIn($list) -> assertContains($subject, $list).
	ActualExpected
)

// Assertion is the PHPUnit translation of a Pest terminal.
type Assertion struct {
	// Target is the PHPUnit assertion method name.
	Target string

	// Order is the argument layout of the call.
	Order ArgOrder
}

var assertions = map[string]Assertion{
	// Identity and equality.
	"toBe":                     {"assertSame", ExpectedActual},
	"toEqual":                  {"assertEquals", ExpectedActual},
	"toEqualCanonicalizing":    {"assertEqualsCanonicalizing", ExpectedActual},
	"toEqualWithDelta":         {"assertEqualsWithDelta", ExpectedActual},
	"toBeInstanceOf":           {"assertInstanceOf", ExpectedActual},
	"toHaveCount":              {"assertCount", ExpectedActual},
	"toHaveSameSize":           {"assertSameSize", ExpectedActual},
	"toContainEqual":           {"assertContainsEquals", ExpectedActual},
	"toContainOnlyInstancesOf": {"assertContainsOnlyInstancesOf", ExpectedActual},

	// Strings.
	"toMatch":     {"assertMatchesRegularExpression", ExpectedActual},
	"toStartWith": {"assertStringStartsWith", ExpectedActual},
	"toEndWith":   {"assertStringEndsWith", ExpectedActual},

	// Ordering.
	"toBeGreaterThan":        {"assertGreaterThan", ExpectedActual},
	"toBeGreaterThanOrEqual": {"assertGreaterThanOrEqual", ExpectedActual},
	"toBeLessThan":           {"assertLessThan", ExpectedActual},
	"toBeLessThanOrEqual":    {"assertLessThanOrEqual", ExpectedActual},

	// Scalars and truthiness.
	"toBeTrue":     {"assertTrue", ActualOnly},
	"toBeFalse":    {"assertFalse", ActualOnly},
	"toBeNull":     {"assertNull", ActualOnly},
	"toBeEmpty":    {"assertEmpty", ActualOnly},
	"toBeTruthy":   {"assertNotEmpty", ActualOnly},
	"toBeFalsy":    {"assertEmpty", ActualOnly},
	"toBeNan":      {"assertNan", ActualOnly},
	"toBeInfinite": {"assertInfinite", ActualOnly},
	"toBeFinite":   {"assertFinite", ActualOnly},
	"toBeJson":     {"assertJson", ActualOnly},
	"toBeList":     {"assertIsList", ActualOnly},

	// Types.
	"toBeArray":    {"assertIsArray", ActualOnly},
	"toBeBool":     {"assertIsBool", ActualOnly},
	"toBeCallable": {"assertIsCallable", ActualOnly},
	"toBeFloat":    {"assertIsFloat", ActualOnly},
	"toBeInt":      {"assertIsInt", ActualOnly},
	"toBeIterable": {"assertIsIterable", ActualOnly},
	"toBeNumeric":  {"assertIsNumeric", ActualOnly},
	"toBeObject":   {"assertIsObject", ActualOnly},
	"toBeResource": {"assertIsResource", ActualOnly},
	"toBeScalar":   {"assertIsScalar", ActualOnly},
	"toBeString":   {"assertIsString", ActualOnly},

	// Filesystem.
	"toBeFile":              {"assertFileExists", ActualOnly},
	"toBeDirectory":         {"assertDirectoryExists", ActualOnly},
	"toBeReadableFile":      {"assertFileIsReadable", ActualOnly},
	"toBeWritableFile":      {"assertFileIsWritable", ActualOnly},
	"toBeReadableDirectory": {"assertDirectoryIsReadable", ActualOnly},
	"toBeWritableDirectory": {"assertDirectoryIsWritable", ActualOnly},

	// Subject first.
	"toBeIn":            {"assertContains", ActualExpected},
	"toMatchConstraint": {"assertThat", ActualExpected},
}

// negations maps a PHPUnit assertion to the assertion that holds
// exactly when the first one fails. Assertions without an entry have
// no safe negated form.
var negations = map[string]string{
	"assertSame":                     "assertNotSame",
	"assertEquals":                   "assertNotEquals",
	"assertEqualsCanonicalizing":     "assertNotEqualsCanonicalizing",
	"assertEqualsWithDelta":          "assertNotEqualsWithDelta",
	"assertInstanceOf":               "assertNotInstanceOf",
	"assertCount":                    "assertNotCount",
	"assertSameSize":                 "assertNotSameSize",
	"assertObjectHasProperty":        "assertObjectNotHasProperty",
	"assertContainsEquals":           "assertNotContainsEquals",
	"assertContains":                 "assertNotContains",
	"assertMatchesRegularExpression": "assertDoesNotMatchRegularExpression",
	"assertStringStartsWith":         "assertStringStartsNotWith",
	"assertStringEndsWith":           "assertStringEndsNotWith",
	"assertGreaterThan":              "assertLessThanOrEqual",
	"assertGreaterThanOrEqual":       "assertLessThan",
	"assertLessThan":                 "assertGreaterThanOrEqual",
	"assertLessThanOrEqual":          "assertGreaterThan",
	"assertTrue":                     "assertNotTrue",
	"assertFalse":                    "assertNotFalse",
	"assertNull":                     "assertNotNull",
	"assertEmpty":                    "assertNotEmpty",
	"assertNotEmpty":                 "assertEmpty",
	"assertIsArray":                  "assertIsNotArray",
	"assertIsBool":                   "assertIsNotBool",
	"assertIsCallable":               "assertIsNotCallable",
	"assertIsFloat":                  "assertIsNotFloat",
	"assertIsInt":                    "assertIsNotInt",
	"assertIsIterable":               "assertIsNotIterable",
	"assertIsNumeric":                "assertIsNotNumeric",
	"assertIsObject":                 "assertIsNotObject",
	"assertIsResource":               "assertIsNotResource",
	"assertIsScalar":                 "assertIsNotScalar",
	"assertIsString":                 "assertIsNotString",
	"assertFileExists":               "assertFileDoesNotExist",
	"assertDirectoryExists":          "assertDirectoryDoesNotExist",
	"assertFileIsReadable":           "assertFileIsNotReadable",
	"assertFileIsWritable":           "assertFileIsNotWritable",
	"assertDirectoryIsReadable":      "assertDirectoryIsNotReadable",
	"assertDirectoryIsWritable":      "assertDirectoryIsNotWritable",
	"assertStringContainsString":     "assertStringNotContainsString",
	"assertArrayHasKey":              "assertArrayNotHasKey",
}

// Lookup returns the generic PHPUnit translation of a Pest terminal.
func Lookup(name string) (Assertion, bool) {
	a, ok := assertions[name]
	return a, ok
}

// Negate returns the negated counterpart of a PHPUnit assertion.
// ok is false when no counterpart is registered; callers must then
// flag the site for manual review instead of guessing.
func Negate(target string) (string, bool) {
	n, ok := negations[target]
	return n, ok
}

// Names returns every Pest terminal name in the generic table, sorted.
func Names() []string {
	names := make([]string, 0, len(assertions))
	for n := range assertions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
