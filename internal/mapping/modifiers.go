package mapping

//go:generate go tool stringer -type=Modifier -trimprefix=Mod -output=modifier_string.go

// Modifier classifies chain segments that change how the rest of the
// chain is read rather than asserting anything themselves.
type Modifier int

const (
	// ModNone means the name is not a modifier.
	ModNone Modifier = iota

	// ModNot negates the next terminal.
	ModNot

	// ModEach switches the remaining terminals to per-element loops.
	ModEach

	// ModDrop is a debugging or output helper with no assertion meaning
	// (dd, dump, ray...). It is removed silently.
	ModDrop

	// ModUnsupported needs a human: sequence, match, when...
	ModUnsupported

	// ModTap runs a callback against the subject without replacing it.
	ModTap

	// ModPipe replaces the subject with callable(subject).
	ModPipe

	// ModJSON replaces the subject with its decoded JSON.
	ModJSON
)

var modifiers = map[string]Modifier{
	"not":  ModNot,
	"each": ModEach,

	"dd":       ModDrop,
	"ddWhen":   ModDrop,
	"ddUnless": ModDrop,
	"dump":     ModDrop,
	"ray":      ModDrop,
	"defer":    ModDrop,

	"sequence":        ModUnsupported,
	"match":           ModUnsupported,
	"scoped":          ModUnsupported,
	"when":            ModUnsupported,
	"unless":          ModUnsupported,
	"toMatchSnapshot": ModUnsupported,

	"tap":  ModTap,
	"pipe": ModPipe,
	"json": ModJSON,
}

// ClassifyModifier returns the modifier kind of a segment name, or
// ModNone.
func ClassifyModifier(name string) Modifier {
	return modifiers[name]
}

// Hook is a Pest lifecycle hook and the PHPUnit method it becomes.
type Hook struct {
	// Pest is the hook function name (beforeEach, afterAll...).
	Pest string

	// Method is the PHPUnit template method.
	Method string

	// Static is true for the class-level hooks.
	Static bool

	// Before is true when the hook runs before tests, so the parent
	// method must be called first rather than last.
	Before bool
}

var hooks = []Hook{
	{Pest: "beforeEach", Method: "setUp", Before: true},
	{Pest: "afterEach", Method: "tearDown"},
	{Pest: "beforeAll", Method: "setUpBeforeClass", Static: true, Before: true},
	{Pest: "afterAll", Method: "tearDownAfterClass", Static: true},
}

// LookupHook returns the PHPUnit hook for a Pest hook function.
func LookupHook(name string) (Hook, bool) {
	for _, h := range hooks {
		if h.Pest == name {
			return h, true
		}
	}
	return Hook{}, false
}

// Hooks returns the hook table in declaration order.
func Hooks() []Hook {
	out := make([]Hook, len(hooks))
	copy(out, hooks)
	return out
}
