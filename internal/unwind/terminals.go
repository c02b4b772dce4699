package unwind

import (
	"sort"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/mapping"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// handler converts one special terminal. Handlers consume the pending
// negation and go through emit so each-mode applies.
type handler func(u *Unwinder, s *state, seg chain.Segment)

var specials map[string]handler

func init() {
	specials = map[string]handler{
		"toThrow":          (*Unwinder).toThrow,
		"toHaveLength":     (*Unwinder).toHaveLength,
		"toBeBetween":      (*Unwinder).toBeBetween,
		"toContain":        (*Unwinder).toContain,
		"toHaveKey":        (*Unwinder).toHaveKey,
		"toHaveKeys":       (*Unwinder).toHaveKeys,
		"toHaveProperty":   (*Unwinder).toHaveProperty,
		"toHaveProperties": (*Unwinder).toHaveProperties,
		"toMatchArray":     (*Unwinder).toMatchArray,
		"toMatchObject":    (*Unwinder).toMatchObject,
	}
}

// SpecialTerminals returns the names with a dedicated handler, sorted.
// Table-driven groups (formats, key casing, predicates) are listed by
// the mapping package.
func SpecialTerminals() []string {
	names := make([]string, 0, len(specials))
	for n := range specials {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// terminal dispatches seg to a special handler, a categorical table or
// the generic assertion table. It reports whether seg was handled.
func (u *Unwinder) terminal(s *state, seg chain.Segment) bool {
	if h, ok := specials[seg.Name]; ok {
		h(u, s, seg)
		return true
	}
	if fn, ok := mapping.CaseTransform(seg.Name); ok {
		u.caseTransform(s, fn)
		return true
	}
	if re, ok := mapping.FormatRegex(seg.Name); ok {
		u.format(s, re)
		return true
	}
	if re, ok := mapping.KeyCaseRegex(seg.Name); ok {
		u.keyCase(s, re)
		return true
	}
	if p, ok := mapping.LookupPredicate(seg.Name); ok {
		u.predicate(s, seg, p)
		return true
	}
	if a, ok := mapping.Lookup(seg.Name); ok {
		u.mapped(s, seg, a)
		return true
	}
	return false
}

// mapped emits a generic table assertion. A negation without a
// registered counterpart yields a marker and no assertion at all.
func (u *Unwinder) mapped(s *state, seg chain.Segment, a mapping.Assertion) {
	target := a.Target
	if s.take() {
		neg, ok := mapping.Negate(target)
		if !ok {
			s.mark("no direct PHPUnit equivalent for not->%s()", seg.Name)
			return
		}
		target = neg
	}
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Assert(target, orderArgs(a.Order, subject, seg.Args)...)}
	})
}

// orderArgs lays out the assertion arguments. Arguments beyond the
// expected value (delta, message) follow the subject.
func orderArgs(order mapping.ArgOrder, subject ast.Vertex, args []ast.Vertex) []ast.Vertex {
	args = phpast.CloneAll(args)
	switch order {
	case mapping.ExpectedActual:
		if len(args) == 0 {
			return []ast.Vertex{subject}
		}
		out := []ast.Vertex{args[0], subject}
		return append(out, args[1:]...)
	default:
		return append([]ast.Vertex{subject}, args...)
	}
}

func (u *Unwinder) toHaveLength(s *state, seg chain.Segment) {
	target := pick(s.take(), "assertEquals", "assertNotEquals")
	expected := argOrNull(seg, 0)
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		length := phpast.Ternary(
			phpast.Call("is_string", subject),
			phpast.Call("mb_strlen", phpast.Clone(subject)),
			phpast.Call("count", phpast.Clone(subject)),
		)
		return []ast.Vertex{phpast.Assert(target, phpast.Clone(expected), length)}
	})
}

// toBeBetween emits independent lower and upper bound assertions.
// Negation flips both to their strict opposites together.
func (u *Unwinder) toBeBetween(s *state, seg chain.Segment) {
	negated := s.take()
	if len(seg.Args) < 2 {
		s.mark("toBeBetween() needs a lower and an upper bound")
		return
	}
	lower := pick(negated, "assertGreaterThanOrEqual", "assertLessThan")
	upper := pick(negated, "assertLessThanOrEqual", "assertGreaterThan")
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{
			phpast.Assert(lower, phpast.Clone(seg.Args[0]), subject),
			phpast.Assert(upper, phpast.Clone(seg.Args[1]), phpast.Clone(subject)),
		}
	})
}

// toContain checks every needle, choosing the string or iterable
// assertion at runtime.
func (u *Unwinder) toContain(s *state, seg chain.Segment) {
	negated := s.take()
	if len(seg.Args) == 0 {
		s.mark("toContain() without a needle needs manual conversion")
		return
	}
	inString := pick(negated, "assertStringContainsString", "assertStringNotContainsString")
	inList := pick(negated, "assertContains", "assertNotContains")
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		out := make([]ast.Vertex, 0, len(seg.Args))
		for _, needle := range seg.Args {
			out = append(out, phpast.If(
				phpast.Call("is_string", phpast.Clone(subject)),
				[]ast.Vertex{phpast.Assert(inString, phpast.Clone(needle), phpast.Clone(subject))},
				[]ast.Vertex{phpast.Assert(inList, phpast.Clone(needle), phpast.Clone(subject))},
			))
		}
		return out
	})
}

// toHaveKey asserts a key, following dot notation into nested arrays,
// and optionally its value.
func (u *Unwinder) toHaveKey(s *state, seg chain.Segment) {
	negated := s.take()
	key := seg.Arg(0)
	if key == nil {
		s.mark("toHaveKey() without a key needs manual conversion")
		return
	}
	value := seg.Arg(1)
	path := keyPath(key)
	if negated && (value != nil || len(path) > 1) {
		s.mark("no direct PHPUnit equivalent for not->toHaveKey() with a value or nested key")
		return
	}
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return hasKey(subject, key, value, negated)
	})
}

// keyPath splits a literal dotted key ('user.name') into its parts.
// Anything else is a single opaque key.
func keyPath(key ast.Vertex) []string {
	lit, ok := phpast.StringValue(key)
	if !ok || !strings.Contains(lit, ".") {
		return nil
	}
	return strings.Split(lit, ".")
}

func hasKey(subject, key, value ast.Vertex, negated bool) []ast.Vertex {
	if negated {
		return []ast.Vertex{phpast.Assert("assertArrayNotHasKey", phpast.Clone(key), subject)}
	}
	var out []ast.Vertex
	target := subject
	if path := keyPath(key); path != nil {
		for _, part := range path {
			out = append(out, phpast.Assert("assertArrayHasKey", phpast.Str(part), phpast.Clone(target)))
			target = phpast.Index(phpast.Clone(target), phpast.Str(part))
		}
	} else {
		out = append(out, phpast.Assert("assertArrayHasKey", phpast.Clone(key), phpast.Clone(target)))
		target = phpast.Index(phpast.Clone(target), phpast.Clone(key))
	}
	if value != nil {
		out = append(out, phpast.Assert("assertEquals", phpast.Clone(value), target))
	}
	return out
}

// toHaveKeys unrolls a literal key list, or loops over it at runtime.
func (u *Unwinder) toHaveKeys(s *state, seg chain.Segment) {
	negated := s.take()
	keys := seg.Arg(0)
	if keys == nil {
		s.mark("toHaveKeys() without keys needs manual conversion")
		return
	}
	if items, ok := arrayItems(keys); ok {
		for _, item := range items {
			if negated && (item.Key != nil || keyPath(item.Val) != nil) {
				s.mark("no direct PHPUnit equivalent for not->toHaveKeys() with nested keys")
				return
			}
		}
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			var out []ast.Vertex
			for _, item := range items {
				if item.Key != nil {
					// 'user' => ['name', 'email'] checks nested keys.
					out = append(out, hasKey(subject, item.Key, nil, false)...)
					nested, _ := arrayItems(item.Val)
					for _, n := range nested {
						out = append(out, hasKey(phpast.Index(phpast.Clone(subject), phpast.Clone(item.Key)), n.Val, nil, false)...)
					}
					continue
				}
				out = append(out, hasKey(subject, item.Val, nil, negated)...)
			}
			return out
		})
		return
	}

	target := pick(negated, "assertArrayHasKey", "assertArrayNotHasKey")
	key := phpast.Var(u.fresh("key"))
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Foreach(phpast.Clone(keys), nil, key,
			phpast.Assert(target, phpast.Clone(key), subject),
		)}
	})
}

// toHaveProperty asserts a property and, when a second argument is
// given, its value.
func (u *Unwinder) toHaveProperty(s *state, seg chain.Segment) {
	negated := s.take()
	name := seg.Arg(0)
	if name == nil {
		s.mark("toHaveProperty() without a name needs manual conversion")
		return
	}
	value := seg.Arg(1)
	if negated && value != nil {
		s.mark("no direct PHPUnit equivalent for not->toHaveProperty() with a value")
		return
	}
	has := pick(negated, "assertObjectHasProperty", "assertObjectNotHasProperty")
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		out := []ast.Vertex{phpast.Assert(has, phpast.Clone(name), subject)}
		if value == nil {
			return out
		}
		var fetch ast.Vertex
		if lit, ok := phpast.StringValue(name); ok && isIdentifier(lit) {
			fetch = phpast.PropertyFetch(phpast.Clone(subject), lit)
		} else {
			fetch = phpast.DynamicPropertyFetch(phpast.Clone(subject), phpast.Clone(name))
		}
		return append(out, phpast.Assert("assertEquals", phpast.Clone(value), fetch))
	})
}

// toHaveProperties accepts names and name => value pairs.
func (u *Unwinder) toHaveProperties(s *state, seg chain.Segment) {
	negated := s.take()
	props := seg.Arg(0)
	if props == nil {
		s.mark("toHaveProperties() without properties needs manual conversion")
		return
	}
	has := pick(negated, "assertObjectHasProperty", "assertObjectNotHasProperty")

	if items, ok := arrayItems(props); ok && identifierKeys(items) {
		for _, item := range items {
			if negated && item.Key != nil {
				s.mark("no direct PHPUnit equivalent for not->toHaveProperties() with values")
				return
			}
		}
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			var out []ast.Vertex
			for _, item := range items {
				if item.Key == nil {
					out = append(out, phpast.Assert(has, phpast.Clone(item.Val), phpast.Clone(subject)))
					continue
				}
				name, _ := phpast.StringValue(item.Key)
				out = append(out,
					phpast.Assert(has, phpast.Clone(item.Key), phpast.Clone(subject)),
					phpast.Assert("assertEquals", phpast.Clone(item.Val), phpast.PropertyFetch(phpast.Clone(subject), name)),
				)
			}
			return out
		})
		return
	}

	if negated {
		s.mark("no direct PHPUnit equivalent for not->toHaveProperties() with a computed list")
		return
	}
	name, value := phpast.Var(u.fresh("name")), phpast.Var(u.fresh("value"))
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Foreach(phpast.Clone(props), name, value,
			phpast.If(phpast.Call("is_int", phpast.Clone(name)),
				[]ast.Vertex{phpast.Assert(has, phpast.Clone(value), phpast.Clone(subject))},
				[]ast.Vertex{
					phpast.Assert(has, phpast.Clone(name), phpast.Clone(subject)),
					phpast.Assert("assertEquals", phpast.Clone(value),
						phpast.DynamicPropertyFetch(phpast.Clone(subject), phpast.Clone(name))),
				},
			),
		)}
	})
}

// toMatchArray asserts every expected key and its value.
func (u *Unwinder) toMatchArray(s *state, seg chain.Segment) {
	u.matchEach(s, seg, "assertArrayHasKey", func(subject, key ast.Vertex) ast.Vertex {
		return phpast.Index(subject, key)
	})
}

// toMatchObject asserts every expected property and its value.
func (u *Unwinder) toMatchObject(s *state, seg chain.Segment) {
	u.matchEach(s, seg, "assertObjectHasProperty", func(subject, key ast.Vertex) ast.Vertex {
		if name, ok := phpast.StringValue(key); ok && isIdentifier(name) {
			return phpast.PropertyFetch(subject, name)
		}
		return phpast.DynamicPropertyFetch(subject, key)
	})
}

// matchEach is the shared shape of toMatchArray and toMatchObject:
// a presence assertion and an equality assertion per expected entry.
// Literal arrays with literal keys are unrolled; anything else loops at
// runtime.
func (u *Unwinder) matchEach(s *state, seg chain.Segment, has string, fetch func(subject, key ast.Vertex) ast.Vertex) {
	if s.take() {
		s.mark("no direct PHPUnit equivalent for not->%s()", seg.Name)
		return
	}
	expected := seg.Arg(0)
	if expected == nil {
		s.mark("%s() without an expected value needs manual conversion", seg.Name)
		return
	}

	if items, ok := arrayItems(expected); ok && literalKeys(items) {
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			var out []ast.Vertex
			for _, item := range items {
				out = append(out,
					phpast.Assert(has, phpast.Clone(item.Key), phpast.Clone(subject)),
					phpast.Assert("assertEquals", phpast.Clone(item.Val), fetch(phpast.Clone(subject), phpast.Clone(item.Key))),
				)
			}
			return out
		})
		return
	}

	key, value := phpast.Var(u.fresh("key")), phpast.Var(u.fresh("value"))
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Foreach(phpast.Clone(expected), key, value,
			phpast.Assert(has, phpast.Clone(key), phpast.Clone(subject)),
			phpast.Assert("assertEquals", phpast.Clone(value), fetch(phpast.Clone(subject), phpast.Clone(key))),
		)}
	})
}

// caseTransform compares the subject with its upper or lower cased
// copy.
func (u *Unwinder) caseTransform(s *state, fn string) {
	target := pick(s.take(), "assertSame", "assertNotSame")
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Assert(target, phpast.Call(fn, subject), phpast.Clone(subject))}
	})
}

func (u *Unwinder) format(s *state, re string) {
	target := pick(s.take(), "assertMatchesRegularExpression", "assertDoesNotMatchRegularExpression")
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Assert(target, phpast.Str(re), subject)}
	})
}

// keyCase loops over the subject's keys and matches each against the
// casing regex.
func (u *Unwinder) keyCase(s *state, re string) {
	target := pick(s.take(), "assertMatchesRegularExpression", "assertDoesNotMatchRegularExpression")
	key := phpast.Var(u.fresh("key"))
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		return []ast.Vertex{phpast.Foreach(phpast.Call("array_keys", subject), nil, key,
			phpast.Assert(target, phpast.Str(re), phpast.Call("strval", phpast.Clone(key))),
		)}
	})
}

func (u *Unwinder) predicate(s *state, seg chain.Segment, p mapping.Predicate) {
	target := pick(s.take(), "assertTrue", "assertFalse")
	if p.TakesArg && seg.Arg(0) == nil {
		s.mark("%s() without an argument needs manual conversion", seg.Name)
		return
	}
	u.emit(s, func(subject ast.Vertex) []ast.Vertex {
		args := []ast.Vertex{subject}
		if p.TakesArg {
			args = append(args, phpast.Clone(seg.Arg(0)))
		}
		return []ast.Vertex{phpast.Assert(target, phpast.Call(p.Func, args...))}
	})
}

// pick returns positive, or negative when negated is set.
func pick(negated bool, positive, negative string) string {
	if negated {
		return negative
	}
	return positive
}

func argOrNull(seg chain.Segment, i int) ast.Vertex {
	if a := seg.Arg(i); a != nil {
		return a
	}
	return phpast.Null()
}

// arrayItems returns the items of an array literal. Spread items make
// the literal opaque.
func arrayItems(n ast.Vertex) ([]*ast.ExprArrayItem, bool) {
	arr, ok := n.(*ast.ExprArray)
	if !ok {
		return nil, false
	}
	items := make([]*ast.ExprArrayItem, 0, len(arr.Items))
	for _, it := range arr.Items {
		item, ok := it.(*ast.ExprArrayItem)
		if !ok || item == nil || item.Val == nil {
			continue
		}
		if item.EllipsisTkn != nil {
			return nil, false
		}
		items = append(items, item)
	}
	return items, true
}

// literalKeys reports whether every item has a scalar literal key.
func literalKeys(items []*ast.ExprArrayItem) bool {
	for _, item := range items {
		switch item.Key.(type) {
		case *ast.ScalarString, *ast.ScalarLnumber:
		default:
			return false
		}
	}
	return true
}

// identifierKeys reports whether every keyed item uses a plain string
// key that is also a valid property name.
func identifierKeys(items []*ast.ExprArrayItem) bool {
	for _, item := range items {
		if item.Key == nil {
			continue
		}
		name, ok := phpast.StringValue(item.Key)
		if !ok || !isIdentifier(name) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
