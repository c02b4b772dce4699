// Package chain turns a fluent Pest expectation chain such as
//
//	expect($user)->not->toBeNull()->and($user->name)->toBe('Ada')
//
// into ordered segments and independent assertion groups.
package chain

import (
	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

//go:generate go tool stringer -type=Kind -output=kind_string.go

// Kind distinguishes property links from method-call links.
type Kind int

const (
	// Property is a property fetch: ->not, ->each, ->name.
	Property Kind = iota

	// MethodCall is a method call: ->toBe(1), ->count().
	MethodCall
)

// Segment is one link of a chain. Segments are read-only once built.
type Segment struct {
	Kind Kind

	// Name is the method or property name. Dynamic names (->$prop)
	// hold their rendered source.
	Name string

	// Args are the call's argument expressions, nil for properties.
	Args []ast.Vertex

	// NameNode is the original name node, used when the segment is
	// folded back onto the subject as an accessor.
	NameNode ast.Vertex
}

// Arg returns the i-th argument or nil.
func (s Segment) Arg(i int) ast.Vertex {
	if i < 0 || i >= len(s.Args) {
		return nil
	}
	return s.Args[i]
}

// Group is a subject with the segments that apply to it.
type Group struct {
	// Subject is never nil.
	Subject  ast.Vertex
	Segments []Segment
}

// Flatten peels method calls and property fetches off expr until it
// reaches a call to the entry-point function. It returns the entry
// point's first argument and the segments in call order.
//
// ok is false when the chain is not rooted at the entry point, or the
// entry-point call has no arguments.
func Flatten(expr ast.Vertex, entryPoint string) (subject ast.Vertex, segments []Segment, ok bool) {
	root, segments := Peel(expr)
	call, isCall := root.(*ast.ExprFunctionCall)
	if !isCall || phpast.FuncName(call) != entryPoint {
		return nil, nil, false
	}
	args := phpast.ArgExprs(call.Args)
	if len(args) == 0 {
		return nil, nil, false
	}
	return args[0], segments, true
}

// Peel strips method calls and property fetches from expr and returns
// the innermost receiver with the stripped links in call order.
func Peel(expr ast.Vertex) (root ast.Vertex, segments []Segment) {
	cur := expr
	for {
		switch n := cur.(type) {
		case *ast.ExprMethodCall:
			segments = append(segments, Segment{
				Kind:     MethodCall,
				Name:     phpast.NameOf(n.Method),
				Args:     phpast.ArgExprs(n.Args),
				NameNode: n.Method,
			})
			cur = n.Var
		case *ast.ExprPropertyFetch:
			segments = append(segments, Segment{
				Kind:     Property,
				Name:     phpast.NameOf(n.Prop),
				NameNode: n.Prop,
			})
			cur = n.Var
		default:
			reverse(segments)
			return cur, segments
		}
	}
}

func reverse(s []Segment) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Split cuts segments into groups at every call to the join method.
// The first group gets subject; each later group's subject is the join
// call's first argument. A join call without arguments gets a null
// placeholder subject.
func Split(subject ast.Vertex, segments []Segment, join string) []Group {
	groups := make([]Group, 0, 1)
	cur := Group{Subject: subject}
	for _, seg := range segments {
		if seg.Kind == MethodCall && seg.Name == join {
			groups = append(groups, cur)
			next := seg.Arg(0)
			if next == nil {
				next = phpast.Null()
			}
			cur = Group{Subject: next}
			continue
		}
		cur.Segments = append(cur.Segments, seg)
	}
	return append(groups, cur)
}

// Root strips method calls and property fetches (plain and nullsafe)
// from expr and returns what remains: the receiver the chain starts on.
func Root(expr ast.Vertex) ast.Vertex {
	cur := expr
	for {
		switch n := cur.(type) {
		case *ast.ExprMethodCall:
			cur = n.Var
		case *ast.ExprPropertyFetch:
			cur = n.Var
		case *ast.ExprNullsafeMethodCall:
			cur = n.Var
		case *ast.ExprNullsafePropertyFetch:
			cur = n.Var
		default:
			return cur
		}
	}
}

// IsEntryCall reports whether expr is a call to the entry-point
// function, with or without arguments.
func IsEntryCall(expr ast.Vertex, entryPoint string) bool {
	call, ok := expr.(*ast.ExprFunctionCall)
	return ok && phpast.FuncName(call) == entryPoint
}

// RootedAt reports whether expr is a chain whose root is a call to the
// entry-point function.
func RootedAt(expr ast.Vertex, entryPoint string) bool {
	return IsEntryCall(Root(expr), entryPoint)
}

// Rebuild folds segments back onto recv, producing the chained
// expression recv->a->b(...). It is the inverse of Flatten for the
// segment part of a chain.
func Rebuild(recv ast.Vertex, segments []Segment) ast.Vertex {
	cur := recv
	for _, seg := range segments {
		cur = Fold(cur, seg)
	}
	return cur
}

// Fold applies one segment to recv as a plain accessor.
func Fold(recv ast.Vertex, seg Segment) ast.Vertex {
	name := seg.NameNode
	if name == nil {
		name = phpast.Ident(seg.Name)
	} else {
		name = phpast.Clone(name)
	}
	if seg.Kind == Property {
		return phpast.DynamicPropertyFetch(recv, name)
	}
	return &ast.ExprMethodCall{
		Var:    recv,
		Method: name,
		Args:   phpast.Args(phpast.CloneAll(seg.Args)...),
	}
}
