package phpast

import (
	"reflect"

	"github.com/VKCOM/php-parser/pkg/ast"
)

var vertexType = reflect.TypeOf((*ast.Vertex)(nil)).Elem()

// Clone returns a deep copy of n. The copy shares no pointers with the
// original, so it can be spliced into another tree and edited freely.
func Clone(n ast.Vertex) ast.Vertex {
	if n == nil {
		return nil
	}
	return Rewrite(n, nil)
}

// CloneAll deep-copies every node in list.
func CloneAll(list []ast.Vertex) []ast.Vertex {
	if list == nil {
		return nil
	}
	out := make([]ast.Vertex, len(list))
	for i, n := range list {
		out[i] = Clone(n)
	}
	return out
}

// RewriteFunc inspects a node during Rewrite. Returning (repl, true)
// substitutes a fresh copy of repl for the node and skips its subtree.
type RewriteFunc func(n ast.Vertex) (ast.Vertex, bool)

// Rewrite rebuilds the tree rooted at n bottom-up, applying fn to every
// node before its children are visited. The input is never modified and
// every substituted replacement is copied per occurrence, so one
// replacement expression used at N sites yields N independent nodes.
func Rewrite(n ast.Vertex, fn RewriteFunc) ast.Vertex {
	if n == nil {
		return nil
	}
	v := reflect.ValueOf(&n).Elem()
	out := copyValue(v, fn)
	if out.IsNil() {
		return nil
	}
	return out.Interface().(ast.Vertex)
}

func copyValue(v reflect.Value, fn RewriteFunc) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		if fn != nil && v.Type() == vertexType {
			if repl, ok := fn(v.Interface().(ast.Vertex)); ok {
				return copyValue(reflect.ValueOf(&repl).Elem(), nil)
			}
		}
		elem := copyValue(v.Elem(), fn)
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out

	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(copyValue(v.Elem(), fn))
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(copyValue(v.Field(i), fn))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i), fn))
		}
		return out

	default:
		return v
	}
}

// Inspect walks the tree rooted at n in depth-first order, calling fn
// for every node. If fn returns false the node's children are skipped.
func Inspect(n ast.Vertex, fn func(ast.Vertex) bool) {
	if n == nil {
		return
	}
	inspectValue(reflect.ValueOf(&n).Elem(), fn)
}

func inspectValue(v reflect.Value, fn func(ast.Vertex) bool) {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return
		}
		if v.Type() == vertexType {
			if !fn(v.Interface().(ast.Vertex)) {
				return
			}
		}
		inspectValue(v.Elem(), fn)
	case reflect.Ptr:
		if v.IsNil() {
			return
		}
		inspectValue(v.Elem(), fn)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if f.Kind() == reflect.Interface || isVertexSlice(f) {
				inspectValue(f, fn)
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			inspectValue(v.Index(i), fn)
		}
	}
}

func isVertexSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem() == vertexType
}
