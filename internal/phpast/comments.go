package phpast

import (
	"reflect"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/token"
)

var tokenPtrType = reflect.TypeOf((*token.Token)(nil))

// LeadingComments returns the comments written directly before n in the
// source, in order. Synthesized nodes have none.
func LeadingComments(n ast.Vertex) []string {
	if n == nil {
		return nil
	}
	tkn := firstToken(reflect.ValueOf(n))
	if tkn == nil {
		return nil
	}
	var out []string
	for _, ff := range tkn.FreeFloating {
		if ff.ID == token.T_COMMENT || ff.ID == token.T_DOC_COMMENT {
			out = append(out, strings.TrimSpace(string(ff.Value)))
		}
	}
	return out
}

// firstToken returns the first non-nil token in field order, which for
// parser-built nodes is the leftmost token of the node.
func firstToken(v reflect.Value) *token.Token {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return firstToken(v.Elem())
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		if v.Type() == tokenPtrType {
			return v.Interface().(*token.Token)
		}
		return firstToken(v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			switch {
			case f.Type() == tokenPtrType, f.Kind() == reflect.Interface, isVertexSlice(f):
				if t := firstToken(f); t != nil {
					return t
				}
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if t := firstToken(v.Index(i)); t != nil {
				return t
			}
		}
	}
	return nil
}

// Comment returns a no-op statement that only carries comments. The
// class writer prints the comments and drops the placeholder.
func Comment(lines []string) *ast.StmtNop {
	ff := make([]*token.Token, 0, 2*len(lines))
	for _, l := range lines {
		ff = append(ff,
			&token.Token{ID: token.T_COMMENT, Value: []byte(l)},
			&token.Token{ID: token.T_WHITESPACE, Value: []byte("\n")},
		)
	}
	return &ast.StmtNop{SemiColonTkn: &token.Token{Value: []byte(";"), FreeFloating: ff}}
}

// IsCommentOnly reports whether n is a comment carrier built by Comment.
func IsCommentOnly(n ast.Vertex) bool {
	nop, ok := n.(*ast.StmtNop)
	if !ok || nop.SemiColonTkn == nil || IsMarker(n) {
		return false
	}
	for _, ff := range nop.SemiColonTkn.FreeFloating {
		if ff.ID == token.T_COMMENT || ff.ID == token.T_DOC_COMMENT {
			return true
		}
	}
	return false
}

// TrailingComments returns the comments between the last statement of
// a closure or block and its closing brace.
func TrailingComments(n ast.Vertex) []string {
	v := reflect.ValueOf(n)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	f := v.Elem().FieldByName("CloseCurlyBracketTkn")
	if !f.IsValid() || f.Type() != tokenPtrType || f.IsNil() {
		return nil
	}
	var out []string
	for _, ff := range f.Interface().(*token.Token).FreeFloating {
		if ff.ID == token.T_COMMENT || ff.ID == token.T_DOC_COMMENT {
			out = append(out, strings.TrimSpace(string(ff.Value)))
		}
	}
	return out
}
