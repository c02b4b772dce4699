package phpast

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/token"
)

// MarkerPrefix starts every comment the converter emits where it could
// not translate code automatically. Reviewers grep for it.
const MarkerPrefix = "TODO(pest2phpunit):"

// Marker returns a no-op statement carrying a marker comment:
//
//	// TODO(pest2phpunit): <message>
//	;
//
// The comment is attached to the statement's own token, so it can never
// be dropped independently of the placeholder.
func Marker(message string) *ast.StmtNop {
	message = strings.ReplaceAll(message, "\n", " ")
	return &ast.StmtNop{
		SemiColonTkn: &token.Token{
			Value: []byte(";"),
			FreeFloating: []*token.Token{
				{ID: token.T_COMMENT, Value: []byte("// " + MarkerPrefix + " " + message)},
				{ID: token.T_WHITESPACE, Value: []byte("\n")},
			},
		},
	}
}

// MarkerText returns the message of a marker statement, or "" when n is
// not one.
func MarkerText(n ast.Vertex) string {
	nop, ok := n.(*ast.StmtNop)
	if !ok || nop.SemiColonTkn == nil {
		return ""
	}
	for _, ff := range nop.SemiColonTkn.FreeFloating {
		text := string(ff.Value)
		if i := strings.Index(text, MarkerPrefix); i >= 0 {
			return strings.TrimSpace(text[i+len(MarkerPrefix):])
		}
	}
	return ""
}

// IsMarker reports whether n is a marker statement.
func IsMarker(n ast.Vertex) bool {
	return MarkerText(n) != ""
}
