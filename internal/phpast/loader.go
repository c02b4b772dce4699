// Package phpast wraps the VKCOM PHP parser and printer and provides
// the small set of tree utilities the converter needs: deep cloning,
// rebuild-with-substitution, node builders and marker statements.
package phpast

import (
	"fmt"
	"os"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/conf"
	phperrors "github.com/VKCOM/php-parser/pkg/errors"
	"github.com/VKCOM/php-parser/pkg/parser"
	"github.com/VKCOM/php-parser/pkg/version"
)

// ParseError reports syntax errors found by the PHP parser.
type ParseError struct {
	// Path is the file being parsed, empty for in-memory snippets.
	Path string

	// Messages holds one entry per parser diagnostic.
	Messages []string
}

func (e *ParseError) Error() string {
	name := e.Path
	if name == "" {
		name = "<source>"
	}
	return fmt.Sprintf("parsing %s:\n  %s", name, strings.Join(e.Messages, "\n  "))
}

// Parse parses PHP source (PHP 8.1 grammar) and returns the root node.
// Sources without an opening tag are treated as a bare statement list.
// Any parser diagnostic makes Parse fail; partial trees are never
// returned because the converter must not rewrite a file it only
// half understood.
func Parse(src []byte) (*ast.Root, error) {
	return parse("", src)
}

// ParseFile reads and parses the PHP file at path.
func ParseFile(path string) (*ast.Root, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	root, err := parse(path, src)
	if err != nil {
		return nil, nil, err
	}
	return root, src, nil
}

func parse(path string, src []byte) (*ast.Root, error) {
	if !strings.HasPrefix(strings.TrimSpace(string(src)), "<?php") {
		src = append([]byte("<?php\n"), src...)
	}

	var diags []*phperrors.Error
	cfg := conf.Config{
		Version: &version.Version{Major: 8, Minor: 1},
		ErrorHandlerFunc: func(e *phperrors.Error) {
			diags = append(diags, e)
		},
	}

	node, err := parser.Parse(src, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", displayPath(path), err)
	}
	if len(diags) > 0 {
		msgs := make([]string, 0, len(diags))
		for _, d := range diags {
			msgs = append(msgs, d.Msg)
		}
		return nil, &ParseError{Path: path, Messages: msgs}
	}

	root, ok := node.(*ast.Root)
	if !ok {
		return nil, fmt.Errorf("parsing %s: parse result is %T, not *ast.Root", displayPath(path), node)
	}
	return root, nil
}

// ParseStatements parses a snippet and returns its top-level statements.
func ParseStatements(src string) ([]ast.Vertex, error) {
	root, err := Parse([]byte(src))
	if err != nil {
		return nil, err
	}
	return root.Stmts, nil
}

// ParseExpr parses a single expression statement and returns the
// expression. It is mostly useful to tests and the explain command.
func ParseExpr(src string) (ast.Vertex, error) {
	src = strings.TrimSpace(src)
	if !strings.HasSuffix(src, ";") {
		src += ";"
	}
	stmts, err := ParseStatements(src)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected one statement, got %d", len(stmts))
	}
	es, ok := stmts[0].(*ast.StmtExpression)
	if !ok {
		return nil, fmt.Errorf("expected an expression statement, got %T", stmts[0])
	}
	return es.Expr, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<source>"
	}
	return path
}
