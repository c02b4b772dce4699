package phpast

import (
	"bytes"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/visitor/printer"
)

// Render prints a node back to PHP source. Nodes that came from the
// parser keep their original whitespace and comments; synthesized
// nodes print in the printer's compact default layout.
//
// The parser hangs the opening tag on the first statement's leading
// tokens; it is dropped unless n is the whole file.
func Render(n ast.Vertex) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	p := printer.NewPrinter(&buf)
	n.Accept(p)
	if _, ok := n.(*ast.Root); ok {
		return buf.String()
	}
	return stripOpenTag(buf.String())
}

func stripOpenTag(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, "<?php") {
		return s
	}
	return strings.TrimPrefix(trimmed, "<?php")
}

// RenderStmts prints each statement trimmed and on its own line.
func RenderStmts(stmts []ast.Vertex) string {
	var sb strings.Builder
	for _, s := range stmts {
		sb.WriteString(strings.TrimSpace(Render(s)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Compact removes all whitespace from s. Tests and the leak checker
// compare printed code this way so that layout differences between
// parsed and synthesized nodes do not matter.
func Compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
