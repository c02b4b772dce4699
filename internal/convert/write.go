package convert

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

const indent = "    "

// write assembles the class source. Parsed statements keep their own
// layout, re-indented to their new depth.
func (c *class) write() string {
	s := c.suite
	var sections [][]string

	head := []string{"<?php"}
	sections = append(sections, head)
	if len(s.declares) > 0 {
		sections = append(sections, renderAll(s.declares, ""))
	}
	ns := s.namespace
	if ns == "" {
		ns = s.opts.Namespace
	}
	if ns != "" {
		sections = append(sections, []string{"namespace " + ns + ";"})
	}
	if imports := c.importLines(); len(imports) > 0 {
		sections = append(sections, imports)
	}
	if len(s.preamble) > 0 {
		sections = append(sections, renderAll(s.preamble, ""))
	}
	sections = append(sections, c.classLines())

	var sb strings.Builder
	for i, sec := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, l := range sec {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (c *class) importLines() []string {
	lines := renderAll(c.suite.imports, "")
	for _, imp := range c.imports {
		lines = append(lines, "use "+imp+";")
	}
	return lines
}

func (c *class) classLines() []string {
	s := c.suite
	var lines []string
	lines = append(lines, dedupe(s.classAttrs)...)

	decl := "class " + c.name
	if s.opts.Final {
		decl = "final " + decl
	}
	if c.extends != "" {
		decl += " extends " + c.extends
	}
	lines = append(lines, decl, "{")

	var blocks [][]string
	if len(s.traits) > 0 {
		var uses []string
		for _, t := range dedupe(s.traits) {
			uses = append(uses, indent+"use "+t+";")
		}
		blocks = append(blocks, uses)
	}
	if len(s.notes) > 0 {
		var notes []string
		for _, n := range s.notes {
			notes = append(notes, indent+"// "+phpast.MarkerPrefix+" "+n)
		}
		blocks = append(blocks, notes)
	}
	for _, m := range c.methods {
		blocks = append(blocks, m.render(indent))
	}
	for i, b := range blocks {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, b...)
	}
	return append(lines, "}")
}

// render lays out the method at the given indentation.
func (m *method) render(at string) []string {
	var out []string
	out = append(out, commentLines(m.comments, at)...)
	for _, a := range m.attributes {
		out = append(out, at+a)
	}
	out = append(out, at+m.signature, at+"{")

	inner := at + indent
	for _, l := range m.head {
		out = append(out, inner+l)
	}
	if m.kind == providerMethod {
		for _, l := range m.lines {
			out = append(out, inner+l)
		}
	} else {
		out = append(out, renderAll(m.body, inner)...)
	}
	for _, l := range m.tail {
		out = append(out, inner+l)
	}
	return append(out, at+"}")
}

func renderAll(stmts []ast.Vertex, at string) []string {
	var out []string
	for _, stmt := range stmts {
		out = append(out, renderStmt(stmt, at)...)
	}
	return out
}

// renderStmt prints one statement at the given indentation. The
// statement's own indentation in the source is replaced, keeping the
// relative indentation of its inner lines.
func renderStmt(stmt ast.Vertex, at string) []string {
	if msg := phpast.MarkerText(stmt); msg != "" {
		return []string{at + "// " + phpast.MarkerPrefix + " " + msg}
	}
	if phpast.IsCommentOnly(stmt) {
		return commentLines(phpast.LeadingComments(stmt), at)
	}

	raw := phpast.Render(stmt)
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	lead := raw[:len(raw)-len(trimmed)]
	base := lead[strings.LastIndex(lead, "\n")+1:]
	text := strings.TrimRight(trimmed, " \t\r\n")
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if multilineLiteral(stmt) {
		// Re-indenting would change the literal's contents.
		lines[0] = at + lines[0]
		return lines
	}
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		switch {
		case l == "":
			out = append(out, "")
		case i == 0:
			out = append(out, at+l)
		case strings.HasPrefix(l, base):
			out = append(out, at+l[len(base):])
		default:
			out = append(out, at+strings.TrimLeft(l, " \t"))
		}
	}
	return out
}

// commentLines lays out comments, aligning docblock continuation lines.
func commentLines(comments []string, at string) []string {
	var out []string
	for _, c := range comments {
		for i, l := range strings.Split(c, "\n") {
			l = strings.TrimSpace(l)
			if i > 0 && strings.HasPrefix(l, "*") {
				l = " " + l
			}
			out = append(out, at+l)
		}
	}
	return out
}

func multilineLiteral(stmt ast.Vertex) bool {
	found := false
	phpast.Inspect(stmt, func(n ast.Vertex) bool {
		switch n.(type) {
		case *ast.ScalarString, *ast.ScalarEncapsed, *ast.ScalarHeredoc:
			if strings.Contains(strings.TrimSpace(phpast.Render(n)), "\n") {
				found = true
			}
		}
		return !found
	})
	return found
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
