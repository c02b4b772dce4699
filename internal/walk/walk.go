// Package walk applies a statement conversion to every statement of a
// block, including statements nested in branches, loops, exception
// handlers, switch arms and closures.
package walk

import (
	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// Func converts one statement. When ok is false the statement is kept
// and its nested blocks are visited instead.
type Func func(stmt ast.Vertex) (out []ast.Vertex, ok bool)

// Statements returns stmts with fn applied to every statement at every
// depth. Converted output is spliced in place of the original statement
// and is not visited again. Compound statements are updated in place.
func Statements(stmts []ast.Vertex, fn Func) []ast.Vertex {
	out := make([]ast.Vertex, 0, len(stmts))
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if repl, ok := fn(stmt); ok {
			out = append(out, repl...)
			continue
		}
		descend(stmt, fn)
		out = append(out, stmt)
	}
	return out
}

func descend(stmt ast.Vertex, fn Func) {
	switch n := stmt.(type) {
	case *ast.StmtStmtList:
		n.Stmts = Statements(n.Stmts, fn)
	case *ast.StmtIf:
		n.Stmt = body(n.Stmt, fn)
		for _, ei := range n.ElseIf {
			if elseIf, ok := ei.(*ast.StmtElseIf); ok {
				elseIf.Stmt = body(elseIf.Stmt, fn)
			}
		}
		if el, ok := n.Else.(*ast.StmtElse); ok {
			el.Stmt = body(el.Stmt, fn)
		}
	case *ast.StmtForeach:
		n.Stmt = body(n.Stmt, fn)
	case *ast.StmtFor:
		n.Stmt = body(n.Stmt, fn)
	case *ast.StmtWhile:
		n.Stmt = body(n.Stmt, fn)
	case *ast.StmtDo:
		n.Stmt = body(n.Stmt, fn)
	case *ast.StmtTry:
		n.Stmts = Statements(n.Stmts, fn)
		for _, c := range n.Catches {
			if catch, ok := c.(*ast.StmtCatch); ok {
				catch.Stmts = Statements(catch.Stmts, fn)
			}
		}
		if fin, ok := n.Finally.(*ast.StmtFinally); ok {
			fin.Stmts = Statements(fin.Stmts, fn)
		}
	case *ast.StmtSwitch:
		for _, c := range n.Cases {
			switch arm := c.(type) {
			case *ast.StmtCase:
				arm.Stmts = Statements(arm.Stmts, fn)
			case *ast.StmtDefault:
				arm.Stmts = Statements(arm.Stmts, fn)
			}
		}
	default:
		closures(stmt, fn)
	}
}

// body converts a loop or branch body. A bare single statement that
// expands to anything but exactly one statement gets braces.
func body(stmt ast.Vertex, fn Func) ast.Vertex {
	if stmt == nil {
		return nil
	}
	if list, ok := stmt.(*ast.StmtStmtList); ok {
		list.Stmts = Statements(list.Stmts, fn)
		return list
	}
	out := Statements([]ast.Vertex{stmt}, fn)
	if len(out) == 1 {
		return out[0]
	}
	return phpast.Block(out...)
}

// closures visits the bodies of closures found anywhere inside an
// otherwise unconverted statement, such as a callback passed to a
// helper. Nested closures are reached through the recursive call.
func closures(stmt ast.Vertex, fn Func) {
	phpast.Inspect(stmt, func(n ast.Vertex) bool {
		if c, ok := n.(*ast.ExprClosure); ok {
			c.Stmts = Statements(c.Stmts, fn)
			return false
		}
		return true
	})
}
