package expectation

import (
	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

//go:generate go tool stringer -type=Strategy -output=strategy_string.go

// Strategy is how a custom expectation body gets inlined. It is derived
// from the body at every call site and never stored.
type Strategy int

const (
	// Delegate bodies only chain built-in expectations on $this:
	//
	//	return $this->toContain('@')->toBeString();
	Delegate Strategy = iota

	// Mixed bodies add local assignments and nested expect() chains to
	// delegate calls, without control flow.
	Mixed

	// Complex bodies contain anything else. They are inlined best
	// effort behind a marker.
	Complex
)

// ValueProperty is the expectation property holding the subject inside
// a custom expectation body ($this->value).
const ValueProperty = "value"

type stmtKind int

const (
	kindOther stmtKind = iota
	kindEmpty
	kindReturnThis
	kindDelegate
	kindNested
	kindAssign
)

// Classify picks the inlining strategy for a custom expectation body.
func Classify(body []ast.Vertex, entryPoint string) Strategy {
	strategy := Delegate
	for _, stmt := range body {
		switch classifyStmt(stmt, entryPoint) {
		case kindEmpty, kindReturnThis, kindDelegate:
		case kindNested, kindAssign:
			strategy = Mixed
		default:
			return Complex
		}
	}
	return strategy
}

func classifyStmt(stmt ast.Vertex, entryPoint string) stmtKind {
	switch n := stmt.(type) {
	case *ast.StmtNop:
		return kindEmpty
	case *ast.StmtReturn:
		if phpast.IsThis(n.Expr) {
			return kindReturnThis
		}
		return classifyExpr(n.Expr, entryPoint, false)
	case *ast.StmtExpression:
		return classifyExpr(n.Expr, entryPoint, true)
	}
	return kindOther
}

func classifyExpr(expr ast.Vertex, entryPoint string, allowAssign bool) stmtKind {
	if expr == nil {
		return kindOther
	}
	if isDelegate(expr) {
		return kindDelegate
	}
	if _, _, ok := chain.Flatten(expr, entryPoint); ok {
		return kindNested
	}
	if allowAssign && isAssignment(expr) {
		return kindAssign
	}
	return kindOther
}

// isDelegate reports whether expr chains expectation calls on $this.
// $this->value->... reads the subject and is not a delegation.
func isDelegate(expr ast.Vertex) bool {
	root, segs := chain.Peel(expr)
	if !phpast.IsThis(root) || len(segs) == 0 {
		return false
	}
	first := segs[0]
	return !(first.Kind == chain.Property && first.Name == ValueProperty)
}

func isAssignment(expr ast.Vertex) bool {
	switch expr.(type) {
	case *ast.ExprAssign, *ast.ExprAssignReference, *ast.ExprAssignCoalesce,
		*ast.ExprAssignConcat, *ast.ExprAssignPlus, *ast.ExprAssignMinus:
		return true
	}
	return false
}
