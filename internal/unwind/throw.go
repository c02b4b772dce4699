package unwind

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/unbound-force/pest2phpunit/internal/chain"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// throwable is the catch-all exception type.
const throwable = `\Throwable`

// expected is what a toThrow() call expects of the exception.
type expected struct {
	// class is the argument for expectException, nil for any type.
	class ast.Vertex

	// catchType names the class in a catch clause.
	catchType ast.Vertex

	// message is the argument for expectExceptionMessage, or nil.
	message ast.Vertex
}

// toThrow converts toThrow() against a callable subject. The positive
// form registers PHPUnit's expectations and then invokes the callable;
// the negated form catches the exception and fails. In each-mode only
// the negated form applies per element: a test can expect a single
// exception.
func (u *Unwinder) toThrow(s *state, seg chain.Segment) {
	negated := s.take()
	exp, ok := u.classifyThrow(seg.Args)
	if !ok {
		s.mark("toThrow() argument could be a class or a message; convert manually")
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			return []ast.Vertex{phpast.Stmt(phpast.Invoke(subject))}
		})
		return
	}
	if negated {
		u.emit(s, func(subject ast.Vertex) []ast.Vertex {
			return []ast.Vertex{u.notThrow(subject, exp)}
		})
		return
	}
	if s.each {
		s.mark("each->toThrow() expects an exception per element and has no PHPUnit equivalent")
		return
	}

	class := exp.class
	if class == nil {
		class = phpast.ClassConst(phpast.Ident(throwable))
	}
	s.add(phpast.Assert("expectException", class))
	if exp.message != nil {
		s.add(phpast.Assert("expectExceptionMessage", exp.message))
	}
	s.add(phpast.Stmt(phpast.Invoke(s.subject())))
}

// classifyThrow reads the zero, one or two arguments of toThrow(). ok
// is false for argument shapes that cannot be told apart statically.
func (u *Unwinder) classifyThrow(args []ast.Vertex) (expected, bool) {
	switch len(args) {
	case 0:
		return expected{}, true
	case 1:
		return u.throwArg(args[0], false)
	default:
		exp, ok := u.throwArg(args[0], true)
		if !ok {
			return expected{}, false
		}
		exp.message = phpast.Clone(args[1])
		return exp, true
	}
}

// throwArg classifies a single toThrow() argument. With typeOnly set
// (a message follows) a string always names the class.
func (u *Unwinder) throwArg(arg ast.Vertex, typeOnly bool) (expected, bool) {
	switch n := arg.(type) {
	case *ast.ExprClassConstFetch:
		if !strings.EqualFold(phpast.NameOf(n.Const), "class") {
			return expected{}, false
		}
		return expected{
			class:     phpast.Clone(n),
			catchType: phpast.Clone(n.Class),
		}, true

	case *ast.ExprNew:
		if _, anonymous := n.Class.(*ast.StmtClass); anonymous {
			return expected{}, false
		}
		exp := expected{
			class:     phpast.ClassConst(phpast.Clone(n.Class)),
			catchType: phpast.Clone(n.Class),
		}
		if args := phpast.ArgExprs(n.Args); len(args) > 0 {
			exp.message = phpast.Clone(args[0])
		}
		return exp, true

	case *ast.ScalarString:
		text, ok := phpast.StringValue(n)
		if !ok {
			return expected{}, false
		}
		if typeOnly || u.opts.ClassNames.IsClassName(text) {
			return expected{
				class:     phpast.Str(text),
				catchType: phpast.Ident(`\` + strings.TrimPrefix(text, `\`)),
			}, true
		}
		return expected{message: phpast.Str(text)}, true
	}
	return expected{}, false
}

// notThrow builds
//
//	try {
//	    ($callable)();
//	    $this->addToAssertionCount(1);
//	} catch (Type $exception) {
//	    $this->fail(...);
//	}
//
// Only the expected type is caught so other exceptions propagate. A
// message-only expectation catches everything and asserts the message
// differs instead.
func (u *Unwinder) notThrow(callable ast.Vertex, exp expected) ast.Vertex {
	caught := phpast.Var(u.fresh("exception"))
	catchType := exp.catchType
	if catchType == nil {
		catchType = phpast.Ident(throwable)
	}

	var handler []ast.Vertex
	if exp.message != nil {
		handler = []ast.Vertex{phpast.Assert("assertStringNotContainsString",
			exp.message, phpast.MethodCall(phpast.Clone(caught), "getMessage"))}
	} else {
		handler = []ast.Vertex{phpast.Assert("fail", phpast.Concat(
			phpast.Str("Expected no exception, but caught "),
			phpast.Call("get_class", phpast.Clone(caught)),
			phpast.Str(": "),
			phpast.MethodCall(phpast.Clone(caught), "getMessage"),
		))}
	}

	return phpast.Try(
		[]ast.Vertex{
			phpast.Stmt(phpast.Invoke(callable)),
			phpast.Assert("addToAssertionCount", phpast.Int("1")),
		},
		[]ast.Vertex{catchType},
		phpast.VarName(caught),
		handler,
	)
}
