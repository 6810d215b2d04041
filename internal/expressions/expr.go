package expressions

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEngine compiles expr-lang rules. Document fields are top-level
// variables typed after the configuration fields, so "port > 0" type-checks
// against an int port and an unknown name fails to compile.
type ExprEngine struct {
	cache programCache[*vm.Program]
}

// NewExprEngine creates a new Expr expression engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Compile type-checks expression against shape and requires a bool result.
func (e *ExprEngine) Compile(expression string, shape Shape) (Program, error) {
	if err := checkExpression("expr", expression); err != nil {
		return nil, err
	}
	prg, err := e.cache.getOrCompile(programKey{shape.Type, expression}, func() (*vm.Program, error) {
		env := shape.Fields
		if env == nil {
			env = map[string]any{}
		}
		p, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, compileError("expr", expression, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return exprProgram{prg: prg, expression: expression}, nil
}

type exprProgram struct {
	prg        *vm.Program
	expression string
}

func (p exprProgram) Eval(_ context.Context, doc map[string]any) (bool, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	out, err := vm.Run(p.prg, doc)
	if err != nil {
		return false, evalError("expr", p.expression, err)
	}
	holds, ok := out.(bool)
	if !ok {
		return false, resultError("expr", p.expression, out)
	}
	return holds, nil
}

var _ Engine = (*ExprEngine)(nil)
