package expressions

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
)

// CELEngine compiles CEL rules. The document is bound to "self"; every
// self.<field> selection must name a field of the shape.
type CELEngine struct {
	env   *cel.Env
	cache programCache[cel.Program]
}

// NewCELEngine creates a CEL engine exposing self: map(string, dyn).
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("self", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &CELEngine{env: env}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile checks expression, the fields it selects on self and its result type.
func (e *CELEngine) Compile(expression string, shape Shape) (Program, error) {
	if err := checkExpression("CEL", expression); err != nil {
		return nil, err
	}
	prg, err := e.cache.getOrCompile(programKey{shape.Type, expression}, func() (cel.Program, error) {
		ast, issues := e.env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, compileError("CEL", expression, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, compileError("CEL", expression, fmt.Errorf("result type is %s, want bool", out))
		}
		if unknown := unknownSelfFields(ast, shape); len(unknown) > 0 {
			return nil, compileError("CEL", expression, fmt.Errorf("undefined fields on self: %v", unknown))
		}
		p, err := e.env.Program(ast)
		if err != nil {
			return nil, compileError("CEL", expression, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return celProgram{prg: prg, expression: expression}, nil
}

// unknownSelfFields returns the names selected as self.<name> that shape does
// not define. A shape without fields accepts any selection.
func unknownSelfFields(ast *cel.Ast, shape Shape) []string {
	if len(shape.Fields) == 0 {
		return nil
	}
	var unknown []string
	celast.PostOrderVisit(ast.NativeRep().Expr(), celast.NewExprVisitor(func(e celast.Expr) {
		if e.Kind() != celast.SelectKind {
			return
		}
		sel := e.AsSelect()
		if sel.Operand().Kind() != celast.IdentKind || sel.Operand().AsIdent() != "self" {
			return
		}
		if _, ok := shape.Fields[sel.FieldName()]; !ok && !slices.Contains(unknown, sel.FieldName()) {
			unknown = append(unknown, sel.FieldName())
		}
	}))
	return unknown
}

type celProgram struct {
	prg        cel.Program
	expression string
}

func (p celProgram) Eval(ctx context.Context, doc map[string]any) (bool, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	out, _, err := p.prg.ContextEval(ctx, map[string]any{"self": doc})
	if err != nil {
		return false, evalError("CEL", p.expression, err)
	}
	holds, ok := out.Value().(bool)
	if !ok {
		return false, resultError("CEL", p.expression, out.Value())
	}
	return holds, nil
}

var _ Engine = (*CELEngine)(nil)
