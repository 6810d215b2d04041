package expressions

import (
	"context"

	"github.com/itchyny/gojq"
)

// GoJQEngine compiles jq rules. The document is the jq input, so a rule reads
// ".temperature <= 2".
type GoJQEngine struct {
	cache programCache[*gojq.Code]
}

// NewGoJQEngine creates a new GoJQ expression engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Compile parses expression and runs it once against the shape's zero
// document: a rule whose first output is not a bool is rejected. Errors on the
// zero document are ignored, since zero values need not satisfy a rule's
// preconditions.
func (e *GoJQEngine) Compile(expression string, shape Shape) (Program, error) {
	if err := checkExpression("jq", expression); err != nil {
		return nil, err
	}
	code, err := e.cache.getOrCompile(programKey{shape.Type, expression}, func() (*gojq.Code, error) {
		query, err := gojq.Parse(expression)
		if err != nil {
			return nil, compileError("jq", expression, err)
		}
		code, err := gojq.Compile(query,
			// $ENV and env stay empty.
			gojq.WithEnvironLoader(func() []string { return nil }),
		)
		if err != nil {
			return nil, compileError("jq", expression, err)
		}
		if shape.Fields != nil {
			out, ok := code.Run(normalizeForJQ(shape.Fields)).Next()
			if _, isErr := out.(error); ok && !isErr {
				if _, isBool := out.(bool); !isBool {
					return nil, resultError("jq", expression, out)
				}
			}
		}
		return code, nil
	})
	if err != nil {
		return nil, err
	}
	return jqProgram{code: code, expression: expression}, nil
}

type jqProgram struct {
	code       *gojq.Code
	expression string
}

// Eval requires exactly one output.
func (p jqProgram) Eval(ctx context.Context, doc map[string]any) (bool, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	iter := p.code.RunWithContext(ctx, normalizeForJQ(doc))

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return false, evalError("jq", p.expression, err)
		}
		results = append(results, val)
	}
	if len(results) != 1 {
		return false, resultError("jq", p.expression, results)
	}
	holds, ok := results[0].(bool)
	if !ok {
		return false, resultError("jq", p.expression, results[0])
	}
	return holds, nil
}

// normalizeForJQ converts the Go types of a decoded configuration into the
// types gojq accepts: map[string]any, []any, int, float64, string, bool, nil.
func normalizeForJQ(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = normalizeForJQ(v)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = normalizeForJQ(v)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = v
		}
		return out
	case int64:
		return int(val)
	case int32:
		return int(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

var _ Engine = (*GoJQEngine)(nil)
