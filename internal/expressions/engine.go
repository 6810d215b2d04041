package expressions

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/rendis/addonkit/pkg/schema"
)

// Shape is the document a rule is compiled against: every field of one
// configuration type mapped to a value of the field's Go type. Type keys the
// compiled program caches, so one expression compiles once per type.
type Shape struct {
	Type   reflect.Type
	Fields map[string]any
}

// Program is a rule expression compiled for one Shape.
type Program interface {
	// Eval reports whether the rule holds for doc, a document of the Shape
	// the program was compiled for.
	Eval(ctx context.Context, doc map[string]any) (bool, error)
}

// Engine compiles rule expressions. Three implementations: CEL, Expr and GoJQ.
// Compile rejects expressions that cannot yield a bool for the shape.
type Engine interface {
	Name() string
	Compile(expression string, shape Shape) (Program, error)
}

// NewEngines returns one instance of every engine keyed by Engine.Name().
func NewEngines() (map[string]Engine, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, fmt.Errorf("cel engine: %w", err)
	}
	engines := map[string]Engine{}
	for _, e := range []Engine{celEngine, NewExprEngine(), NewGoJQEngine()} {
		engines[e.Name()] = e
	}
	return engines, nil
}

type programKey struct {
	typ        reflect.Type
	expression string
}

// programCache holds compiled programs per (type, expression).
type programCache[P any] struct {
	mu sync.RWMutex
	m  map[programKey]P
}

func (c *programCache[P]) getOrCompile(key programKey, compile func() (P, error)) (P, error) {
	c.mu.RLock()
	p, ok := c.m[key]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if p, ok := c.m[key]; ok {
		return p, nil
	}
	p, err := compile()
	if err != nil {
		return p, err
	}
	if c.m == nil {
		c.m = make(map[programKey]P)
	}
	c.m[key] = p
	return p, nil
}

func checkExpression(lang, expression string) error {
	if expression == "" {
		return schema.NewErrorf(schema.ErrCodeValidation, "empty %s expression", lang)
	}
	return nil
}

func compileError(lang, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeValidation,
		"%s compile error in %q: %s", lang, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}

func evalError(lang, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeExecution,
		"%s evaluation failed for %q: %s", lang, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}

func resultError(lang, expression string, out any) error {
	return schema.NewErrorf(schema.ErrCodeValidation,
		"%s expression %q returned %T, want bool", lang, expression, out).
		WithDetails(map[string]any{"expression": expression})
}
