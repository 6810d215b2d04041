package expressions

import (
	"context"
	"testing"

	"github.com/rendis/addonkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExprEngine(t *testing.T) {
	e := NewExprEngine()
	assert.Equal(t, "expr", e.Name())
}

func TestExpr_TopLevelFields(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"port >= 1 && port <= 65535", true},
		{`method in ["GET", "POST", "PUT", "PATCH", "DELETE"]`, true},
		{"max_tokens > 0", true},
		{"port > 70000", false},
		{`"api_key" in secrets`, true},
	}
	e := NewExprEngine()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, e, tt.expr, apiDocument()))
		})
	}
}

func TestExpr_CompileRejects(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"syntax":        "port >",
		"unknown field": "prot > 0",
		"type mismatch": `port > "80"`,
		"not a bool":    "port + 1",
	}
	for name, expression := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewExprEngine().Compile(expression, apiShape())
			assert.True(t, schema.HasCode(err, schema.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestExpr_CachesPerType(t *testing.T) {
	e := NewExprEngine()
	first, err := e.Compile("port > 0", apiShape())
	require.NoError(t, err)
	second, err := e.Compile("port > 0", apiShape())
	require.NoError(t, err)
	assert.Same(t, first.(exprProgram).prg, second.(exprProgram).prg)
	assert.Len(t, e.cache.m, 1)

	// Another type compiles separately, against its own fields.
	_, err = e.Compile("port > 0", Shape{Type: nil, Fields: map[string]any{"name": ""}})
	assert.Error(t, err)
}

func TestExpr_EvalNilDocument(t *testing.T) {
	prg, err := NewExprEngine().Compile("true", apiShape())
	require.NoError(t, err)
	holds, err := prg.Eval(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, holds)
}
