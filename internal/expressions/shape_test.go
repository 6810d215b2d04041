package expressions

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type apiDoc struct{}

// apiShape mirrors the document of an HTTP API configuration.
func apiShape() Shape {
	return Shape{
		Type: reflect.TypeFor[apiDoc](),
		Fields: map[string]any{
			"endpoint":   "",
			"method":     "",
			"port":       0,
			"schedule":   "",
			"max_tokens": 0,
			"secrets":    map[string]string(nil),
		},
	}
}

func apiDocument() map[string]any {
	return map[string]any{
		"endpoint":   "https://api.example.com",
		"method":     "GET",
		"port":       5432,
		"schedule":   "",
		"max_tokens": 1000,
		"secrets":    map[string]string{"api_key": "API_KEY"},
	}
}

// eval compiles expression for apiShape and runs it against doc.
func eval(t *testing.T, e Engine, expression string, doc map[string]any) bool {
	t.Helper()
	prg, err := e.Compile(expression, apiShape())
	require.NoError(t, err)
	holds, err := prg.Eval(context.Background(), doc)
	require.NoError(t, err)
	return holds
}
