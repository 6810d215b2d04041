package actions

import (
	"context"
	"encoding/json"
)

// Action is a discovered, named unit of work.
type Action interface {
	Name() string
	Schema() ActionSchema
	// RequiresInput reports whether the unit declared a structured input
	// schema with required properties, so it cannot run on empty params.
	RequiresInput() bool
	Execute(ctx context.Context, input ActionInput) (*ActionOutput, error)
	Validate(params map[string]any) error
}

// ActionSchema describes the input/output contract of an action.
type ActionSchema struct {
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
	Description  string          `json:"description,omitempty"`
	Version      string          `json:"version,omitempty"`
}

// ActionInput is the data provided to an action at execution time.
type ActionInput struct {
	Params map[string]any `json:"params"`
	// Config is the validated addon configuration supplied by the host, if any.
	Config any `json:"-"`
}

// ActionOutput is the result of an action execution.
type ActionOutput struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// ActionInfo is a summary of a registered action for listing.
type ActionInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Version       string `json:"version,omitempty"`
	RequiresInput bool   `json:"requires_input"`
}
