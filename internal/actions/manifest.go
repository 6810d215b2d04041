package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rendis/addonkit/internal/validation"
	"github.com/rendis/addonkit/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Reserved unit names. Files with these stems are never discovered: the
// first is a category's own entrypoint, the second holds shared types.
const (
	ReservedEntrypoint  = "index"
	ReservedSharedTypes = "base"
)

var manifestExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Manifest declares one unit. The file stem is the unit name.
type Manifest struct {
	Entrypoint   string         `yaml:"entrypoint"`
	Description  string         `yaml:"description"`
	Version      string         `yaml:"version"`
	InputSchema  map[string]any `yaml:"input_schema"`
	OutputSchema map[string]any `yaml:"output_schema"`
}

// unitName returns the unit name for a directory entry, or false when the
// entry is not a candidate manifest.
func unitName(fileName string) (string, bool) {
	if strings.HasPrefix(fileName, ".") {
		return "", false
	}
	ext := path.Ext(fileName)
	if !manifestExtensions[ext] {
		return "", false
	}
	stem := strings.TrimSuffix(fileName, ext)
	if stem == "" || stem == ReservedEntrypoint || stem == ReservedSharedTypes {
		return "", false
	}
	return stem, true
}

// loadManifest reads, validates and decodes the manifest at p. The entrypoint
// defaults to stem.
func loadManifest(fsys fs.FS, p, stem string, v *validation.JSONSchemaValidator) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := v.ValidateManifest(doc); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if m.Entrypoint == "" {
		m.Entrypoint = stem
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return nil, fmt.Errorf("version %q: %w", m.Version, err)
		}
	}
	for _, s := range []map[string]any{m.InputSchema, m.OutputSchema} {
		if s == nil {
			continue
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode schema: %w", err)
		}
		if err := v.Compile(raw); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// unit is the Action built from a manifest and its catalog handler.
type unit struct {
	name          string
	schema        ActionSchema
	requiresInput bool
	handler       HandlerFunc
	validator     *validation.JSONSchemaValidator
}

func newUnit(name string, m *Manifest, fn HandlerFunc, v *validation.JSONSchemaValidator) (*unit, error) {
	u := &unit{
		name:      name,
		handler:   fn,
		validator: v,
		schema: ActionSchema{
			Description: m.Description,
			Version:     m.Version,
		},
	}
	if m.InputSchema != nil {
		raw, err := json.Marshal(m.InputSchema)
		if err != nil {
			return nil, err
		}
		u.schema.InputSchema = raw
		if req, ok := m.InputSchema["required"].([]any); ok && len(req) > 0 {
			u.requiresInput = true
		}
	}
	if m.OutputSchema != nil {
		raw, err := json.Marshal(m.OutputSchema)
		if err != nil {
			return nil, err
		}
		u.schema.OutputSchema = raw
	}
	return u, nil
}

func (u *unit) Name() string         { return u.name }
func (u *unit) Schema() ActionSchema { return u.schema }
func (u *unit) RequiresInput() bool  { return u.requiresInput }

// Validate checks params against the declared input schema, if any.
func (u *unit) Validate(params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	if err := u.validator.ValidateInput(params, u.schema.InputSchema); err != nil {
		if ae, ok := err.(*schema.AddonError); ok {
			return ae.WithUnit(u.name)
		}
		return err
	}
	return nil
}

// Execute runs the handler and JSON-encodes its result.
func (u *unit) Execute(ctx context.Context, input ActionInput) (*ActionOutput, error) {
	if input.Params == nil {
		input.Params = map[string]any{}
	}
	result, err := u.handler(ctx, input)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExecution, "encode result: %s", err.Error()).
			WithUnit(u.name).
			WithCause(err)
	}
	return &ActionOutput{Data: data}, nil
}
