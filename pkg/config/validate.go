package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/rendis/addonkit/internal/expressions"
	"github.com/rendis/addonkit/internal/logging"
	"github.com/rendis/addonkit/internal/validation"
	"github.com/rendis/addonkit/pkg/schema"
)

// Validator turns raw configuration maps into typed configurations. It caches
// reflected schemas and compiled rule expressions and is safe for concurrent
// use. Every rejected configuration is logged at warn level.
type Validator struct {
	schemas   *validation.JSONSchemaValidator
	engines   map[string]expressions.Engine
	reflector *jsonschema.Reflector
	logger    *slog.Logger

	mu        sync.RWMutex
	reflected map[reflect.Type]*reflected
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the logger rejections are reported to. The default is
// slog.Default() at the time of each rejection.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = logger }
}

// NewValidator creates a Validator with its own caches. The schemas and rules
// of every registered variant are built up front, so a broken rule fails here.
func NewValidator(opts ...ValidatorOption) (*Validator, error) {
	schemas, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	engines, err := expressions.NewEngines()
	if err != nil {
		return nil, err
	}
	v := &Validator{
		schemas:   schemas,
		engines:   engines,
		reflector: newReflector(),
		reflected: make(map[reflect.Type]*reflected),
	}
	for _, opt := range opts {
		opt(v)
	}
	for _, vr := range registeredVariants() {
		if _, err := v.reflectType(vr.typ); err != nil {
			return nil, fmt.Errorf("variant %s: %w", vr.Name, err)
		}
	}
	return v, nil
}

var defaultValidator = sync.OnceValues(func() (*Validator, error) { return NewValidator() })

// Default returns the shared Validator used by Validate.
func Default() (*Validator, error) {
	return defaultValidator()
}

// Validate builds a T from raw using the shared Validator.
func Validate[T Schema](raw map[string]any) (T, error) {
	v, err := Default()
	if err != nil {
		var zero T
		return zero, err
	}
	return ValidateWith[T](v, raw)
}

// ValidateWith builds a T from raw. Checks run in order and the first failure
// is returned:
//  1. structure against the schema reflected from T (ErrCodeValidation)
//  2. required secrets present in secrets (ErrCodeMissingSecrets)
//  3. T's rules (ErrCodeRuleViolation)
//
// The result never aliases maps owned by raw.
func ValidateWith[T Schema](v *Validator, raw map[string]any) (T, error) {
	var zero T
	out, err := v.validate(context.Background(), reflect.TypeFor[T](), raw)
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func (v *Validator) validate(ctx context.Context, t reflect.Type, raw map[string]any) (Schema, error) {
	r, err := v.reflectType(t)
	if err != nil {
		var aErr *schema.AddonError
		if !errors.As(err, &aErr) {
			err = schema.NewError(schema.ErrCodeValidation, "reflect configuration schema").WithCause(err)
		}
		return nil, v.reject(ctx, t, err)
	}

	if raw == nil {
		raw = map[string]any{}
	}
	if err := v.schemas.ValidateInput(raw, r.raw); err != nil {
		return nil, v.reject(ctx, t, err)
	}

	data, err := json.Marshal(r.withDefaults(raw))
	if err != nil {
		return nil, v.reject(ctx, t, schema.NewError(schema.ErrCodeValidation, "encode configuration").WithCause(err))
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, v.reject(ctx, t, schema.NewErrorf(schema.ErrCodeValidation, "decode configuration: %s", err.Error()).WithCause(err))
	}
	cfg := ptr.Elem().Interface().(Schema)

	if missing := cfg.RequiredSecrets().Missing(cfg.Base().Secrets); len(missing) > 0 {
		return nil, v.reject(ctx, t, schema.NewErrorf(schema.ErrCodeMissingSecrets, "Missing required secrets: %v", missing).
			WithDetails(map[string]any{"missing": missing}))
	}

	if len(r.rules) == 0 {
		return cfg, nil
	}
	doc := documentOf(ptr.Elem())
	for _, rule := range r.rules {
		if err := rule.evaluate(ctx, doc); err != nil {
			return nil, v.reject(ctx, t, err)
		}
	}
	return cfg, nil
}

// reject logs err with its code and the offending fields, keys or rule, and
// returns it unchanged.
func (v *Validator) reject(ctx context.Context, t reflect.Type, err error) error {
	logger := v.logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.String("config_type", t.String())}
	var aErr *schema.AddonError
	if errors.As(err, &aErr) {
		attrs = append(attrs, slog.String("code", aErr.Code))
		for _, key := range []string{"violations", "missing", "rule"} {
			if d, ok := aErr.Details[key]; ok {
				attrs = append(attrs, slog.Any(key, d))
			}
		}
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	logging.LogWith(ctx, logger).Warn("configuration rejected", attrs...)
	return err
}

// JSONSchema returns the indented JSON Schema reflected from t.
func (v *Validator) JSONSchema(t reflect.Type) ([]byte, error) {
	r, err := v.reflectType(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent schema: %w", err)
	}
	return buf.Bytes(), nil
}

// JSONSchemaFor returns the JSON Schema of T.
func JSONSchemaFor[T Schema]() ([]byte, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	return v.JSONSchema(reflect.TypeFor[T]())
}
