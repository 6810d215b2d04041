package config

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/rendis/addonkit/pkg/schema"
)

// Variant is a configuration type addressed by name, for hosts that only know
// the type from a manifest or a flag.
type Variant struct {
	Name        string
	Description string

	typ reflect.Type
}

func variantOf[T Schema](name, description string) Variant {
	return Variant{Name: name, Description: description, typ: reflect.TypeFor[T]()}
}

var (
	variantsMu sync.RWMutex
	variants   = []Variant{
		variantOf[BaseConfig]("base", "Common addon fields only"),
		variantOf[ExampleConfig]("example", "Template addon with example parameters"),
		variantOf[APIConfig]("api", "HTTP API addon"),
		variantOf[DatabaseConfig]("database", "Database addon"),
		variantOf[LLMConfig]("llm", "Language model addon"),
	}
)

func registeredVariants() []Variant {
	variantsMu.RLock()
	defer variantsMu.RUnlock()
	return slices.Clone(variants)
}

// RegisterVariant adds T under name. T's schema is reflected and its rules
// compiled by the shared Validator now, so a rule that does not fit T's
// fields fails registration rather than the first Validate.
func RegisterVariant[T Schema](name, description string) error {
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "variant name is empty")
	}
	vr := variantOf[T](name, description)
	v, err := Default()
	if err != nil {
		return err
	}
	if _, err := v.reflectType(vr.typ); err != nil {
		return err
	}

	variantsMu.Lock()
	defer variantsMu.Unlock()
	if slices.ContainsFunc(variants, func(v Variant) bool { return v.Name == name }) {
		return schema.NewErrorf(schema.ErrCodeConflict, "config variant %q already registered", name)
	}
	variants = append(variants, vr)
	return nil
}

// Variants returns the variant names in registration order.
func Variants() []string {
	vs := registeredVariants()
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// LookupVariant returns the variant registered under name.
func LookupVariant(name string) (Variant, error) {
	vs := registeredVariants()
	i := slices.IndexFunc(vs, func(v Variant) bool { return v.Name == name })
	if i < 0 {
		return Variant{}, schema.NewErrorf(schema.ErrCodeNotFound, "unknown config variant %q", name).
			WithDetails(map[string]any{"available": Variants()})
	}
	return vs[i], nil
}

// Validate builds the variant's configuration from raw with the shared
// Validator.
func (vr Variant) Validate(raw map[string]any) (Schema, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	return vr.ValidateWith(v, raw)
}

// ValidateWith builds the variant's configuration from raw.
func (vr Variant) ValidateWith(v *Validator, raw map[string]any) (Schema, error) {
	return v.validate(context.Background(), vr.typ, raw)
}

// RequiredSecrets returns the variant's secret declaration.
func (vr Variant) RequiredSecrets() RequiredSecrets {
	return reflect.Zero(vr.typ).Interface().(Schema).RequiredSecrets()
}

// JSONSchema returns the variant's reflected JSON Schema.
func (vr Variant) JSONSchema() ([]byte, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	return v.JSONSchema(vr.typ)
}
