package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rendis/addonkit/internal/expressions"
	"github.com/rendis/addonkit/pkg/schema"
)

// reflected is the JSON Schema of a configuration type plus its rules
// compiled against the type's document shape.
type reflected struct {
	schema *jsonschema.Schema
	raw    []byte
	rules  []compiledRule
}

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		Anonymous:                  true,
	}
}

// reflectType returns the cached schema and rules for t, building them on
// first use. A rule that does not compile for t fails here, before any
// configuration of t is decoded.
func (v *Validator) reflectType(t reflect.Type) (*reflected, error) {
	v.mu.RLock()
	if r, ok := v.reflected[t]; ok {
		v.mu.RUnlock()
		return r, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if r, ok := v.reflected[t]; ok {
		return r, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "%s is not a configuration struct", t)
	}
	zero, ok := reflect.Zero(t).Interface().(Schema)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "%s does not embed BaseConfig", t)
	}

	s := v.reflector.ReflectFromType(t)
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema for %s: %w", t, err)
	}

	shape := expressions.Shape{Type: t, Fields: documentOf(reflect.Zero(t))}
	rules := make([]compiledRule, 0, len(zero.Rules()))
	for _, rule := range zero.Rules() {
		cr, err := rule.compile(v.engines, shape)
		if err != nil {
			return nil, err
		}
		rules = append(rules, cr)
	}

	r := &reflected{schema: s, raw: raw, rules: rules}
	v.reflected[t] = r
	return r, nil
}

// withDefaults returns the document decoded into the configuration type. It
// holds the schema's properties only: raw values where present, otherwise
// declared defaults, plus empty config and secrets maps. Keys the schema does
// not name are dropped, so a key differing only in case from a property never
// reaches the case-insensitive decoder.
func (r *reflected) withDefaults(raw map[string]any) map[string]any {
	doc := make(map[string]any, len(raw))
	if props := r.schema.Properties; props != nil {
		for pair := props.Oldest(); pair != nil; pair = pair.Next() {
			if val, ok := raw[pair.Key]; ok {
				doc[pair.Key] = val
				continue
			}
			if pair.Value != nil && pair.Value.Default != nil {
				doc[pair.Key] = pair.Value.Default
			}
		}
	}
	if _, ok := doc["config"]; !ok {
		doc["config"] = map[string]any{}
	}
	if _, ok := doc["secrets"]; !ok {
		doc["secrets"] = map[string]string{}
	}
	return doc
}

// documentOf maps the JSON field names of a configuration struct to the field
// values, flattening embedded structs the way encoding/json does. Values keep
// their Go types, which is what rules are compiled against.
func documentOf(v reflect.Value) map[string]any {
	doc := make(map[string]any)
	addFields(v, doc)
	return doc
}

func addFields(v reflect.Value, doc map[string]any) {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			addFields(v.Field(i), doc)
			continue
		}
		if name == "" {
			name = f.Name
		}
		doc[name] = v.Field(i).Interface()
	}
}
