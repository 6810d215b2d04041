// Package config models addon configuration: a common base record, typed
// addon-specific variants that embed it, their declared secrets and their
// cross-field rules.
package config

// Schema is implemented by every addon configuration type. Only BaseConfig
// provides isAddonConfig, so a type is a Schema exactly when it embeds
// BaseConfig.
type Schema interface {
	// Base returns the common fields.
	Base() BaseConfig
	// RequiredSecrets declares the secret keys the addon needs. It depends on
	// the type only, never on field values.
	RequiredSecrets() RequiredSecrets
	// Rules returns the cross-field checks run after structural validation,
	// in evaluation order.
	Rules() []Rule

	isAddonConfig()
}

// BaseConfig holds the fields shared by all addon configurations.
type BaseConfig struct {
	ID          string            `json:"id" yaml:"id" jsonschema:"required,description=Unique identifier for the addon"`
	Type        string            `json:"type" yaml:"type" jsonschema:"required,description=Type of the addon"`
	Name        string            `json:"name" yaml:"name" jsonschema:"required,description=Name of the addon"`
	Description string            `json:"description" yaml:"description" jsonschema:"required,description=Description of the addon"`
	Enabled     bool              `json:"enabled" yaml:"enabled" jsonschema:"default=true,description=Whether the addon is enabled"`
	Config      map[string]any    `json:"config" yaml:"config" jsonschema:"description=Additional configuration"`
	Secrets     map[string]string `json:"secrets" yaml:"secrets" jsonschema:"description=Secret key to reference mapping"`
}

func (c BaseConfig) Base() BaseConfig { return c }

func (BaseConfig) RequiredSecrets() RequiredSecrets { return nil }

func (BaseConfig) Rules() []Rule { return nil }

func (BaseConfig) isAddonConfig() {}
