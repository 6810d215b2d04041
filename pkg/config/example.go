package config

// ExampleConfig is the template addon configuration.
type ExampleConfig struct {
	BaseConfig `yaml:",inline"`

	ExampleParam1 string `json:"example_param1" yaml:"example_param1" jsonschema:"required,description=Example required parameter"`
	ExampleParam2 string `json:"example_param2" yaml:"example_param2" jsonschema:"default=default_value,description=Example optional parameter with default"`
	ExampleParam3 int    `json:"example_param3" yaml:"example_param3" jsonschema:"default=5432,description=Example integer parameter"`
}

func (ExampleConfig) RequiredSecrets() RequiredSecrets {
	return RequiredSecrets{
		{Key: "example_api_key", Description: "Example API key reference"},
		{Key: "example_secret", Description: "Example secret reference"},
	}
}

func (ExampleConfig) Rules() []Rule { return nil }
