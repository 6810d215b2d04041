package config

// LLMConfig configures an addon that talks to a language model provider.
type LLMConfig struct {
	BaseConfig `yaml:",inline"`

	Provider    string  `json:"provider" yaml:"provider" jsonschema:"required,description=LLM provider such as openai or anthropic"`
	Model       string  `json:"model" yaml:"model" jsonschema:"required,description=Model name"`
	Temperature float64 `json:"temperature" yaml:"temperature" jsonschema:"default=0.7,description=Sampling temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" jsonschema:"default=1000,description=Maximum tokens per response"`
}

func (LLMConfig) RequiredSecrets() RequiredSecrets {
	return RequiredSecrets{
		{Key: "api_key", Description: "LLM API key reference"},
	}
}

func (LLMConfig) Rules() []Rule {
	return []Rule{
		JQ(`.temperature >= 0 and .temperature <= 2`, "temperature must be between 0 and 2"),
		Expr(`max_tokens > 0`, "max_tokens must be positive"),
	}
}
