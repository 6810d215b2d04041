package config

// APIConfig configures an addon that calls an HTTP API.
type APIConfig struct {
	BaseConfig `yaml:",inline"`

	Endpoint string `json:"endpoint" yaml:"endpoint" jsonschema:"required,description=API endpoint URL"`
	Method   string `json:"method" yaml:"method" jsonschema:"default=GET,description=HTTP method"`
	Timeout  int    `json:"timeout" yaml:"timeout" jsonschema:"default=30,description=Request timeout in seconds"`
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty" jsonschema:"description=Optional polling schedule in cron syntax"`
}

func (APIConfig) RequiredSecrets() RequiredSecrets {
	return RequiredSecrets{
		{Key: "api_key", Description: "API key reference"},
	}
}

func (APIConfig) Rules() []Rule {
	return []Rule{
		CEL(`self.endpoint.startsWith("http://") || self.endpoint.startsWith("https://")`, "endpoint must be a valid URL"),
		Expr(`method in ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"]`, "method must be a valid HTTP method"),
		CronSchedule("schedule"),
	}
}
