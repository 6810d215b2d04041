package config

// DatabaseConfig configures an addon backed by a database.
type DatabaseConfig struct {
	BaseConfig `yaml:",inline"`

	Host     string `json:"host" yaml:"host" jsonschema:"required,description=Database host"`
	Database string `json:"database" yaml:"database" jsonschema:"required,description=Database name"`
	Port     int    `json:"port" yaml:"port" jsonschema:"default=5432,description=Database port"`
}

func (DatabaseConfig) RequiredSecrets() RequiredSecrets {
	return RequiredSecrets{
		{Key: "db_password", Description: "Database password reference"},
		{Key: "db_user", Description: "Database user reference"},
	}
}

func (DatabaseConfig) Rules() []Rule {
	return []Rule{
		Expr(`port >= 1 && port <= 65535`, "port must be between 1 and 65535"),
	}
}
