package config

// Config is the top-level configuration parsed from dockhand YAML.
type Config struct {
	Model    Model    `yaml:"model"`
	Build    Build    `yaml:"build"`
	Analyzer Analyzer `yaml:"analyzer"`
	History  History  `yaml:"history"`
}

// Model configures the generative completion endpoint.
type Model struct {
	Endpoint    string  `yaml:"endpoint"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	// Timeout bounds a single model call, e.g. "2m".
	Timeout string `yaml:"timeout"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// Build configures the container build engine invocation.
type Build struct {
	// Timeout bounds a single build, e.g. "15m".
	Timeout string `yaml:"timeout"`
	// MaxAttempts caps total build attempts including retries.
	MaxAttempts int `yaml:"max_attempts"`
	// Platform is passed to the engine (empty to omit the flag).
	Platform string `yaml:"platform"`
}

// Analyzer configures project scanning.
type Analyzer struct {
	// Ignore adds glob patterns to the built-in volatile set.
	Ignore []string `yaml:"ignore"`
}

// History configures the optional build-event journal.
type History struct {
	// DSN is the Postgres connection string. Empty disables journaling;
	// the DOCKHAND_DB_URL environment variable overrides it.
	DSN string `yaml:"dsn"`
}
