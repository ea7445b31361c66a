package config

import "time"

// Config is the non-secret runtime configuration, read from YAML.
type Config struct {
	Server ServerConfig `json:"server"`
	Model  ModelConfig  `json:"model"`
	Source SourceConfig `json:"source"`
	Graph  GraphConfig  `json:"graph"`
	Log    LogConfig    `json:"log"`
}

type ServerConfig struct {
	Addr          string `json:"addr"`
	TurnQueueSize int    `json:"turnQueueSize"`
	TurnWorkers   int    `json:"turnWorkers"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// ModelConfig selects the language model provider. Provider is "gemini" or
// "openai"; an empty Model picks the provider's default.
type ModelConfig struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Timeout bounds a single model call.
func (c ModelConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SourceConfig selects where session transactions load from. Kind is one
// of "csv", "gcs", "sqlite", "postgres" or "bigquery"; only the matching
// field group is read.
type SourceConfig struct {
	Kind string `json:"kind"`

	CSVPath string `json:"csvPath"`

	GCSBucket string `json:"gcsBucket"`
	GCSObject string `json:"gcsObject"`

	SQLitePath  string `json:"sqlitePath"`
	SQLiteTable string `json:"sqliteTable"`

	PostgresTable string `json:"postgresTable"`

	BigQueryProject string `json:"bigqueryProject"`
	BigQueryTable   string `json:"bigqueryTable"`
	BigQuerySince   string `json:"bigquerySince"`
}

// GraphConfig points at the optional Neo4j instance. When Enabled is
// false, comparison questions take the in-memory path.
type GraphConfig struct {
	Enabled        bool   `json:"enabled"`
	URI            string `json:"uri"`
	Database       string `json:"database"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Timeout bounds a single graph query.
func (c GraphConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Secrets carries credentials, from the ejson file or the environment.
// Environment values win over file values.
type Secrets struct {
	GeminiAPIKey  string `json:"geminiApiKey" env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `json:"openaiApiKey" env:"OPENAI_API_KEY"`
	PostgresDSN   string `json:"postgresDsn" env:"POSTGRES_DSN"`
	Neo4jUser     string `json:"neo4jUser" env:"NEO4J_USER"`
	Neo4jPassword string `json:"neo4jPassword" env:"NEO4J_PASSWORD"`
}
