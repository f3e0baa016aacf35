// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Database DatabaseConfig `mapstructure:"database"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// DatasetConfig describes where the benefits table is loaded from at
// cold start. Source is "s3" or "file".
type DatasetConfig struct {
	Source      string `mapstructure:"source"`
	Bucket      string `mapstructure:"bucket"`
	Key         string `mapstructure:"key"`
	Path        string `mapstructure:"path"`
	LabelColumn string `mapstructure:"label_column"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// FallbackConfig holds settings for the fallback delegate (Lambda).
type FallbackConfig struct {
	FunctionName string `mapstructure:"function_name"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// SummaryConfig holds settings for the summarizer delegate (Bedrock).
type SummaryConfig struct {
	ModelID     string  `mapstructure:"model_id"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// FallbackTimeout returns the fallback delegate timeout as a duration.
func (c *Config) FallbackTimeout() time.Duration {
	return time.Duration(c.Fallback.Timeout) * time.Millisecond
}

// SummaryTimeout returns the summarizer delegate timeout as a duration.
func (c *Config) SummaryTimeout() time.Duration {
	return time.Duration(c.Summary.Timeout) * time.Millisecond
}
