package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from file, or from the default search paths when file is empty
func Load(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mail-triage/")
		v.AddConfigPath("$HOME/.mail-triage")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.stage_timeout", "30s")
	v.SetDefault("llm.breaker_failures", 5)
	v.SetDefault("llm.breaker_timeout", "30s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.base_url", "")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.batch_timeout", "10m")
	v.SetDefault("pipeline.default_days", 7)
	v.SetDefault("pipeline.default_max_results", 50)
	v.SetDefault("pipeline.bypass_domains", []string{})

	// Retry defaults
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_interval", "500ms")
	v.SetDefault("retry.max_interval", "5s")

	// Message source defaults
	v.SetDefault("source.type", "gmail")
	v.SetDefault("source.gmail.credentials_file", "credentials.json")
	v.SetDefault("source.gmail.delegated_user", "")
	v.SetDefault("source.gmail.user_id", "me")
	v.SetDefault("source.gmail.fetch_workers", 4)
	v.SetDefault("source.maildir.path", "./mail")
	v.SetDefault("source.smtp.listen_address", "0.0.0.0:2525")
	v.SetDefault("source.smtp.domain", "localhost")
	v.SetDefault("source.smtp.buffer_size", 500)
	v.SetDefault("source.smtp.max_message_bytes", 10*1024*1024)

	// Sink defaults
	v.SetDefault("sink.type", "memory")
	v.SetDefault("sink.retention", "720h")
	v.SetDefault("sink.cleanup_frequency", "1h")
	v.SetDefault("sink.sqlite_path", "/data/mail_triage.db")
	v.SetDefault("sink.mysql_dsn", "user:password@tcp(localhost:3306)/mail_triage?parseTime=true")
	v.SetDefault("sink.redis.address", "localhost:6379")
	v.SetDefault("sink.redis.password", "")
	v.SetDefault("sink.redis.db", 0)
	v.SetDefault("sink.redis.stream", "mail-triage:records")
	v.SetDefault("sink.redis.max_len", 10000)
	v.SetDefault("sink.notion.token", "")
	v.SetDefault("sink.notion.database_id", "")
	v.SetDefault("sink.notion.base_url", "https://api.notion.com/v1")
	v.SetDefault("sink.notion.version", "2022-06-28")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.debug", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// durationOr returns the parsed duration for key, or fallback when it does not parse
func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return fallback
	}
	return d
}

// Set overrides a value, used by command line flags
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
