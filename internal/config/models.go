package config

import (
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider        string
	StageTimeout    time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
}

// PipelineConfig controls batch processing
type PipelineConfig struct {
	Workers           int
	BatchTimeout      time.Duration
	DefaultDays       int
	DefaultMaxResults int
	BypassDomains     []string
}

// RetryConfig bounds retries of transport calls
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// GmailConfig represents the Gmail message source
type GmailConfig struct {
	CredentialsFile string
	DelegatedUser   string
	UserID          string
	FetchWorkers    int
}

// SMTPConfig represents the SMTP inbox message source
type SMTPConfig struct {
	ListenAddress   string
	Domain          string
	BufferSize      int
	MaxMessageBytes int64
}

// SourceConfig selects and configures the message source
type SourceConfig struct {
	Type       string
	Gmail      GmailConfig
	MaildirDir string
	SMTP       SMTPConfig
}

// RedisConfig represents the Redis stream sink
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// NotionConfig represents the Notion database sink
type NotionConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
}

// SinkConfig selects and configures the record sink
type SinkConfig struct {
	Type             string
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	Redis            RedisConfig
	Notion           NotionConfig
}

// ServerConfig represents the HTTP reporting surface
type ServerConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Debug         bool
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:        c.GetString("llm.provider"),
		StageTimeout:    c.durationOr("llm.stage_timeout", 30*time.Second),
		BreakerFailures: uint32(c.GetInt("llm.breaker_failures")),
		BreakerTimeout:  c.durationOr("llm.breaker_timeout", 30*time.Second),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		ModelName: c.GetString("openai.model_name"),
		BaseURL:   c.GetString("openai.base_url"),
	}
}

// GetPipeline returns the batch pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		Workers:           c.GetInt("pipeline.workers"),
		BatchTimeout:      c.durationOr("pipeline.batch_timeout", 10*time.Minute),
		DefaultDays:       c.GetInt("pipeline.default_days"),
		DefaultMaxResults: c.GetInt("pipeline.default_max_results"),
		BypassDomains:     c.GetStringSlice("pipeline.bypass_domains"),
	}
}

// GetRetry returns the retry configuration
func (c *Config) GetRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:      uint64(c.GetInt("retry.max_retries")),
		InitialInterval: c.durationOr("retry.initial_interval", 500*time.Millisecond),
		MaxInterval:     c.durationOr("retry.max_interval", 5*time.Second),
	}
}

// GetSource returns the message source configuration
func (c *Config) GetSource() SourceConfig {
	return SourceConfig{
		Type: c.GetString("source.type"),
		Gmail: GmailConfig{
			CredentialsFile: c.GetString("source.gmail.credentials_file"),
			DelegatedUser:   c.GetString("source.gmail.delegated_user"),
			UserID:          c.GetString("source.gmail.user_id"),
			FetchWorkers:    c.GetInt("source.gmail.fetch_workers"),
		},
		MaildirDir: c.GetString("source.maildir.path"),
		SMTP: SMTPConfig{
			ListenAddress:   c.GetString("source.smtp.listen_address"),
			Domain:          c.GetString("source.smtp.domain"),
			BufferSize:      c.GetInt("source.smtp.buffer_size"),
			MaxMessageBytes: int64(c.GetInt("source.smtp.max_message_bytes")),
		},
	}
}

// GetSink returns the record sink configuration
func (c *Config) GetSink() SinkConfig {
	return SinkConfig{
		Type:             c.GetString("sink.type"),
		Retention:        c.durationOr("sink.retention", 30*24*time.Hour),
		CleanupFrequency: c.durationOr("sink.cleanup_frequency", time.Hour),
		SQLitePath:       c.GetString("sink.sqlite_path"),
		MySQLDSN:         c.GetString("sink.mysql_dsn"),
		Redis: RedisConfig{
			Address:  c.GetString("sink.redis.address"),
			Password: c.GetString("sink.redis.password"),
			DB:       c.GetInt("sink.redis.db"),
			Stream:   c.GetString("sink.redis.stream"),
			MaxLen:   int64(c.GetInt("sink.redis.max_len")),
		},
		Notion: NotionConfig{
			Token:      c.GetString("sink.notion.token"),
			DatabaseID: c.GetString("sink.notion.database_id"),
			BaseURL:    c.GetString("sink.notion.base_url"),
			Version:    c.GetString("sink.notion.version"),
		},
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   c.durationOr("server.read_timeout", 30*time.Second),
		WriteTimeout:  c.durationOr("server.write_timeout", 15*time.Minute),
		Debug:         c.GetBool("server.debug"),
	}
}
