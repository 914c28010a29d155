package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	OpenAI     OpenAIConfig     `envconfig:"OPENAI"`
	Trading    TradingConfig    `envconfig:"TRADING"`
	Analysis   AnalysisConfig   `envconfig:"ANALYSIS"`
	Retrieval  RetrievalConfig  `envconfig:"RETRIEVAL"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// DatabaseConfig represents Postgres connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"newstrader"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// OpenAIConfig represents the LLM classifier and embedding provider
type OpenAIConfig struct {
	APIKey         string `envconfig:"OPENAI_API_KEY" required:"false"`
	Model          string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-ada-002"`
}

// TradingConfig represents simulation parameters
type TradingConfig struct {
	InitialEquity    float64 `envconfig:"TRADING_INITIAL_EQUITY" default:"100000.0"`
	PositionNotional float64 `envconfig:"TRADING_POSITION_NOTIONAL" default:"10000.0"`
	MaxPerSide       int     `envconfig:"TRADING_MAX_PER_SIDE" default:"5"`
}

// AnalysisConfig represents the headline analysis pipeline parameters
type AnalysisConfig struct {
	Model           string        `envconfig:"ANALYSIS_MODEL" default:"keyword"` // keyword or llm
	Workers         int           `envconfig:"ANALYSIS_WORKERS" default:"6"`
	ClassifyTimeout time.Duration `envconfig:"ANALYSIS_CLASSIFY_TIMEOUT" default:"60s"`
}

// RetrievalConfig represents optional prompt-enrichment retrieval
type RetrievalConfig struct {
	Enabled bool `envconfig:"RETRIEVAL_ENABLED" default:"false"`
	TopK    int  `envconfig:"RETRIEVAL_TOP_K" default:"3"`
}

// TelegramConfig represents the optional alert bot
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// ClickHouseConfig represents the optional telemetry sink
type ClickHouseConfig struct {
	Addr     string `envconfig:"CLICKHOUSE_ADDR" required:"false"`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"newstrader"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Trading.InitialEquity <= 0 {
		return fmt.Errorf("initial_equity must be positive")
	}
	if c.Trading.PositionNotional <= 0 {
		return fmt.Errorf("position_notional must be positive")
	}
	if c.Trading.MaxPerSide < 1 {
		return fmt.Errorf("max_per_side must be at least 1")
	}

	switch c.Analysis.Model {
	case "keyword", "llm":
	default:
		return fmt.Errorf("analysis model must be keyword or llm, got %q", c.Analysis.Model)
	}

	if c.Analysis.Model == "llm" && c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the llm analysis model")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis workers must be at least 1")
	}
	if c.Analysis.Workers > 8 {
		// External model throughput limit, not a CPU concern
		return fmt.Errorf("analysis workers capped at 8, got %d", c.Analysis.Workers)
	}

	if c.Retrieval.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("retrieval requires OPENAI_API_KEY")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s/%s",
		c.User, c.Password, c.Addr, c.Database,
	)
}

// TelegramEnabled reports whether alerting is configured
func (c *TelegramConfig) TelegramEnabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// ClickHouseEnabled reports whether telemetry is configured
func (c *ClickHouseConfig) ClickHouseEnabled() bool {
	return c.Addr != ""
}
