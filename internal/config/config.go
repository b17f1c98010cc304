package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Summary    SummaryConfig    `yaml:"summary" mapstructure:"summary"`
	Imaging    ImagingConfig    `yaml:"imaging" mapstructure:"imaging"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// StoreConfig configures the report database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit           float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst           int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxUploadMB         int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ValuationConfig tunes the valuation engine.
type ValuationConfig struct {
	// Weights maps factor keys (location, documentation, neighborhood,
	// road_access, recent_sales, image_analysis) to their weight.
	Weights              map[string]float64 `yaml:"weights" mapstructure:"weights"`
	DeriveLocationStatus bool               `yaml:"derive_location_status" mapstructure:"derive_location_status"`
	ProcessingDelayMs    int                `yaml:"processing_delay_ms" mapstructure:"processing_delay_ms"`
}

// OCRConfig configures agent note text extraction.
type OCRConfig struct {
	Provider     string `yaml:"provider" mapstructure:"provider"` // simulated | mistral
	LatencyMs    int    `yaml:"latency_ms" mapstructure:"latency_ms"`
	MistralKey   string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// SummaryConfig configures agent note summarization.
type SummaryConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // keyword | anthropic
	LatencyMs int    `yaml:"latency_ms" mapstructure:"latency_ms"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ImagingConfig configures property photo analysis.
type ImagingConfig struct {
	LatencyMs int `yaml:"latency_ms" mapstructure:"latency_ms"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ResilienceConfig controls retries and circuit breaking for remote providers.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIELDVISIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fieldvisit.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("valuation.weights.location", 0.25)
	v.SetDefault("valuation.weights.documentation", 0.15)
	v.SetDefault("valuation.weights.neighborhood", 0.15)
	v.SetDefault("valuation.weights.road_access", 0.15)
	v.SetDefault("valuation.weights.recent_sales", 0.20)
	v.SetDefault("valuation.weights.image_analysis", 0.10)
	v.SetDefault("valuation.derive_location_status", false)
	v.SetDefault("valuation.processing_delay_ms", 0)
	v.SetDefault("ocr.provider", "simulated")
	v.SetDefault("ocr.latency_ms", 2500)
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("summary.provider", "keyword")
	v.SetDefault("summary.latency_ms", 1500)
	v.SetDefault("summary.max_tokens", 1024)
	v.SetDefault("imaging.latency_ms", 1500)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("resilience.max_attempts", 1)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks provider settings that cannot be defaulted.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "unsupported store.driver "+c.Store.Driver)
	}

	if c.OCR.Provider == "mistral" && c.OCR.MistralKey == "" {
		problems = append(problems, "ocr.mistral_api_key is required for the mistral provider (FIELDVISIT_OCR_MISTRAL_API_KEY)")
	}
	if c.Summary.Provider == "anthropic" && c.Anthropic.Key == "" {
		problems = append(problems, "anthropic.key is required for the anthropic summary provider (FIELDVISIT_ANTHROPIC_KEY)")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
