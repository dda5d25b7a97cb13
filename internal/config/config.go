package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures page fetching and pagination.
type SourceConfig struct {
	// BaseURL is the review page template with {asin} and {page} placeholders.
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelaySecs         float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	// RateLimit caps outgoing requests per second; 0 disables the limiter.
	RateLimit         float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxReviewsPerASIN int     `yaml:"max_reviews_per_asin" mapstructure:"max_reviews_per_asin"`
	Stars             []int   `yaml:"stars" mapstructure:"stars"`
	DailyASINLimit    int     `yaml:"daily_asin_limit" mapstructure:"daily_asin_limit"`
}

// Timeout returns the per-request timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// Delay returns the inter-page delay as a duration.
func (s SourceConfig) Delay() time.Duration {
	return time.Duration(s.DelaySecs * float64(time.Second))
}

// OutputConfig configures export serialization.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Path   string `yaml:"path" mapstructure:"path"`
	Indent int    `yaml:"indent" mapstructure:"indent"`
}

// StoreConfig configures the optional harvest database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only review API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REVIEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "https://www.amazon.com/product-reviews/{asin}?pageNumber={page}")
	v.SetDefault("source.timeout_secs", 10)
	v.SetDefault("source.delay_secs", 1.0)
	v.SetDefault("source.rate_limit", 0.0)
	v.SetDefault("source.max_reviews_per_asin", 1000)
	v.SetDefault("source.stars", []int{1, 2, 3, 4, 5})
	v.SetDefault("source.daily_asin_limit", 1000)
	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "data/reviews.json")
	v.SetDefault("output.indent", 2)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "reviews.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
