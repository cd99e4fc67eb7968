package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Listing    ListingConfig    `yaml:"listing" mapstructure:"listing"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ListingConfig configures the source collection stage.
type ListingConfig struct {
	Regions    []string `yaml:"regions" mapstructure:"regions"`
	Pages      int      `yaml:"pages" mapstructure:"pages"`
	Limit      int      `yaml:"limit" mapstructure:"limit"`
	RatePerSec float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PipelineConfig holds per-stage enable flags and concurrency limits.
type PipelineConfig struct {
	Profile       bool `yaml:"profile" mapstructure:"profile"`
	Search        bool `yaml:"search" mapstructure:"search"`
	Fallback      bool `yaml:"fallback" mapstructure:"fallback"`
	MaxConcurrent int  `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	PageTextLimit int  `yaml:"page_text_limit" mapstructure:"page_text_limit"`
}

// ExportConfig configures spreadsheet output.
type ExportConfig struct {
	OutDir     string `yaml:"out_dir" mapstructure:"out_dir"`
	FilePrefix string `yaml:"file_prefix" mapstructure:"file_prefix"`
	SheetName  string `yaml:"sheet_name" mapstructure:"sheet_name"`
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
	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("listing.regions", []string{
		"https://dev.swfinstitute.org/profiles/wealth-manager/europe",
		"https://dev.swfinstitute.org/profiles/wealth-manager/asia",
	})
	v.SetDefault("listing.pages", 3)
	v.SetDefault("listing.limit", 0)
	v.SetDefault("listing.rate_per_sec", 1.0)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("pipeline.profile", true)
	v.SetDefault("pipeline.search", true)
	v.SetDefault("pipeline.fallback", true)
	v.SetDefault("pipeline.max_concurrent", 5)
	v.SetDefault("pipeline.page_text_limit", 5000)
	v.SetDefault("export.out_dir", "data")
	v.SetDefault("export.file_prefix", "wealth_managers_combined")
	v.SetDefault("export.sheet_name", "Sheet1")
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
