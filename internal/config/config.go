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
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Pool     PoolConfig     `yaml:"pool" mapstructure:"pool"`
	Quota    QuotaConfig    `yaml:"quota" mapstructure:"quota"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PlacesConfig holds directory API credentials and tuning.
type PlacesConfig struct {
	APIKey           string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	SearchTTLMinutes int     `yaml:"search_ttl_minutes" mapstructure:"search_ttl_minutes"`
	DetailTTLMinutes int     `yaml:"detail_ttl_minutes" mapstructure:"detail_ttl_minutes"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig configures the query planner and qualification rules.
type SearchConfig struct {
	Queries            []string `yaml:"queries" mapstructure:"queries"`
	RadiiKm            []int    `yaml:"radii_km" mapstructure:"radii_km"`
	DefaultRadiusKm    int      `yaml:"default_radius_km" mapstructure:"default_radius_km"`
	DailyTarget        int      `yaml:"daily_target" mapstructure:"daily_target"`
	MaxChecked         int      `yaml:"max_checked" mapstructure:"max_checked"`
	PadMin             int      `yaml:"pad_min" mapstructure:"pad_min"`
	PageDelayMillis    int      `yaml:"page_delay_millis" mapstructure:"page_delay_millis"`
	DefaultLocation    string   `yaml:"default_location" mapstructure:"default_location"`
	AvoidConglomerates bool     `yaml:"avoid_conglomerates" mapstructure:"avoid_conglomerates"`
}

// ClassifyConfig configures the site classifier's fetch behavior.
type ClassifyConfig struct {
	SiteBudgetSecs   int    `yaml:"site_budget_secs" mapstructure:"site_budget_secs"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	PolicyFile       string `yaml:"policy_file" mapstructure:"policy_file"`
}

// PoolConfig configures the enrichment worker pool.
type PoolConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// QuotaConfig configures the daily lead allowance for trial accounts.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit" mapstructure:"daily_limit"`
}

// ExportConfig configures file outputs for the merged lead list.
type ExportConfig struct {
	CSVPath  string `yaml:"csv_path" mapstructure:"csv_path"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// ServerConfig configures the HTTP API server.
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
	v.AddConfigPath("$HOME/.rvprospector")

	// Environment
	v.SetEnvPrefix("RVP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rvprospector.db")
	v.SetDefault("places.rate_limit", 10.0)
	v.SetDefault("places.search_ttl_minutes", 10)
	v.SetDefault("places.detail_ttl_minutes", 60)
	v.SetDefault("search.queries", []string{"RV park", "RV campground", "RV resort", "campground park"})
	v.SetDefault("search.radii_km", []int{25, 50, 100, 200, 400, 800})
	v.SetDefault("search.default_radius_km", 50)
	v.SetDefault("search.daily_target", 10)
	v.SetDefault("search.max_checked", 120)
	v.SetDefault("search.pad_min", 40)
	v.SetDefault("search.page_delay_millis", 2000)
	v.SetDefault("search.default_location", "Charlotte, NC")
	v.SetDefault("search.avoid_conglomerates", true)
	v.SetDefault("classify.site_budget_secs", 18)
	v.SetDefault("classify.fetch_timeout_secs", 10)
	v.SetDefault("pool.workers", 20)
	v.SetDefault("quota.daily_limit", 10)
	v.SetDefault("export.csv_path", "rv_parks_daily_list.csv")
	v.SetDefault("export.xlsx_path", "rv_parks_daily_list.xlsx")
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
