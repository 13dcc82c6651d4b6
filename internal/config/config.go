package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Cron     CronConfig     `mapstructure:"cron"`
	Tefas    TefasConfig    `mapstructure:"tefas"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PriceTTL time.Duration `mapstructure:"price_ttl"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DailySnapshot string `mapstructure:"daily_snapshot"`
	Backfill      string `mapstructure:"backfill"`
}

type TefasConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryBase   time.Duration `mapstructure:"retry_base"`
	RetryCeil   time.Duration `mapstructure:"retry_ceil"`
	SearchLimit int           `mapstructure:"search_limit"`
}

type ResolverConfig struct {
	MaxLookbackDays int `mapstructure:"max_lookback_days"`
}

type AdvisorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.price_ttl", "6h")
	v.SetDefault("cron.enabled", true)
	// TEFAS publishes end-of-day prices in the evening, Istanbul time.
	v.SetDefault("cron.daily_snapshot", "0 30 18 * * *")
	v.SetDefault("cron.backfill", "0 0 19 * * *")
	v.SetDefault("tefas.base_url", "https://www.tefas.gov.tr")
	v.SetDefault("tefas.timeout", "15s")
	v.SetDefault("tefas.max_retries", 3)
	v.SetDefault("tefas.retry_base", "500ms")
	v.SetDefault("tefas.retry_ceil", "8s")
	v.SetDefault("tefas.search_limit", 20)
	v.SetDefault("resolver.max_lookback_days", 7)
	v.SetDefault("advisor.enabled", false)
	v.SetDefault("advisor.model", "gemini-2.0-flash")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
