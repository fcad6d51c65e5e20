package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Index  IndexConfig  `mapstructure:"index"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type IndexConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Index   string        `mapstructure:"index"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	UnderstandingTTL time.Duration `mapstructure:"understanding_ttl"`
	SuggestionTTL    time.Duration `mapstructure:"suggestion_ttl"`
	OverviewTTL      time.Duration `mapstructure:"overview_ttl"`
	RankingTTL       time.Duration `mapstructure:"ranking_ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

type SearchConfig struct {
	DefaultPageSize int      `mapstructure:"default_page_size"`
	MaxPageSize     int      `mapstructure:"max_page_size"`
	Categories      []string `mapstructure:"categories"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("index.index", "pages")
	viper.SetDefault("index.timeout", 8*time.Second)

	viper.SetDefault("llm.timeout", 8*time.Second)

	viper.SetDefault("cache.understanding_ttl", 30*time.Minute)
	viper.SetDefault("cache.suggestion_ttl", 15*time.Minute)
	viper.SetDefault("cache.overview_ttl", 60*time.Minute)
	viper.SetDefault("cache.ranking_ttl", 30*time.Minute)
	viper.SetDefault("cache.sweep_interval", 5*time.Minute)

	viper.SetDefault("search.default_page_size", 10)
	viper.SetDefault("search.max_page_size", 50)
	viper.SetDefault("search.categories", []string{
		"blogs", "documentation", "news", "events", "products", "support",
	})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "console")
}
