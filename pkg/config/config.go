package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Discord struct {
		Token          string        `yaml:"token"`
		Prefix         string        `yaml:"prefix"`
		CommandTimeout time.Duration `yaml:"command_timeout"`
	} `yaml:"discord"`
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Dispatch struct {
		Mode       string        `yaml:"mode"` // inline | redis
		Workers    int           `yaml:"workers"`
		BufferSize int           `yaml:"buffer_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		RateLimit  struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"dispatch"`
	Market struct {
		HistoryProvider string        `yaml:"history_provider"` // yahoo | alpaca
		NewsProvider    string        `yaml:"news_provider"`    // finnhub | alpaca
		YahooBaseURL    string        `yaml:"yahoo_base_url"`
		FinvizBaseURL   string        `yaml:"finviz_base_url"`
		NasdaqURL       string        `yaml:"nasdaq_url"`
		TickersFile     string        `yaml:"tickers_file"`
		Timeout         time.Duration `yaml:"timeout"`
		Headlines       int           `yaml:"headlines"`
	} `yaml:"market"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"finnhub"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"alpaca"`
	Forecast struct {
		SeasonLength int     `yaml:"season_length"`
		Level        float64 `yaml:"level"`
		Simulations  int     `yaml:"simulations"`
		FastSims     int     `yaml:"fast_simulations"`
	} `yaml:"forecast"`
	Movers struct {
		Enabled   bool          `yaml:"enabled"`
		Source    string        `yaml:"source"` // yahoo | finnhub
		ChannelID string        `yaml:"channel_id"`
		Threshold float64       `yaml:"threshold"`
		Interval  time.Duration `yaml:"interval"`
		BatchSize int           `yaml:"batch_size"`
		Symbols   []string      `yaml:"symbols"`
	} `yaml:"movers"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		HistoryTTL time.Duration `yaml:"history_ttl"`
		MemorySize int           `yaml:"memory_size"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		AlertsTopic  string   `yaml:"alerts_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Validation runs after overrides so secrets may come from the environment only.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("BOT_PREFIX"); v != "" {
		c.Discord.Prefix = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.Alpaca.APISecret = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err == nil {
			c.Redis.Host = host
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		} else {
			c.Redis.Host = v
		}
	}
	if v := os.Getenv("MOVERS_CHANNEL_ID"); v != "" {
		c.Movers.ChannelID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Discord.Prefix == "" {
		c.Discord.Prefix = "?"
	}
	if c.Discord.CommandTimeout <= 0 {
		c.Discord.CommandTimeout = 3 * time.Minute
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Dispatch.Mode == "" {
		c.Dispatch.Mode = "inline"
	}
	if c.Dispatch.Workers <= 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.BufferSize <= 0 {
		c.Dispatch.BufferSize = 64
	}
	if c.Dispatch.RetryDelay <= 0 {
		c.Dispatch.RetryDelay = 10 * time.Second
	}
	if c.Dispatch.RateLimit.Capacity <= 0 {
		c.Dispatch.RateLimit.Capacity = 5
	}
	if c.Dispatch.RateLimit.RefillPerSec <= 0 {
		c.Dispatch.RateLimit.RefillPerSec = 0.2
	}
	if c.Market.HistoryProvider == "" {
		c.Market.HistoryProvider = "yahoo"
	}
	if c.Market.NewsProvider == "" {
		c.Market.NewsProvider = "finnhub"
	}
	if c.Market.YahooBaseURL == "" {
		c.Market.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Market.FinvizBaseURL == "" {
		c.Market.FinvizBaseURL = "https://finviz.com"
	}
	if c.Market.NasdaqURL == "" {
		c.Market.NasdaqURL = "https://www.nasdaqtrader.com/dynamic/SymDir/nasdaqtraded.txt"
	}
	if c.Market.TickersFile == "" {
		c.Market.TickersFile = "tickers.txt"
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 30 * time.Second
	}
	if c.Market.Headlines <= 0 {
		c.Market.Headlines = 25
	}
	if c.Finnhub.BaseURL == "" {
		c.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Finnhub.WebSocketURL == "" {
		c.Finnhub.WebSocketURL = "wss://ws.finnhub.io"
	}
	if c.Finnhub.ReconnectDelay <= 0 {
		c.Finnhub.ReconnectDelay = 5 * time.Second
	}
	if c.Finnhub.PingInterval <= 0 {
		c.Finnhub.PingInterval = 30 * time.Second
	}
	if c.Forecast.SeasonLength <= 0 {
		c.Forecast.SeasonLength = 7
	}
	if c.Forecast.Level <= 0 {
		c.Forecast.Level = 90
	}
	if c.Forecast.Simulations <= 0 {
		c.Forecast.Simulations = 200
	}
	if c.Forecast.FastSims <= 0 {
		c.Forecast.FastSims = 200
	}
	if c.Movers.Source == "" {
		c.Movers.Source = "yahoo"
	}
	if c.Movers.Interval <= 0 {
		c.Movers.Interval = time.Minute
	}
	if c.Movers.Threshold <= 0 {
		c.Movers.Threshold = 5
	}
	if c.Movers.BatchSize <= 0 {
		c.Movers.BatchSize = 1900
	}
	if c.Cache.HistoryTTL <= 0 {
		c.Cache.HistoryTTL = 15 * time.Minute
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 500
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "finbot"
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "finbot.commands"
	}
	if c.Kafka.AlertsTopic == "" {
		c.Kafka.AlertsTopic = "finbot.movers"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "finbot"
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "finbot"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if strings.TrimSpace(c.Discord.Prefix) == "" {
		return fmt.Errorf("discord.prefix cannot be blank")
	}
	if c.Dispatch.Mode != "inline" && c.Dispatch.Mode != "redis" {
		return fmt.Errorf("dispatch.mode must be 'inline' or 'redis', got '%s'", c.Dispatch.Mode)
	}
	if c.Dispatch.Mode == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("dispatch.mode 'redis' requires redis.enabled")
	}
	if c.Market.HistoryProvider != "yahoo" && c.Market.HistoryProvider != "alpaca" {
		return fmt.Errorf("market.history_provider must be 'yahoo' or 'alpaca', got '%s'", c.Market.HistoryProvider)
	}
	if c.Market.NewsProvider != "finnhub" && c.Market.NewsProvider != "alpaca" {
		return fmt.Errorf("market.news_provider must be 'finnhub' or 'alpaca', got '%s'", c.Market.NewsProvider)
	}
	usesAlpaca := c.Market.HistoryProvider == "alpaca" || c.Market.NewsProvider == "alpaca"
	if usesAlpaca && (c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "") {
		return fmt.Errorf("alpaca.api_key and alpaca.api_secret are required for the alpaca provider")
	}
	if c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required")
	}
	if c.Movers.Enabled {
		if c.Movers.ChannelID == "" {
			return fmt.Errorf("movers.channel_id is required when movers are enabled")
		}
		if c.Movers.Source != "yahoo" && c.Movers.Source != "finnhub" {
			return fmt.Errorf("movers.source must be 'yahoo' or 'finnhub', got '%s'", c.Movers.Source)
		}
		if c.Movers.Source == "finnhub" && len(c.Movers.Symbols) == 0 {
			return fmt.Errorf("movers.symbols cannot be empty for the finnhub source")
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
