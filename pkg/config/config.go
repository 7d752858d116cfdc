package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AssetConfig declares one instrument a strategy trades.
type AssetConfig struct {
	Ticker     string `yaml:"ticker"`
	Identifier string `yaml:"identifier"`
	Alias      string `yaml:"alias"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Pipeline struct {
		RetentionRows  int           `yaml:"retention_rows"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"pipeline"`
	Balanz struct {
		WebsocketURL string        `yaml:"websocket_url"`
		APIURL       string        `yaml:"api_url"`
		Token        string        `yaml:"token"`
		Plazo        int           `yaml:"plazo"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"balanz"`
	Strategy struct {
		Asset     AssetConfig `yaml:"asset"`
		Timeframe int         `yaml:"timeframe"`
		MinLength int         `yaml:"min_length"`
		SMALength int         `yaml:"sma_length"`
		Quantity  int64       `yaml:"quantity"`
	} `yaml:"strategy"`
	Portfolio struct {
		Name   string  `yaml:"name"`
		Liquid float64 `yaml:"liquid"`
	} `yaml:"portfolio"`
	Fills struct {
		Backend string `yaml:"backend"` // kafka, sqlite or none
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			BatchBytes   int           `yaml:"batch_bytes"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"fills"`
	Archive struct {
		Enabled      bool   `yaml:"enabled"`
		Underlying   string `yaml:"underlying"`
		OptionPrefix string `yaml:"option_prefix"`
		ClickHouse   struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			Table            string        `yaml:"table"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			WriteTimeout     time.Duration `yaml:"write_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. The session token in particular should come from the
// environment rather than the file.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("BALANZ_TOKEN"); v != "" {
		c.Balanz.Token = v
	}
	if v := os.Getenv("FILLS_BACKEND"); v != "" {
		c.Fills.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Fills.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Fills.Kafka.Topic = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Balanz.WebsocketURL == "" {
		return fmt.Errorf("balanz.websocket_url is required")
	}
	if c.Balanz.Token == "" {
		return fmt.Errorf("balanz.token is required (or BALANZ_TOKEN)")
	}
	if c.Strategy.Asset.Ticker == "" {
		return fmt.Errorf("strategy.asset.ticker is required")
	}
	if c.Strategy.Timeframe < 5 {
		return fmt.Errorf("strategy.timeframe must be at least 5 seconds, got %d", c.Strategy.Timeframe)
	}
	switch c.Fills.Backend {
	case "", "none", "kafka", "sqlite":
	default:
		return fmt.Errorf("fills.backend must be 'kafka', 'sqlite' or 'none', got '%s'", c.Fills.Backend)
	}
	if c.Fills.Backend == "kafka" && len(c.Fills.Kafka.Brokers) == 0 {
		return fmt.Errorf("fills.kafka.brokers cannot be empty")
	}
	if c.Fills.Backend == "sqlite" && c.Fills.SQLite.Path == "" {
		return fmt.Errorf("fills.sqlite.path is required")
	}
	if c.Archive.Enabled && c.Balanz.APIURL == "" {
		return fmt.Errorf("balanz.api_url is required when archive is enabled")
	}
	return nil
}
