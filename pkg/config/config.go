package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"CreditScore/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level" default:"info"`
		Format  string `yaml:"format" default:"console"`
		Output  string `yaml:"output" default:"stdout"`
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"creditscore-errors"`
			FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		IdleTTL           time.Duration `yaml:"idle_ttl" default:"10m"`
		SweepInterval     time.Duration `yaml:"sweep_interval" default:"1m"`
	} `yaml:"rate_limit"`
	Models struct {
		Dir        string `yaml:"dir" default:"models"`
		Catalog    string `yaml:"catalog"`
		Supervised struct {
			Scaler     string `yaml:"scaler" default:"supervised_scaler.json"`
			Classifier string `yaml:"classifier" default:"supervised_classifier.json"`
		} `yaml:"supervised"`
		PseudoLabel struct {
			Scaler     string `yaml:"scaler" default:"pseudo_label_scaler.json"`
			Projector  string `yaml:"projector" default:"pseudo_label_pca.json"`
			Classifier string `yaml:"classifier" default:"pseudo_label_classifier.json"`
		} `yaml:"pseudo_label"`
		Classifier struct {
			Backend string        `yaml:"backend" default:"file"`
			URL     string        `yaml:"url"`
			Timeout time.Duration `yaml:"timeout" default:"3s"`
			Retries int           `yaml:"retries" default:"1"`
		} `yaml:"classifier"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"models"`
	Dataset struct {
		Source     string        `yaml:"source" default:"csv"`
		CSVPath    string        `yaml:"csv_path" default:"data/CreditScore.csv"`
		Table      string        `yaml:"table" default:"credit_records"`
		SummaryTTL time.Duration `yaml:"summary_ttl"`
	} `yaml:"dataset"`
	Import struct {
		Backend      string        `yaml:"backend" default:"kafka"`
		BatchSize    int           `yaml:"batch_size" default:"500"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
	} `yaml:"import"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"credit-records"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"500"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"creditscore-importer"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"1000"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"creditscore"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"creditscore:"`
		PoolSize     int           `yaml:"pool_size"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"2s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"1s"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MODELS_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		c.Models.Classifier.Backend = "http"
		c.Models.Classifier.URL = v
	}
	if v := os.Getenv("DATASET_SOURCE"); v != "" {
		c.Dataset.Source = v
	}
	if v := os.Getenv("DATASET_CSV"); v != "" {
		c.Dataset.CSVPath = v
	}
	if v := os.Getenv("IMPORT_BACKEND"); v != "" {
		c.Import.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json', got '%s'", c.Log.Format)
	}
	switch c.Models.Classifier.Backend {
	case "file":
	case "http":
		if c.Models.Classifier.URL == "" {
			return fmt.Errorf("models.classifier.url is required for the http backend")
		}
	default:
		return fmt.Errorf("models.classifier.backend must be 'file' or 'http', got '%s'", c.Models.Classifier.Backend)
	}
	if c.Dataset.Source != "csv" && c.Dataset.Source != "clickhouse" {
		return fmt.Errorf("dataset.source must be 'csv' or 'clickhouse', got '%s'", c.Dataset.Source)
	}
	if c.Import.Backend != "kafka" && c.Import.Backend != "clickhouse" {
		return fmt.Errorf("import.backend must be 'kafka' or 'clickhouse', got '%s'", c.Import.Backend)
	}
	if c.KafkaUsed() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is used")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	if c.RateLimit.IdleTTL < 0 || c.RateLimit.SweepInterval < 0 {
		return fmt.Errorf("rate_limit durations must not be negative")
	}
	return nil
}

// KafkaUsed reports whether the server needs a Kafka connection:
// the record consumer or the error log collector.
func (c *Config) KafkaUsed() bool {
	return c.Kafka.Enabled || c.Log.Collect.Enabled
}

// ClickHouseUsed reports whether the server needs a ClickHouse connection.
func (c *Config) ClickHouseUsed() bool {
	return c.Dataset.Source == "clickhouse" || c.Kafka.Enabled
}
