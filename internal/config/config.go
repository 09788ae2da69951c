// Package config loads service settings from defaults, an optional yaml file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	JournalPostgres = "postgres"
	JournalSQLite   = "sqlite"
	JournalNone     = "none"
)

type Config struct {
	HTTPPort           string        `mapstructure:"http_port"`
	LogLevel           string        `mapstructure:"log_level"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size"`

	MongoURI    string `mapstructure:"mongo_uri"`
	MongoDBName string `mapstructure:"mongo_db_name"`

	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	CredentialsTTL time.Duration `mapstructure:"credentials_ttl"`

	KafkaBrokers string `mapstructure:"kafka_brokers"`

	JournalDriver  string `mapstructure:"journal_driver"`
	DBHost         string `mapstructure:"db_host"`
	DBPort         int    `mapstructure:"db_port"`
	DBUser         string `mapstructure:"db_user"`
	DBPassword     string `mapstructure:"db_password"`
	DBName         string `mapstructure:"db_name"`
	MigrationsPath string `mapstructure:"migrations_path"`
	SQLitePath     string `mapstructure:"sqlite_path"`

	FulfillmentURL     string        `mapstructure:"fulfillment_url"`
	FulfillmentTimeout time.Duration `mapstructure:"fulfillment_timeout"`
	PublicBaseURL      string        `mapstructure:"public_base_url"`
	Currency           string        `mapstructure:"currency"`
	GatewayRPS         float64       `mapstructure:"gateway_rps"`
	SessionScanLimit   int           `mapstructure:"session_scan_limit"`
}

var defaults = map[string]any{
	"http_port":             "8080",
	"log_level":             "info",
	"request_timeout":       30 * time.Second,
	"shutdown_timeout":      10 * time.Second,
	"max_request_body_size": int64(1 << 20),
	"mongo_uri":             "mongodb://localhost:27017",
	"mongo_db_name":         "storefront",
	"redis_addr":            "",
	"redis_password":        "",
	"credentials_ttl":       5 * time.Minute,
	"kafka_brokers":         "",
	"journal_driver":        JournalSQLite,
	"db_host":               "localhost",
	"db_port":               5432,
	"db_user":               "postgres",
	"db_password":           "",
	"db_name":               "payments",
	"migrations_path":       "internal/journal/migrations",
	"sqlite_path":           "payments-journal.db",
	"fulfillment_url":       "",
	"fulfillment_timeout":   10 * time.Second,
	"public_base_url":       "",
	"currency":              "eur",
	"gateway_rps":           20.0,
	"session_scan_limit":    300,
}

// Load reads the configuration. path may be empty; environment variables
// named after the upper-cased keys (HTTP_PORT, MONGO_URI, ...) win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("mongo_uri is required"))
	}
	if c.MongoDBName == "" {
		errs = append(errs, errors.New("mongo_db_name is required"))
	}
	switch c.JournalDriver {
	case JournalPostgres, JournalSQLite, JournalNone:
	default:
		errs = append(errs, fmt.Errorf("unknown journal_driver %q", c.JournalDriver))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.CredentialsTTL <= 0 {
		errs = append(errs, errors.New("credentials_ttl must be positive"))
	}
	if c.SessionScanLimit <= 0 {
		errs = append(errs, errors.New("session_scan_limit must be positive"))
	}
	return errors.Join(errs...)
}

// Brokers splits KAFKA_BROKERS. An empty result disables the Kafka sinks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
