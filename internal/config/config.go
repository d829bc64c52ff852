// Package config resolves process settings from flags, CHAINPOLL_* environment
// variables and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/factory"
)

const envPrefix = "CHAINPOLL"

const (
	EnvFileKey          = "env-file"
	HTTPAddrKey         = "http-addr"
	LogLevelKey         = "log-level"
	LogDevKey           = "log-dev"
	StoreKey            = "store"
	LevelDBPathKey      = "leveldb-path"
	PebblePathKey       = "pebble-path"
	PostgresDSNKey      = "postgres-dsn"
	PostgresMigrateKey  = "postgres-migrate"
	RedisURLKey         = "redis-url"
	RedisNamespaceKey   = "redis-namespace"
	KafkaBrokersKey     = "kafka-brokers"
	KafkaTopicKey       = "kafka-topic"
	JWTSecretKey        = "jwt-secret"
	MetricsNamespaceKey = "metrics-namespace"
	ShutdownTimeoutKey  = "shutdown-timeout"
)

type Config struct {
	HTTPAddr string
	LogLevel string
	LogDev   bool

	Store factory.Config

	// KafkaBrokers empty means events are only logged.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret        string
	MetricsNamespace string
	ShutdownTimeout  time.Duration
}

// BuildFlagSet declares every setting understood by Load.
func BuildFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String(EnvFileKey, ".env", "Optional dotenv file loaded before reading the environment")
	fs.String(HTTPAddrKey, "0.0.0.0:8080", "HTTP listen address")
	fs.String(LogLevelKey, "info", "Log level (debug, info, warn, error)")
	fs.Bool(LogDevKey, false, "Human readable console logs")

	fs.String(StoreKey, "leveldb", "Storage engine: memory, leveldb, pebble, postgres or redis")
	fs.String(LevelDBPathKey, "data/chainpoll", "LevelDB directory")
	fs.String(PebblePathKey, "data/chainpoll-pebble", "Pebble directory")
	fs.String(PostgresDSNKey, "", "Postgres connection string; built from POSTGRES_* when empty")
	fs.Bool(PostgresMigrateKey, false, "Apply embedded migrations on startup")
	fs.String(RedisURLKey, "redis://localhost:6379/0", "Redis URL")
	fs.String(RedisNamespaceKey, "chainpoll", "Prefix for the redis keys")

	fs.StringSlice(KafkaBrokersKey, nil, "Kafka brokers for state change events")
	fs.String(KafkaTopicKey, "chainpoll.events", "Kafka topic for state change events")

	fs.String(JWTSecretKey, "", "HS256 secret used to verify bearer tokens")
	fs.String(MetricsNamespaceKey, "chainpoll", "Prometheus metric namespace")
	fs.Duration(ShutdownTimeoutKey, 30*time.Second, "Graceful shutdown timeout")

	return fs
}

// Load parses args into fs and resolves the configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, err := fs.GetString(EnvFileKey)
	if err != nil {
		return nil, err
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr: v.GetString(HTTPAddrKey),
		LogLevel: v.GetString(LogLevelKey),
		LogDev:   v.GetBool(LogDevKey),
		Store: factory.Config{
			Backend:         v.GetString(StoreKey),
			LevelDBPath:     v.GetString(LevelDBPathKey),
			PebblePath:      v.GetString(PebblePathKey),
			PostgresDSN:     v.GetString(PostgresDSNKey),
			PostgresMigrate: v.GetBool(PostgresMigrateKey),
			RedisURL:        v.GetString(RedisURLKey),
			RedisNamespace:  v.GetString(RedisNamespaceKey),
		},
		KafkaBrokers:     v.GetStringSlice(KafkaBrokersKey),
		KafkaTopic:       v.GetString(KafkaTopicKey),
		JWTSecret:        v.GetString(JWTSecretKey),
		MetricsNamespace: v.GetString(MetricsNamespaceKey),
		ShutdownTimeout:  v.GetDuration(ShutdownTimeoutKey),
	}
	if cfg.Store.PostgresDSN == "" {
		cfg.Store.PostgresDSN = PostgresDSNFromEnv()
	}
	// Env values for slices arrive as one comma separated string.
	if len(cfg.KafkaBrokers) == 1 && strings.Contains(cfg.KafkaBrokers[0], ",") {
		cfg.KafkaBrokers = strings.Split(cfg.KafkaBrokers[0], ",")
	}

	return cfg, nil
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%s is required", JWTSecretKey)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("%s is required when %s is set", KafkaTopicKey, KafkaBrokersKey)
	}
	return nil
}

// PostgresDSNFromEnv builds a connection string from the POSTGRES_* variables,
// or returns "" when POSTGRES_HOST is unset.
func PostgresDSNFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     host + ":" + port,
		Path:     os.Getenv("POSTGRES_DB"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
