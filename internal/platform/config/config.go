// Package config loads process configuration from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	strutil "tracker/pkg/platform/strings"
)

const envPrefix = "TRACKER"

// Config is the full process configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Auth     Auth
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Database struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
	AutoMigrate     bool
}

// RedisConfig enables the shared submission lock when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
}

// Kafka enables the audit outbox relay when Brokers is non-empty.
type Kafka struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
	RelayBatch    int
}

type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

type Log struct {
	Format string
	Level  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tracker.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.tx_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.lock_ttl", 10*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "tracker.survey-events")
	v.SetDefault("kafka.relay_interval", 2*time.Second)
	v.SetDefault("kafka.relay_batch", 100)

	// Use a default for development - should be overridden in production
	v.SetDefault("auth.jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("auth.issuer", "tracker")
	v.SetDefault("auth.audience", "tracker-client")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
}

// Load reads configuration. configFile may be empty; a named file that does
// not exist is an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("tracker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: Server{
			Addr:            v.GetString("server.addr"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: Database{
			Driver:          v.GetString("database.driver"),
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			TxTimeout:       v.GetDuration("database.tx_timeout"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
			LockTTL:      v.GetDuration("redis.lock_ttl"),
		},
		Kafka: Kafka{
			Brokers:       strutil.SplitList(v.GetStringSlice("kafka.brokers")),
			Topic:         v.GetString("kafka.topic"),
			RelayInterval: v.GetDuration("kafka.relay_interval"),
			RelayBatch:    v.GetInt("kafka.relay_batch"),
		},
		Auth: Auth{
			JWTSigningKey: v.GetString("auth.jwt_signing_key"),
			Issuer:        v.GetString("auth.issuer"),
			Audience:      v.GetString("auth.audience"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
		},
		Log: Log{
			Format: v.GetString("log.format"),
			Level:  v.GetString("log.level"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Auth.JWTSigningKey == "" {
		return errors.New("auth.jwt_signing_key is required")
	}
	return nil
}
