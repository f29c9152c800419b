package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// Config is the configuration of the ledger, read from the environment.
type Config struct {
	// PostgreSQL. If DBHost is set, PostgreSQL is used instead of SQLite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string

	// SQLite
	SQLitePath string

	// Salt for the friendly transaction ids
	HashidsSalt string

	// Maximum time to wait for the lock on an envelope
	LockTimeout time.Duration

	// Allow withdrawals to make the envelope balance negative
	AllowOverdraft bool

	// Logging
	LogFormat string
	LogLevel  string

	// AMQP. Events are only published if AMQPURL is set
	AMQPURL      string
	AMQPExchange string

	// Metrics are written to this file in the Prometheus text format if set
	MetricsTextfile string

	// Variables that could not be parsed, reported by Validate
	invalid []string
}

var logFormats = []string{"", "human", "json"}

// Load reads the configuration from the environment.
//
// Variables from the files passed are loaded into the environment
// first. Without files, a .env file in the working directory is used
// if it exists. Variables that are already set are never overridden.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, fmt.Errorf("loading environment files: %w", err)
		}
	}

	var invalid []string

	lockTimeout, err := getEnvDuration("LOCK_TIMEOUT", 5*time.Second)
	if err != nil {
		invalid = append(invalid, err.Error())
	}

	allowOverdraft, err := getEnvBool("ALLOW_OVERDRAFT", true)
	if err != nil {
		invalid = append(invalid, err.Error())
	}

	return Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		SQLitePath: getEnv("SQLITE_PATH", "data/ledger.db"),

		HashidsSalt: os.Getenv("HASHIDS_SALT"),

		LockTimeout:    lockTimeout,
		AllowOverdraft: allowOverdraft,

		LogFormat: os.Getenv("LOG_FORMAT"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		invalid: invalid,
	}, nil
}

// Postgres returns true if PostgreSQL is configured.
func (c Config) Postgres() bool {
	return c.DBHost != ""
}

// PostgresDSN returns the connection string for PostgreSQL.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s", c.DBHost, c.DBUser, c.DBPassword, c.DBName)
}

// Validate returns an error listing all problems with the configuration.
func (c Config) Validate() error {
	problems := slices.Clone(c.invalid)

	if c.Postgres() {
		if c.DBUser == "" {
			problems = append(problems, "DB_USER must be set when DB_HOST is set")
		}
		if c.DBName == "" {
			problems = append(problems, "DB_NAME must be set when DB_HOST is set")
		}
	} else if c.SQLitePath == "" {
		problems = append(problems, "SQLITE_PATH must not be empty")
	}

	if c.LockTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid lock timeout %v: must be positive", c.LockTimeout))
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'human' or 'json'", c.LogFormat))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if c.AMQPURL != "" {
		parsed, err := url.Parse(c.AMQPURL)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}

		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE must not be empty when AMQP_URL is set")
		}
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s '%s': must be 'true' or 'false'", key, value)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s '%s': must be a duration like '5s'", key, value)
	}
	return d, nil
}
