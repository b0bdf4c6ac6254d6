package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the service.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Scheduler   SchedulerConfig
	Recovery    RecoveryConfig
	DeadLetter  DeadLetterConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

// DSN returns the connection string, preferring an explicit URL over the
// individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	// Enabled gates the dispatch claim store; the scheduler runs
	// correctly without it on a single node.
	Enabled  bool
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// SchedulerConfig tunes the due-check loop, the dispatch worker pool and
// the retry policy around each dispatch unit.
type SchedulerConfig struct {
	DueCheckInterval time.Duration
	BatchSize        int
	Workers          int
	QueueSize        int
	MaxAttempts      int
	Backoff          []time.Duration
	ClaimTTL         time.Duration
}

// RecoveryConfig tunes the missed-reminder scan and the retention pass.
type RecoveryConfig struct {
	Interval          time.Duration
	Grace             time.Duration
	UpperBound        time.Duration
	RetentionInterval time.Duration
	RetentionWindow   time.Duration
	RetentionBatch    int
}

type DeadLetterConfig struct {
	Path string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskdeck-scheduler"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "taskdeck"),
			User:            getString("DB_USER", "taskdeck"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBool("REDIS_CLAIMS_ENABLED", false),
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "taskdeck"),
		},
		Scheduler: SchedulerConfig{
			DueCheckInterval: getDuration("DUE_CHECK_INTERVAL", time.Minute),
			BatchSize:        getInt("DISPATCH_BATCH_SIZE", 100),
			Workers:          getInt("DISPATCH_WORKERS", 4),
			QueueSize:        getInt("DISPATCH_QUEUE_SIZE", 256),
			MaxAttempts:      getInt("DISPATCH_MAX_ATTEMPTS", 3),
			Backoff:          getDurations("DISPATCH_BACKOFF", []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}),
			ClaimTTL:         getDuration("DISPATCH_CLAIM_TTL", 2*time.Minute),
		},
		Recovery: RecoveryConfig{
			Interval:          getDuration("RECOVERY_INTERVAL", time.Hour),
			Grace:             getDuration("RECOVERY_GRACE", 5*time.Minute),
			UpperBound:        getDuration("RECOVERY_UPPER_BOUND", time.Hour),
			RetentionInterval: getDuration("RETENTION_INTERVAL", 24*time.Hour),
			RetentionWindow:   getDuration("RETENTION_WINDOW", 4380*time.Hour),
			RetentionBatch:    getInt("RETENTION_BATCH", 500),
		},
		DeadLetter: DeadLetterConfig{
			Path: getString("DEADLETTER_PATH", "./data/deadletter.db"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getDurations parses a comma-separated list of durations, e.g. "60s,5m,15m".
func getDurations(key string, fallback []time.Duration) []time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []time.Duration
	for _, part := range strings.Split(val, ",") {
		parsed, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return fallback
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
