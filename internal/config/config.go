package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"loan-tracker/internal/infrastructure/db"
)

type Config struct {
	AppPort string
	AppEnv  string

	DBDriver   string
	MySQLHost  string
	MySQLPort  string
	MySQLDB    string
	MySQLUser  string
	MySQLPass  string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	JWTSecret     string
	JWTTTLMinutes int

	UploadDir      string
	UploadMaxBytes int64
	PublicBaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	RealtimeChannel string

	LogLevel  string
	LogFormat string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment. With APP_ENV=local a .env file (or envFile,
// when given) is loaded first; real environment variables still win.
func Load(envFile ...string) *Config {
	if getenv("APP_ENV", "local") == "local" {
		if err := godotenv.Load(envFile...); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("config: load env file", "err", err)
		}
	}

	c := &Config{
		AppPort: getenv("APP_PORT", "8080"),
		AppEnv:  getenv("APP_ENV", "local"),

		DBDriver:   getenv("DB_DRIVER", db.DriverMySQL),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "loans"),
		MySQLUser:  getenv("MYSQL_USER", "loans"),
		MySQLPass:  getenv("MYSQL_PASS", "loans"),
		SQLitePath: getenv("SQLITE_PATH", "loans.db"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTLMinutes: getenvInt("JWT_TTL_MINUTES", 24*60),

		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(getenvInt("UPLOAD_MAX_BYTES", 5<<20)),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8080"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getenv("AMQP_EXCHANGE", "loan-tracker"),
		AMQPQueue:    getenv("AMQP_QUEUE", "push-notifications"),

		RealtimeChannel: getenv("REALTIME_CHANNEL", "loan-tracker:events"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}
	return c
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case db.DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case db.DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (mysql|sqlite)", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTLMinutes <= 0 {
		return errors.New("JWT_TTL_MINUTES must be positive")
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.UploadDir == "" || c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_DIR and a positive UPLOAD_MAX_BYTES are required")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == db.DriverSQLite {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) JWTTTL() time.Duration { return time.Duration(c.JWTTTLMinutes) * time.Minute }

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
