package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Empty disables both the notification publisher and the session sync consumer.
	RabbitURL string

	JWTSecret string

	LogLevel  string
	LogFormat string

	// Cron spec for the waitlist expiry sweep. Empty disables the sweep.
	WaitlistSweepSchedule string
	// How long a promoted waitlist user has to convert the offer into a booking.
	WaitlistResponseWindow time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8082"),
		DBDriver:               getEnv("DB_DRIVER", database.DriverPostgres),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", "postgres"),
		DBName:                 getEnv("DB_NAME", "studio_booking_db"),
		DBSSLMode:              getEnv("DB_SSLMODE", "disable"),
		SQLitePath:             getEnv("SQLITE_PATH", "studio.db"),
		RabbitURL:              os.Getenv("RABBITMQ_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		WaitlistSweepSchedule:  getEnvRaw("WAITLIST_SWEEP_SCHEDULE", "@every 1m"),
		WaitlistResponseWindow: getDuration("WAITLIST_RESPONSE_WINDOW", 2*time.Hour),
	}
}

// MinJWTSecretLen is the shortest HS256 signing key the service accepts.
const MinJWTSecretLen = 32

var ErrWeakJWTSecret = fmt.Errorf("JWT_SECRET must be set to at least %d bytes", MinJWTSecretLen)

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < MinJWTSecretLen {
		errs = append(errs, ErrWeakJWTSecret)
	}
	if c.DBDriver != database.DriverPostgres && c.DBDriver != database.DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == database.DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvRaw distinguishes "unset" from "set to empty", so a variable can be
// used to switch a feature off.
func getEnvRaw(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("invalid %s=%q, using %s", key, v, fallback)
	return fallback
}
