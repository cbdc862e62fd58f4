package config

import (
	"errors"
	"fmt"
	"time"

	"cafe_backoffice/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultJWTSecret = "dev-secret-change-me"
)

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SchemaPath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageConfig points at the S3-compatible bucket holding product images.
type StorageConfig struct {
	URL       string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	PublicURL string
}

// Enabled reports whether an endpoint or credentials were configured.
func (s StorageConfig) Enabled() bool {
	return s.URL != "" || s.AccessKey != ""
}

// RedisConfig configures the category cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type Config struct {
	Env            string
	Port           string
	LogLevel       string
	AllowedOrigins []string
	JWTSecret      string
	JWTExpiration  time.Duration
	DefaultTaxRate decimal.Decimal
	Location       *time.Location
	Database       DatabaseConfig
	Storage        StorageConfig
	Redis          RedisConfig
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	env := utils.Getenv("APP_ENV", EnvDevelopment)
	defaultLevel := "debug"
	if env == EnvProduction {
		defaultLevel = "info"
	}

	taxRate, err := decimal.NewFromString(utils.Getenv("DEFAULT_TAX_RATE", "0.15"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}

	loc, err := time.LoadLocation(utils.Getenv("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:            env,
		Port:           utils.Getenv("PORT", "8080"),
		LogLevel:       utils.Getenv("LOG_LEVEL", defaultLevel),
		AllowedOrigins: utils.GetenvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		JWTSecret:      utils.Getenv("JWT_SECRET", defaultJWTSecret),
		JWTExpiration:  utils.GetenvDuration("JWT_EXPIRATION", 12*time.Hour),
		DefaultTaxRate: taxRate,
		Location:       loc,
		Database: DatabaseConfig{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "cafe"),
			Password:        utils.Getenv("DB_PASSWORD", "cafe"),
			Name:            utils.Getenv("DB_NAME", "cafe_db"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath:      utils.Getenv("DB_SCHEMA_PATH", ""),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Storage: StorageConfig{
			URL:       utils.Getenv("STORAGE_URL", ""),
			AccessKey: utils.Getenv("STORAGE_ACCESS_KEY", ""),
			SecretKey: utils.Getenv("STORAGE_SECRET_KEY", ""),
			Region:    utils.Getenv("STORAGE_REGION", "us-east-1"),
			Bucket:    utils.Getenv("STORAGE_BUCKET", "productos-imagenes"),
			PublicURL: utils.Getenv("STORAGE_PUBLIC_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     utils.Getenv("REDIS_ADDR", ""),
			Password: utils.Getenv("REDIS_PASSWORD", ""),
			DB:       utils.GetenvInt("REDIS_DB", 0),
			TTL:      utils.GetenvDuration("CATEGORY_CACHE_TTL", 10*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.DefaultTaxRate.IsNegative() || c.DefaultTaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("DEFAULT_TAX_RATE must be in [0, 1), got %s", c.DefaultTaxRate)
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Storage.Bucket == "" {
		return errors.New("STORAGE_BUCKET must not be empty")
	}
	return nil
}
