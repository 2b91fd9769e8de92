package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the cart service configuration.
type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"required,oneof=trace debug info warn error"`
	LogFormat string `validate:"required,oneof=text json"`
	Locale    string `validate:"required,oneof=pt-BR en"`

	StorageDriver string `validate:"required,oneof=file memory redis mysql postgres mongo"`
	StorageKey    string `validate:"required"`
	FileDir       string `validate:"required_if=StorageDriver file"`
	RedisAddr     string `validate:"required_if=StorageDriver redis"`
	RedisTTL      time.Duration
	MySQLDSN      string `validate:"required_if=StorageDriver mysql"`
	PostgresDSN   string `validate:"required_if=StorageDriver postgres"`
	MongoURI      string `validate:"required_if=StorageDriver mongo"`
	MongoDatabase string `validate:"required_if=StorageDriver mongo"`

	// CatalogURL points at the catalog API. When empty, CatalogSeed is served
	// in-process instead.
	CatalogURL      string        `validate:"omitempty,url"`
	CatalogSeed     string        `validate:"required_without=CatalogURL"`
	CatalogTimeout  time.Duration `validate:"gt=0"`
	CatalogSecret   string
	CatalogIssuer   string        `validate:"required"`
	BreakerFailures uint32        `validate:"gt=0"`
	BreakerCooldown time.Duration `validate:"gt=0"`

	InboxCapacity int `validate:"gt=0"`
}

// CatalogConfig configures the catalog API binary.
type CatalogConfig struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"required,oneof=trace debug info warn error"`
	LogFormat string `validate:"required,oneof=text json"`

	Driver   string `validate:"required,oneof=memory mysql"`
	SeedPath string `validate:"required_if=Driver memory"`
	MySQLDSN string `validate:"required_if=Driver mysql"`

	Secret string
	Issuer string `validate:"required"`
}

func Load() (Config, error) {
	cfg := Config{
		Port:      getenv("APP_PORT", "8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
		Locale:    getenv("CART_LOCALE", "pt-BR"),

		StorageDriver: getenv("CART_STORAGE_DRIVER", DriverFile),
		StorageKey:    getenv("CART_STORAGE_KEY", "@RocketShoes:cart"),
		FileDir:       getenv("CART_FILE_DIR", "./data"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:      os.Getenv("MYSQL_DSN"),
		PostgresDSN:   os.Getenv("PG_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenv("MONGO_DATABASE", "rocketshoes"),

		CatalogURL:    os.Getenv("CATALOG_URL"),
		CatalogSeed:   os.Getenv("CATALOG_SEED"),
		CatalogSecret: os.Getenv("CATALOG_JWT_SECRET"),
		CatalogIssuer: getenv("CATALOG_JWT_ISSUER", "rocketshoes"),
	}
	if cfg.CatalogURL == "" && cfg.CatalogSeed == "" {
		cfg.CatalogURL = "http://localhost:3333"
	}

	var err error
	if cfg.RedisTTL, err = getenvDuration("REDIS_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.CatalogTimeout, err = getenvDuration("CATALOG_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BreakerCooldown, err = getenvDuration("CATALOG_BREAKER_COOLDOWN", 30*time.Second); err != nil {
		return Config{}, err
	}
	failures, err := getenvInt("CATALOG_BREAKER_FAILURES", 5)
	if err != nil {
		return Config{}, err
	}
	if failures < 0 {
		return Config{}, fmt.Errorf("CATALOG_BREAKER_FAILURES must not be negative, got %d", failures)
	}
	cfg.BreakerFailures = uint32(failures)
	if cfg.InboxCapacity, err = getenvInt("CART_INBOX_CAPACITY", 64); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadCatalog() (CatalogConfig, error) {
	cfg := CatalogConfig{
		Port:      getenv("CATALOG_PORT", "3333"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
		Driver:    getenv("CATALOG_DRIVER", DriverMemory),
		SeedPath:  getenv("CATALOG_SEED", "app/catalog/db.json"),
		MySQLDSN:  os.Getenv("MYSQL_DSN"),
		Secret:    os.Getenv("CATALOG_JWT_SECRET"),
		Issuer:    getenv("CATALOG_JWT_ISSUER", "rocketshoes"),
	}
	if err := validate(cfg); err != nil {
		return CatalogConfig{}, err
	}
	return cfg, nil
}

func validate(cfg any) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
