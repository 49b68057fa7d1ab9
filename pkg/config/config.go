package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Payment PaymentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NAWAWEEB_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"NAWAWEEB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NAWAWEEB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL       string        `envconfig:"NAWAWEEB_API_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"NAWAWEEB_API_TIMEOUT" default:"10s"`
	RetryAttempts uint64        `envconfig:"NAWAWEEB_API_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"NAWAWEEB_API_RETRY_BACKOFF" default:"200ms"`
}

type StorageConfig struct {
	Backend    string `envconfig:"NAWAWEEB_STORAGE_BACKEND" default:"file"`
	FilePath   string `envconfig:"NAWAWEEB_STORAGE_FILE_PATH" default:".nawaweeb/state.json"`
	SQLitePath string `envconfig:"NAWAWEEB_STORAGE_SQLITE_PATH" default:".nawaweeb/state.db"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StorageBackendFile, StorageBackendRedis, StorageBackendSQLite:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q", s.Backend)
}

// NormalizedBackend returns the lowercase storage backend name.
func (s StorageConfig) NormalizedBackend() string {
	return strings.ToLower(strings.TrimSpace(s.Backend))
}

type RedisConfig struct {
	URL          string        `envconfig:"NAWAWEEB_REDIS_URL"`
	Address      string        `envconfig:"NAWAWEEB_REDIS_ADDR"`
	Password     string        `envconfig:"NAWAWEEB_REDIS_PASSWORD"`
	DB           int           `envconfig:"NAWAWEEB_REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"NAWAWEEB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NAWAWEEB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NAWAWEEB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaymentConfig struct {
	MerchantName string `envconfig:"NAWAWEEB_PAYMENT_MERCHANT_NAME" default:"NAWAWEEB"`
	Description  string `envconfig:"NAWAWEEB_PAYMENT_DESCRIPTION" default:"Secure Premium Checkout"`
	ThemeColor   string `envconfig:"NAWAWEEB_PAYMENT_THEME_COLOR" default:"#000000"`
	Currency     string `envconfig:"NAWAWEEB_PAYMENT_CURRENCY" default:"INR"`
}
