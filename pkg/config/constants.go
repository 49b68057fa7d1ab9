package config

// EnvPrefix is applied to every envconfig lookup.
const EnvPrefix = "NAWAWEEB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendSQLite = "sqlite"
)

// Environment variable names referenced outside envconfig tags.
const (
	EnvAppEnv     = "NAWAWEEB_APP_ENV"
	EnvAPIBaseURL = "NAWAWEEB_API_BASE_URL"
	EnvRedisURL   = "NAWAWEEB_REDIS_URL"
)
