package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "CENTRIO_APP_ENV"
	EnvPort               = "CENTRIO_APP_PORT"
	EnvDBDSN              = "CENTRIO_DB_DSN"
	EnvDBHost             = "CENTRIO_DB_HOST"
	EnvDBUser             = "CENTRIO_DB_USER"
	EnvDBName             = "CENTRIO_DB_NAME"
	EnvUseSQLite          = "CENTRIO_USE_SQLITE"
	EnvRedisURL           = "CENTRIO_REDIS_URL"
	EnvJWTSecret          = "CENTRIO_JWT_SECRET"
	EnvJWTIssuer          = "CENTRIO_JWT_ISSUER"
	EnvMediaStorageRoot   = "CENTRIO_MEDIA_STORAGE_ROOT"
	EnvMediaPublicBaseURL = "CENTRIO_MEDIA_PUBLIC_BASE_URL"
	EnvMediaBatchWorkers  = "CENTRIO_MEDIA_BATCH_WORKERS"
	EnvMediaStatsCacheTTL = "CENTRIO_MEDIA_STATS_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const defaultSQLiteDSN = "file:centrio.db?_foreign_keys=on"
