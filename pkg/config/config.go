package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Media        MediaConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Media.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CENTRIO_APP_ENV" required:"true"`
	Port         string `envconfig:"CENTRIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CENTRIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CENTRIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CENTRIO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CENTRIO_DB_DSN"`
	Driver string `envconfig:"CENTRIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CENTRIO_DB_HOST"`
	LegacyPort     int    `envconfig:"CENTRIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CENTRIO_DB_USER"`
	LegacyPassword string `envconfig:"CENTRIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"CENTRIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"CENTRIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CENTRIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CENTRIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CENTRIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CENTRIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CENTRIO_REDIS_URL"`
	Address      string        `envconfig:"CENTRIO_REDIS_ADDR"`
	Password     string        `envconfig:"CENTRIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"CENTRIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CENTRIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CENTRIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CENTRIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CENTRIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CENTRIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"CENTRIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CENTRIO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CENTRIO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CENTRIO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CENTRIO_AUTO_MIGRATE" default:"false"`
}

type MediaConfig struct {
	StorageRoot     string        `envconfig:"CENTRIO_MEDIA_STORAGE_ROOT" default:"./uploads"`
	PublicBaseURL   string        `envconfig:"CENTRIO_MEDIA_PUBLIC_BASE_URL" default:"http://localhost:8080/files"`
	MaxUploadMB     int           `envconfig:"CENTRIO_MAX_UPLOAD_MB" default:"200"`
	MaxBatchFiles   int           `envconfig:"CENTRIO_MEDIA_MAX_BATCH_FILES" default:"20"`
	BatchWorkers    int           `envconfig:"CENTRIO_MEDIA_BATCH_WORKERS" default:"4"`
	MaxPageSize     int           `envconfig:"CENTRIO_MEDIA_MAX_PAGE_SIZE" default:"200"`
	StatsCacheTTL   time.Duration `envconfig:"CENTRIO_MEDIA_STATS_CACHE_TTL" default:"0s"`
	StatsCacheSize  int           `envconfig:"CENTRIO_MEDIA_STATS_CACHE_SIZE" default:"256"`
	CORSAllowOrigin []string      `envconfig:"CENTRIO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) * 1024 * 1024
}

func (m MediaConfig) validate() error {
	if strings.TrimSpace(m.StorageRoot) == "" {
		return fmt.Errorf("%s is required", EnvMediaStorageRoot)
	}
	if _, err := url.Parse(m.PublicBaseURL); err != nil {
		return fmt.Errorf("%s is invalid: %w", EnvMediaPublicBaseURL, err)
	}
	return nil
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"CENTRIO_CRON_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"CENTRIO_CRON_LOCK_TTL" default:"55m"`
	OrphanGrace time.Duration `envconfig:"CENTRIO_CRON_ORPHAN_GRACE" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
