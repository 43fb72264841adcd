package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	IPCR          IPCRConfig
	Idempotency   IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.IPCR.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVICEDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVICEDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERVICEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVICEDESK_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SERVICEDESK_LOG_FORMAT" default:"json"`

	// Timezone used to stamp the accomplishment report date.
	Timezone string `envconfig:"SERVICEDESK_APP_TIMEZONE" default:"Asia/Manila"`

	// Comma separated browser origins allowed by CORS.
	CORSOrigins []string `envconfig:"SERVICEDESK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DBConfig struct {
	DSN string `envconfig:"SERVICEDESK_DB_DSN"`

	LegacyHost     string `envconfig:"SERVICEDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVICEDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVICEDESK_DB_USER"`
	LegacyPassword string `envconfig:"SERVICEDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVICEDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVICEDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVICEDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVICEDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVICEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVICEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVICEDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVICEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SERVICEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVICEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVICEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVICEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVICEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVICEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVICEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SERVICEDESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SERVICEDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SERVICEDESK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SERVICEDESK_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SERVICEDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SERVICEDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SERVICEDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SERVICEDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SERVICEDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SERVICEDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SERVICEDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SERVICEDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERVICEDESK_AUTO_MIGRATE" default:"false"`
	Metrics     bool `envconfig:"SERVICEDESK_METRICS_ENABLED" default:"true"`
}

// IPCRConfig points at the external accomplishment-tracking service.
type IPCRConfig struct {
	BaseURL        string        `envconfig:"SERVICEDESK_IPCR_BASE_URL" required:"true"`
	Timeout        time.Duration `envconfig:"SERVICEDESK_IPCR_TIMEOUT" default:"10s"`
	OutputCacheTTL time.Duration `envconfig:"SERVICEDESK_IPCR_OUTPUT_CACHE_TTL" default:"5m"`
}

func (c IPCRConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvIPCRBaseURL)
	}
	if c.Timeout <= 0 || c.Timeout > time.Minute {
		return fmt.Errorf("%s must be between 0 and 1m", EnvIPCRTimeout)
	}
	return nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"SERVICEDESK_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
