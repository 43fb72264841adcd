package config

// EnvPrefix is handed to envconfig; every field carries its full variable name anyway.
const EnvPrefix = "SERVICEDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SERVICEDESK_APP_ENV"
	EnvPort     = "SERVICEDESK_APP_PORT"
	EnvLogLevel = "SERVICEDESK_LOG_LEVEL"

	EnvDBDSN  = "SERVICEDESK_DB_DSN"
	EnvDBHost = "SERVICEDESK_DB_HOST"
	EnvDBUser = "SERVICEDESK_DB_USER"
	EnvDBName = "SERVICEDESK_DB_NAME"

	EnvRedisURL = "SERVICEDESK_REDIS_URL"

	EnvJWTSecret              = "SERVICEDESK_JWT_SECRET"
	EnvJWTIssuer              = "SERVICEDESK_JWT_ISSUER"
	EnvJWTExpMins             = "SERVICEDESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SERVICEDESK_REFRESH_TOKEN_TTL_MINUTES"

	EnvIPCRBaseURL = "SERVICEDESK_IPCR_BASE_URL"
	EnvIPCRTimeout = "SERVICEDESK_IPCR_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
