package config

// EnvPrefix is intentionally empty; every field carries a fully qualified
// FORNI_* envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside the struct tags (error
// messages, tests).
const (
	EnvAppEnv                 = "FORNI_APP_ENV"
	EnvPort                   = "FORNI_APP_PORT"
	EnvDBDSN                  = "FORNI_DB_DSN"
	EnvDBHost                 = "FORNI_DB_HOST"
	EnvDBUser                 = "FORNI_DB_USER"
	EnvDBName                 = "FORNI_DB_NAME"
	EnvRedisURL               = "FORNI_REDIS_URL"
	EnvJWTSecret              = "FORNI_JWT_SECRET"
	EnvJWTIssuer              = "FORNI_JWT_ISSUER"
	EnvJWTExpMins             = "FORNI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FORNI_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
