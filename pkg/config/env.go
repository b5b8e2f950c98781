package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "CARTLEDGER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CARTLEDGER_APP_ENV"
	EnvPort     = "CARTLEDGER_APP_PORT"
	EnvTimezone = "CARTLEDGER_TIMEZONE"

	EnvDBDSN  = "CARTLEDGER_DB_DSN"
	EnvDBHost = "CARTLEDGER_DB_HOST"
	EnvDBUser = "CARTLEDGER_DB_USER"
	EnvDBName = "CARTLEDGER_DB_NAME"

	EnvRedisURL = "CARTLEDGER_REDIS_URL"

	EnvCronInterval = "CARTLEDGER_CRON_INTERVAL"
	EnvAdminToken   = "CARTLEDGER_ADMIN_TOKEN"
	EnvUseSQLite    = "CARTLEDGER_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
