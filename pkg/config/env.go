package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "SHAREMEAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SHAREMEAL_APP_ENV"
	EnvPort     = "SHAREMEAL_APP_PORT"
	EnvLogLevel = "SHAREMEAL_LOG_LEVEL"

	EnvDBDSN  = "SHAREMEAL_DB_DSN"
	EnvDBHost = "SHAREMEAL_DB_HOST"
	EnvDBPort = "SHAREMEAL_DB_PORT"
	EnvDBUser = "SHAREMEAL_DB_USER"
	EnvDBName = "SHAREMEAL_DB_NAME"

	EnvRedisURL = "SHAREMEAL_REDIS_URL"

	EnvJWTSecret  = "SHAREMEAL_JWT_SECRET"
	EnvJWTIssuer  = "SHAREMEAL_JWT_ISSUER"
	EnvJWTExpMins = "SHAREMEAL_JWT_EXPIRATION_MINUTES"

	EnvAIServiceToken = "SHAREMEAL_AI_SERVICE_TOKEN"

	EnvGuardSchedule           = "SHAREMEAL_GUARD_SCHEDULE"
	EnvGuardStartDelay         = "SHAREMEAL_GUARD_START_DELAY"
	EnvGuardReservationTimeout = "SHAREMEAL_GUARD_RESERVATION_TIMEOUT"
	EnvGuardStalePickupTimeout = "SHAREMEAL_GUARD_STALE_PICKUP_TIMEOUT"

	EnvRequireVerified = "SHAREMEAL_REQUIRE_VERIFIED"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
