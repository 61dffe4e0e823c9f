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
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	ServiceAuth  ServiceAuthConfig
	Guard        GuardConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Guard.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHAREMEAL_APP_ENV" required:"true"`
	Port         string `envconfig:"SHAREMEAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHAREMEAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHAREMEAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig holds the edge protections applied by the API router.
type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"SHAREMEAL_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitWindow time.Duration `envconfig:"SHAREMEAL_RATE_LIMIT_WINDOW" default:"15m"`
	RateLimitMax    int           `envconfig:"SHAREMEAL_RATE_LIMIT_MAX" default:"300"`
	RequestTimeout  time.Duration `envconfig:"SHAREMEAL_REQUEST_TIMEOUT" default:"15s"`
}

type ServiceConfig struct {
	Kind string `envconfig:"SHAREMEAL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHAREMEAL_DB_DSN"`
	Driver string `envconfig:"SHAREMEAL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHAREMEAL_DB_HOST"`
	Port     int    `envconfig:"SHAREMEAL_DB_PORT" default:"5432"`
	User     string `envconfig:"SHAREMEAL_DB_USER"`
	Password string `envconfig:"SHAREMEAL_DB_PASSWORD"`
	Name     string `envconfig:"SHAREMEAL_DB_NAME"`
	SSLMode  string `envconfig:"SHAREMEAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHAREMEAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHAREMEAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHAREMEAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHAREMEAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional. Without a URL the guard worker falls back to an
// in-process lock, which is only safe with a single worker replica.
type RedisConfig struct {
	URL          string        `envconfig:"SHAREMEAL_REDIS_URL"`
	Address      string        `envconfig:"SHAREMEAL_REDIS_ADDR"`
	Password     string        `envconfig:"SHAREMEAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHAREMEAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHAREMEAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHAREMEAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHAREMEAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHAREMEAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHAREMEAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SHAREMEAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHAREMEAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHAREMEAL_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ServiceAuthConfig guards the machine-to-machine AI routes.
type ServiceAuthConfig struct {
	Token string `envconfig:"SHAREMEAL_AI_SERVICE_TOKEN"`
}

// GuardConfig tunes the background sweeps that expire meals and release stale claims.
type GuardConfig struct {
	Schedule           string        `envconfig:"SHAREMEAL_GUARD_SCHEDULE" default:"@every 5m"`
	StartDelay         time.Duration `envconfig:"SHAREMEAL_GUARD_START_DELAY" default:"5s"`
	ReservationTimeout time.Duration `envconfig:"SHAREMEAL_GUARD_RESERVATION_TIMEOUT" default:"30m"`
	StalePickupTimeout time.Duration `envconfig:"SHAREMEAL_GUARD_STALE_PICKUP_TIMEOUT" default:"2h"`
	LockTTL            time.Duration `envconfig:"SHAREMEAL_GUARD_LOCK_TTL" default:"4m"`
	MetricsPort        string        `envconfig:"SHAREMEAL_GUARD_METRICS_PORT" default:"9091"`
}

func (g GuardConfig) validate() error {
	if strings.TrimSpace(g.Schedule) == "" {
		return fmt.Errorf("%s must not be empty", EnvGuardSchedule)
	}
	if g.ReservationTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvGuardReservationTimeout)
	}
	if g.StalePickupTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvGuardStalePickupTimeout)
	}
	if g.StartDelay < 0 {
		return fmt.Errorf("%s must not be negative", EnvGuardStartDelay)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHAREMEAL_AUTO_MIGRATE" default:"false"`

	// RequireVerified gates mutating meal and claim operations on account verification.
	RequireVerified bool `envconfig:"SHAREMEAL_REQUIRE_VERIFIED" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dsnPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
