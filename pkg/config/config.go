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
	FeatureFlags FeatureFlagsConfig
	Trips        TripsConfig
	Prices       PricesConfig
	Cron         CronConfig
	Admin        AdminConfig
	Cache        CacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.DB.SQLitePath == "" {
			return nil, fmt.Errorf("%s requires CARTLEDGER_DB_SQLITE_PATH", EnvUseSQLite)
		}
		cfg.DB.Driver = DriverSQLite
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTLEDGER_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"CARTLEDGER_TIMEZONE" default:"UTC"`

	CORSAllowedOrigins []string `envconfig:"CARTLEDGER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone used for calendar-day boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

type ServiceConfig struct {
	Kind string `envconfig:"CARTLEDGER_SERVICE_KIND" default:"api"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN        string `envconfig:"CARTLEDGER_DB_DSN"`
	Driver     string `envconfig:"CARTLEDGER_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"CARTLEDGER_DB_SQLITE_PATH" default:"cartledger.db"`

	LegacyHost     string `envconfig:"CARTLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"CARTLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARTLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"CARTLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARTLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARTLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTLEDGER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CARTLEDGER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CARTLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTLEDGER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARTLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"CARTLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARTLEDGER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARTLEDGER_AUTO_MIGRATE" default:"false"`
}

// TripsConfig holds the trip lifecycle windows. CleanupGrace must stay longer
// than ReopenGrace so a trip is never purged while it can still be re-opened.
type TripsConfig struct {
	ReopenGrace  time.Duration `envconfig:"CARTLEDGER_TRIP_REOPEN_GRACE" default:"30m"`
	CleanupGrace time.Duration `envconfig:"CARTLEDGER_TRIP_CLEANUP_GRACE" default:"2h"`
}

type PricesConfig struct {
	BackfillBatchSize int `envconfig:"CARTLEDGER_BACKFILL_BATCH_SIZE" default:"100"`
	ReceiptMaxItems   int `envconfig:"CARTLEDGER_RECEIPT_MAX_ITEMS" default:"200"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CARTLEDGER_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"CARTLEDGER_CRON_LOCK_TTL" default:"10m"`
}

type AdminConfig struct {
	Token string `envconfig:"CARTLEDGER_ADMIN_TOKEN"`
}

type CacheConfig struct {
	StoreNameTTL time.Duration `envconfig:"CARTLEDGER_CACHE_STORE_NAME_TTL" default:"10m"`
}

// IsSQLite reports whether the local single-file database is in use.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
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
