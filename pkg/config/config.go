package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Promo        PromoConfig
	Demo         DemoConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TEZBAZAR_APP_ENV" required:"true"`
	Port         string `envconfig:"TEZBAZAR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TEZBAZAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEZBAZAR_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"TEZBAZAR_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the configured comma-separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"TEZBAZAR_DB_DSN"`
	Driver string `envconfig:"TEZBAZAR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TEZBAZAR_DB_HOST"`
	Port     int    `envconfig:"TEZBAZAR_DB_PORT" default:"5432"`
	User     string `envconfig:"TEZBAZAR_DB_USER"`
	Password string `envconfig:"TEZBAZAR_DB_PASSWORD"`
	Name     string `envconfig:"TEZBAZAR_DB_NAME"`
	SSLMode  string `envconfig:"TEZBAZAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TEZBAZAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TEZBAZAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TEZBAZAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TEZBAZAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TEZBAZAR_REDIS_URL"`
	Address      string        `envconfig:"TEZBAZAR_REDIS_ADDR"`
	Password     string        `envconfig:"TEZBAZAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEZBAZAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEZBAZAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEZBAZAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEZBAZAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEZBAZAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEZBAZAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint is configured. The API degrades
// to non-idempotent checkout when Redis is absent (dev convenience).
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type PromoConfig struct {
	File string `envconfig:"TEZBAZAR_PROMO_FILE"`
}

type DemoConfig struct {
	AutoAdvance       bool          `envconfig:"TEZBAZAR_DEMO_AUTO_ADVANCE" default:"false"`
	PreparingDelay    time.Duration `envconfig:"TEZBAZAR_DEMO_PREPARING_DELAY" default:"30s"`
	DeliveringDelay   time.Duration `envconfig:"TEZBAZAR_DEMO_DELIVERING_DELAY" default:"2m"`
	DeliveredDelay    time.Duration `envconfig:"TEZBAZAR_DEMO_DELIVERED_DELAY" default:"5m"`
	SeedDemoData      bool          `envconfig:"TEZBAZAR_SEED_DEMO_DATA" default:"false"`
	CheckoutIdemTTL   time.Duration `envconfig:"TEZBAZAR_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	DefaultIdemTTL    time.Duration `envconfig:"TEZBAZAR_DEFAULT_IDEMPOTENCY_TTL" default:"24h"`
	NotifyMaxAttempts uint64        `envconfig:"TEZBAZAR_NOTIFY_MAX_ATTEMPTS" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TEZBAZAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TEZBAZAR_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"TEZBAZAR_DB_HOST": db.Host,
		"TEZBAZAR_DB_USER": db.User,
		"TEZBAZAR_DB_NAME": db.Name,
	}
	for _, key := range []string{"TEZBAZAR_DB_HOST", "TEZBAZAR_DB_USER", "TEZBAZAR_DB_NAME"} {
		if legacyValues[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either TEZBAZAR_DB_DSN or %s are required", strings.Join(missing, ", "))
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
