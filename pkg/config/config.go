package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "PMS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PMS_DB_DSN"
	EnvDBHost = "PMS_DB_HOST"
	EnvDBUser = "PMS_DB_USER"
	EnvDBName = "PMS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	SMTP          SMTPConfig
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
	Env          string `envconfig:"PMS_APP_ENV" required:"true"`
	Port         string `envconfig:"PMS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PMS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PMS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PMS_DB_DSN"`
	Driver string `envconfig:"PMS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PMS_DB_HOST"`
	LegacyPort     int    `envconfig:"PMS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PMS_DB_USER"`
	LegacyPassword string `envconfig:"PMS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PMS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PMS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PMS_REDIS_ADDR"`
	Password     string        `envconfig:"PMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PMS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PMS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PMS_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"PMS_SESSION_TTL_MINUTES" default:"1440"`
}

// SessionTTL returns the redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PMS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PMS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PMS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PMS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PMS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PMS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PMS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PMS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PMS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PMS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PMS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PMS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PMS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ReservationTopic        string `envconfig:"PMS_PUBSUB_RESERVATION_TOPIC" default:"pms-reservation-events"`
	ReservationSubscription string `envconfig:"PMS_PUBSUB_RESERVATION_SUBSCRIPTION" default:"pms-reservation-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PMS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PMS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PMS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SMTPConfig struct {
	Host     string `envconfig:"PMS_SMTP_HOST"`
	Port     int    `envconfig:"PMS_SMTP_PORT" default:"587"`
	Username string `envconfig:"PMS_SMTP_USERNAME"`
	Password string `envconfig:"PMS_SMTP_PASSWORD"`
	From     string `envconfig:"PMS_SMTP_FROM"`
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
