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
	PasswordReset PasswordResetConfig
	AuthRateLimit AuthRateLimitConfig
	SMTP          SMTPConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"TRAILQUEST_APP_ENV" required:"true"`
	Port         string `envconfig:"TRAILQUEST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TRAILQUEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRAILQUEST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TRAILQUEST_DB_DSN"`

	LegacyHost     string `envconfig:"TRAILQUEST_DB_HOST"`
	LegacyPort     int    `envconfig:"TRAILQUEST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRAILQUEST_DB_USER"`
	LegacyPassword string `envconfig:"TRAILQUEST_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRAILQUEST_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRAILQUEST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRAILQUEST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRAILQUEST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRAILQUEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRAILQUEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRAILQUEST_REDIS_URL"`
	Address      string        `envconfig:"TRAILQUEST_REDIS_ADDR"`
	Password     string        `envconfig:"TRAILQUEST_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRAILQUEST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRAILQUEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRAILQUEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRAILQUEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRAILQUEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRAILQUEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret               string `envconfig:"TRAILQUEST_JWT_SECRET" required:"true"`
	Issuer               string `envconfig:"TRAILQUEST_JWT_ISSUER" default:"trailquest"`
	ExpirationMinutes    int    `envconfig:"TRAILQUEST_JWT_EXPIRATION_MINUTES" default:"129600"`
	CookieExpirationDays int    `envconfig:"TRAILQUEST_JWT_COOKIE_EXPIRATION_DAYS" default:"90"`
}

// Expiration returns the session token TTL.
func (j JWTConfig) Expiration() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// CookieExpiration returns the lifetime of the jwt cookie.
func (j JWTConfig) CookieExpiration() time.Duration {
	return time.Duration(j.CookieExpirationDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRAILQUEST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRAILQUEST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRAILQUEST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRAILQUEST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRAILQUEST_ARGON_KEY_LEN" default:"32"`
}

type PasswordResetConfig struct {
	TokenTTL   time.Duration `envconfig:"TRAILQUEST_PASSWORD_RESET_TTL" default:"10m"`
	TokenBytes int           `envconfig:"TRAILQUEST_PASSWORD_RESET_TOKEN_BYTES" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"TRAILQUEST_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type SMTPConfig struct {
	Host     string `envconfig:"TRAILQUEST_SMTP_HOST"`
	Port     int    `envconfig:"TRAILQUEST_SMTP_PORT" default:"587"`
	Username string `envconfig:"TRAILQUEST_SMTP_USERNAME"`
	Password string `envconfig:"TRAILQUEST_SMTP_PASSWORD"`
	From     string `envconfig:"TRAILQUEST_SMTP_FROM" default:"Trailquest <noreply@trailquest.io>"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRAILQUEST_AUTO_MIGRATE" default:"false"`
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
		Path:   "/" + db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
