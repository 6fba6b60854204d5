package config

import (
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"*"`
	TZDefault    string `envconfig:"TZ_DEFAULT" default:"Asia/Kolkata"`

	BackendBaseURL    string `envconfig:"BACKEND_BASE_URL" default:"https://klsbackend.onrender.com"`
	BackendTimeoutSec int    `envconfig:"BACKEND_TIMEOUT_SECONDS" default:"30"`

	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	SessionTTLMin int    `envconfig:"SESSION_TTL_MINUTES" default:"720"`
	CookieSecure  bool   `envconfig:"COOKIE_SECURE" default:"false"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"Admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	PageSize         int   `envconfig:"PAGE_SIZE" default:"10"`
	MaxPaymentAmount int64 `envconfig:"MAX_PAYMENT_AMOUNT" default:"1000000"`
	MaxUploadMB      int64 `envconfig:"MAX_UPLOAD_MB" default:"5"`

	RedisURL      string `envconfig:"REDIS_URL"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTLSec   int    `envconfig:"CACHE_TTL_SECONDS" default:"60"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"chitti_admin"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"chitti.events"`
}

// Load reads the process environment. Call godotenv first if a .env file should be honoured.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if c.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	return &c, nil
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// DSN is DATABASE_URL when set, otherwise a postgres URL built from the DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
