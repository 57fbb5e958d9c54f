package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// Backends select the adapter for each port.
	SessionBackend    string `env:"SESSION_BACKEND,    default=memory"`
	CredentialBackend string `env:"CREDENTIAL_BACKEND, default=mock"`
	OtpBackend        string `env:"OTP_BACKEND,        default=mock"`
	Notifier          string `env:"NOTIFIER,           default=log"`

	Auth   AuthConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Twilio TwilioConfig
}

type AuthConfig struct {
	TokenTTL        time.Duration `env:"TOKEN_TTL,         default=24h"`
	SessionTTL      time.Duration `env:"SESSION_TTL,       default=0"`
	FlowIdleTTL     time.Duration `env:"FLOW_IDLE_TTL,     default=30m"`
	OtpSeconds      int           `env:"OTP_SECONDS,       default=120"`
	OtpMaxAttempts  int           `env:"OTP_MAX_ATTEMPTS,  default=5"`
	OtpChannel      string        `env:"OTP_CHANNEL,       default=email"`
	ResetURL        string        `env:"RESET_URL,         default=http://localhost:3000/reset-password"`
	AccessTableFile string        `env:"ACCESS_TABLE_FILE"`
	RateLimit       float64       `env:"RATE_LIMIT,        default=5"`
	RateBurst       int           `env:"RATE_BURST,        default=10"`
	NotifyWorkers   int           `env:"NOTIFY_WORKERS,    default=4"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=aid_portal"`
	AppName  string        `env:"MONGO_APP_NAME, default=aid-portal"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q", name, v)
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.Env == "production" {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret"
	}
	return errors.Join(
		oneOf("SESSION_BACKEND", c.SessionBackend, "memory", "redis", "mongo"),
		oneOf("CREDENTIAL_BACKEND", c.CredentialBackend, "mock", "mongo"),
		oneOf("OTP_BACKEND", c.OtpBackend, "mock", "redis"),
		oneOf("NOTIFIER", c.Notifier, "log", "twilio"),
		oneOf("OTP_CHANNEL", c.Auth.OtpChannel, "email", "sms"),
	)
}

// NeedsRedis reports whether any selected backend uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.SessionBackend == "redis" || c.OtpBackend == "redis"
}

// NeedsMongo reports whether any selected backend uses MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.SessionBackend == "mongo" || c.CredentialBackend == "mongo"
}
