// Package config loads server settings from the environment, an optional
// .env file and command-line flags, in that order of increasing priority.
package config

import (
	"flag"
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"ADDR,default=:8080"`

	// DatabaseDriver is either "sqlite3" or "postgres".
	DatabaseDriver string `env:"DATABASE_DRIVER,default=sqlite3"`
	DatabaseDSN    string `env:"DATABASE_DSN,default=prava.db"`

	JWTSecret       string        `env:"JWT_SECRET,default=super-secret-key-change-me-in-production"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
	OTPTTL          time.Duration `env:"OTP_TTL,default=10m"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT,default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM,default=no-reply@prava.local"`

	// RateLimitPerMinute paces requests to the /auth endpoints.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default=60"`

	// EnforceRoomMembership makes the realtime gateway ignore
	// join_conversation from users who are not participants.
	EnforceRoomMembership bool `env:"ENFORCE_ROOM_MEMBERSHIP,default=true"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads .env (if present), then the process environment, then args.
// Only -addr is accepted on the command line.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	fs := flag.NewFlagSet("prava", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http service address")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
