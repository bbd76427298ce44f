package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load(nil)

	req.NoError(err)
	req.Equal(":8080", cfg.Addr)
	req.Equal("sqlite3", cfg.DatabaseDriver)
	req.Equal(15*time.Minute, cfg.AccessTokenTTL)
	req.Equal(168*time.Hour, cfg.RefreshTokenTTL)
	req.Equal(10*time.Minute, cfg.OTPTTL)
	req.Equal(60, cfg.RateLimitPerMinute)
	req.True(cfg.EnforceRoomMembership)
	req.Empty(cfg.SMTPHost)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost/prava?sslmode=disable")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("ENFORCE_ROOM_MEMBERSHIP", "false")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load(nil)

	req.NoError(err)
	req.Equal("postgres", cfg.DatabaseDriver)
	req.Equal("postgres://u:p@localhost/prava?sslmode=disable", cfg.DatabaseDSN)
	req.Equal(time.Hour, cfg.AccessTokenTTL)
	req.False(cfg.EnforceRoomMembership)
	req.Equal("smtp.example.com", cfg.SMTPHost)
}

func TestLoad_AddrFlagWins(t *testing.T) {
	t.Setenv("ADDR", ":9000")

	cfg, err := Load([]string{"-addr", ":7000"})

	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Addr)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load(nil)

	require.ErrorContains(t, err, "unsupported database driver")
}

func TestLoad_RejectsUnknownFlag(t *testing.T) {
	_, err := Load([]string{"-nope"})
	require.Error(t, err)
}
