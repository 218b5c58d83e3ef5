package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: " 7d ", want: 7 * 24 * time.Hour},
		{in: "0d", err: true},
		{in: "-1d", err: true},
		{in: "xd", err: true},
		{in: "", err: true},
		{in: "-5m", err: true},
	}

	for _, tc := range cases {
		got, err := parseExpiry(tc.in)
		if tc.err {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "JWT_SECRET", "JWT_EXPIRY", "JWT_REFRESH_EXPIRY",
		"RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_MAX_REQUESTS", "COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.False(t, cfg.IsProduction())
	require.Equal(t, DefaultAccessSecret, cfg.JWT.AccessSecret)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	require.Equal(t, 100, cfg.RateLimit.MaxRequests)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for an unparseable JWT_EXPIRY")
	}
}
