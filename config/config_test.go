package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Snake_case keys only decode when the structs carry mapstructure tags,
// so this exercises every multi-word key end to end through viper.
func TestConfigSnakeCaseKeysDecode(t *testing.T) {
	const yml = `
server:
  port: 8080
  read_timeout: 15s
  write_timeout: 15s
  max_header_bytes: 1048576

jwt:
  secret: top
  refresh_secret: deeper
  refresh_expiry: 720h

email:
  from_address: no-reply@oculomed.example
  from_name: OculoMed
  reset_url: https://app.oculomed.example/reset-password

push:
  vapid_public_key: pub
  vapid_private_key: priv

redis:
  max_retries: 3
  retry_backoff: 100ms
  pool_size: 10
  min_idle_conns: 2

storage:
  cloud_name: oculomed
  api_key: k
  api_secret: s

scheduler:
  upcoming_interval: 1m
  missed_grace: 15m
  overdue_window: 24h

rate_limit:
  enabled: true
  requests_per_second: 50
  burst: 100

security:
  allowed_origins:
    - "*"
`

	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yml)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 1048576, cfg.Server.MaxHeaderBytes)

	assert.Equal(t, "deeper", cfg.JWT.RefreshSecret)
	assert.Equal(t, 720*time.Hour, cfg.JWT.RefreshExpiry)

	assert.Equal(t, "no-reply@oculomed.example", cfg.Email.FromAddress)
	assert.Equal(t, "https://app.oculomed.example/reset-password", cfg.Email.ResetURL)

	assert.Equal(t, "pub", cfg.Push.VAPIDPublicKey)
	assert.Equal(t, "priv", cfg.Push.VAPIDPrivateKey)

	assert.Equal(t, 3, cfg.Redis.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Redis.RetryBackoff)
	assert.Equal(t, 2, cfg.Redis.MinIdleConns)

	assert.Equal(t, "oculomed", cfg.Storage.CloudName)
	assert.Equal(t, "s", cfg.Storage.APISecret)

	assert.Equal(t, time.Minute, cfg.Scheduler.UpcomingInterval)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.MissedGrace)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.OverdueWindow)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)

	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestSecretOverridesReplaceFileValues(t *testing.T) {
	cfg := Config{}
	cfg.Database.Password = "file"
	cfg.JWT.Secret = "file"
	cfg.Email.Password = "file"

	cfg.applySecrets(&secretOverrides{
		DBPassword: "env",
		JWTSecret:  "env",
	})

	assert.Equal(t, "env", cfg.Database.Password)
	assert.Equal(t, "env", cfg.JWT.Secret)
	assert.Equal(t, "file", cfg.Email.Password)
}
