package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 10, cfg.App.TasksPerPage)
	assert.Equal(t, "http://localhost:3000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "INR", cfg.Checkout.Currency)
	assert.Equal(t, "https://checkout.razorpay.com/v1/checkout.js", cfg.Checkout.ScriptURL)
	assert.Equal(t, ":3000", cfg.HTTP.Addr())
	assert.Equal(t, []string{"https://checkout.razorpay.com"}, cfg.HTTP.CORSOrigins)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("BACKEND_BASE_URL", "https://api.example.com/v1/")
	v.Set("TASKS_PAGE_SIZE", "25")
	v.Set("SESSION_STORE", "SQL")
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_URL", "file::memory:")
	v.Set("SESSION_COOKIE_SECURE", "true")
	v.Set("RATE_LIMIT_RPS", "2.5")
	v.Set("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.Backend.BaseURL)
	assert.Equal(t, 25, cfg.App.TasksPerPage)
	assert.Equal(t, "sql", cfg.Session.Store)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 2.5, cfg.HTTP.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
	}{
		{"unknown session store", map[string]string{"SESSION_STORE": "memcached"}},
		{"sql store without dsn", map[string]string{"SESSION_STORE": "sql", "DB_DRIVER": "postgres"}},
		{"sql store bad driver", map[string]string{"SESSION_STORE": "sql", "DB_DRIVER": "oracle", "DATABASE_URL": "x"}},
		{"production without signing secret", map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}
