package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the portal settings. Values come from the environment and,
// optionally, a .env or config.env file in the working directory.
type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Session  SessionConfig
	Redis    RedisConfig
	DB       DBConfig
	Checkout CheckoutConfig
	HTTP     HTTPConfig
}

type AppConfig struct {
	Env          string // development, staging, production
	TasksPerPage int
	StoreIdle    time.Duration
}

// BackendConfig describes the TaskBounty REST API the portal talks to.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	AuthScheme string // prepended to the token in the Authorization header when set
}

type SessionConfig struct {
	Store         string // redis or sql
	TTL           time.Duration
	CookieName    string
	CookieSecure  bool
	SweepInterval time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type DBConfig struct {
	Driver      string // postgres or sqlite
	DatabaseURL string
}

// CheckoutConfig carries the public widget settings and the secret used to sign
// the portal's own checkout intents.
type CheckoutConfig struct {
	KeyID         string
	ScriptURL     string
	Currency      string
	SigningSecret string
	IntentTTL     time.Duration
}

type HTTPConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// Load reads the configuration. Environment variables take precedence over file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:          getString(v, "APP_ENV", "development"),
			TasksPerPage: getInt(v, "TASKS_PAGE_SIZE", 10),
			StoreIdle:    time.Duration(getInt(v, "STORE_IDLE_MINUTES", 30)) * time.Minute,
		},
		Backend: BackendConfig{
			BaseURL:    strings.TrimRight(getString(v, "BACKEND_BASE_URL", "http://localhost:3000/api"), "/"),
			Timeout:    time.Duration(getInt(v, "BACKEND_TIMEOUT_SECONDS", 10)) * time.Second,
			AuthScheme: getString(v, "BACKEND_AUTH_SCHEME", ""),
		},
		Session: SessionConfig{
			Store:         strings.ToLower(getString(v, "SESSION_STORE", "redis")),
			TTL:           time.Duration(getInt(v, "SESSION_TTL_HOURS", 7*24)) * time.Hour,
			CookieName:    getString(v, "SESSION_COOKIE_NAME", "session_id"),
			CookieSecure:  getBool(v, "SESSION_COOKIE_SECURE", false),
			SweepInterval: time.Duration(getInt(v, "SESSION_SWEEP_MINUTES", 60)) * time.Minute,
		},
		Redis: RedisConfig{
			Host:     getString(v, "REDIS_HOST", "localhost"),
			Port:     getString(v, "REDIS_PORT", "6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(getString(v, "DB_DRIVER", "postgres")),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
		},
		Checkout: CheckoutConfig{
			KeyID:         getString(v, "CHECKOUT_KEY_ID", ""),
			ScriptURL:     getString(v, "CHECKOUT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
			Currency:      getString(v, "CHECKOUT_CURRENCY", "INR"),
			SigningSecret: getString(v, "CHECKOUT_SIGNING_SECRET", ""),
			IntentTTL:     time.Duration(getInt(v, "CHECKOUT_INTENT_TTL_MINUTES", 15)) * time.Minute,
		},
		HTTP: HTTPConfig{
			Port:           getString(v, "PORTAL_PORT", "3000"),
			RateLimitRPS:   getFloat(v, "RATE_LIMIT_RPS", 1),
			RateLimitBurst: getInt(v, "RATE_LIMIT_BURST", 5),
			CORSOrigins:    splitList(getString(v, "CORS_ALLOWED_ORIGINS", "https://checkout.razorpay.com")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case "redis", "sql":
	default:
		return fmt.Errorf("config: SESSION_STORE must be redis or sql, got %q", c.Session.Store)
	}
	if c.Session.Store == "sql" {
		switch c.DB.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("config: DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
		}
		if c.DB.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required when SESSION_STORE=sql")
		}
	}
	if c.App.Env == "production" && c.Checkout.SigningSecret == "" {
		return fmt.Errorf("config: CHECKOUT_SIGNING_SECRET is required in production")
	}
	if c.App.TasksPerPage <= 0 {
		c.App.TasksPerPage = 10
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
