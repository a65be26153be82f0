package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Bot modes accepted by BOT_MODE.
const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"
)

const minJWTSecretLength = 32

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	HTTP     HTTPConfig
	Bot      BotConfig
	Delivery DeliveryConfig
	Storage  StorageConfig
	Auth     AuthConfig
}

type HTTPConfig struct {
	ListenAddr string
	// PublicBaseURL is where admins reach the HTTP facade; empty disables link buttons.
	PublicBaseURL   string
	CORSOrigins     string
	SubmitRateLimit int // Requests per minute per IP
}

type BotConfig struct {
	Token        string
	APIURL       string
	AdminChatIDs []int64
	Connection   BotConnectionConfig
}

type BotConnectionConfig struct {
	Mode    string
	Webhook WebhookConfig
	Polling PollingConfig
}

type WebhookConfig struct {
	URL        string
	ListenPort int
}

type PollingConfig struct {
	WorkerPoolSize int
}

type DeliveryConfig struct {
	Timeout          time.Duration
	RatePerSecond    float64
	FailureAlertURLs []string
}

type StorageConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string
}

type AuthConfig struct {
	JWTSecret string
	LinkTTL   time.Duration
}

// IsDev reports whether human-readable logging should be used.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// bindings maps viper keys to environment variable names.
var bindings = map[string]string{
	"app.env":                     "APP_ENV",
	"http.listen_addr":            "HTTP_LISTEN_ADDR",
	"http.public_base_url":        "PUBLIC_BASE_URL",
	"http.cors_origins":           "HTTP_CORS_ORIGINS",
	"http.submit_rate_limit":      "HTTP_SUBMIT_RATE_LIMIT",
	"bot.token":                   "BOT_TOKEN",
	"bot.api_url":                 "BOT_API_URL",
	"bot.admin_chat_ids":          "BOT_ADMIN_CHAT_IDS",
	"bot.mode":                    "BOT_MODE",
	"bot.webhook.url":             "BOT_WEBHOOK_URL",
	"bot.webhook.listen_port":     "BOT_WEBHOOK_LISTEN_PORT",
	"bot.polling.workers":         "BOT_POLLING_WORKERS",
	"delivery.timeout":            "DELIVERY_TIMEOUT",
	"delivery.rate_per_second":    "DELIVERY_RATE_PER_SECOND",
	"delivery.failure_alert_urls": "DELIVERY_FAILURE_ALERT_URLS",
	"storage.driver":              "STORAGE_DRIVER",
	"storage.database_url":        "DATABASE_URL",
	"storage.sqlite_path":         "SQLITE_PATH",
	"storage.redis_url":           "REDIS_URL",
	"auth.jwt_secret":             "AUTH_JWT_SECRET",
	"auth.link_ttl":               "AUTH_LINK_TTL",
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// 1. Load .env file into the process environment
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine; we rely on OS-set env vars.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// 2. Explicitly bind viper keys to env var names
	v := viper.New()
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	v.SetDefault("app.env", "dev")
	v.SetDefault("http.listen_addr", ":8080")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("http.submit_rate_limit", 10)
	v.SetDefault("bot.api_url", "https://api.telegram.org")
	v.SetDefault("bot.mode", BotModePolling)
	v.SetDefault("bot.webhook.listen_port", 8443)
	v.SetDefault("bot.polling.workers", 4)
	v.SetDefault("delivery.timeout", "10s")
	v.SetDefault("delivery.rate_per_second", 25)
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.sqlite_path", "colorpredict.db")
	v.SetDefault("auth.link_ttl", "72h")

	// 4. Get values directly from viper
	chatIDs, err := parseChatIDs(v.GetString("bot.admin_chat_ids"))
	if err != nil {
		return nil, err
	}

	cfg := Config{
		AppEnv: v.GetString("app.env"),
		HTTP: HTTPConfig{
			ListenAddr:      v.GetString("http.listen_addr"),
			PublicBaseURL:   strings.TrimRight(v.GetString("http.public_base_url"), "/"),
			CORSOrigins:     v.GetString("http.cors_origins"),
			SubmitRateLimit: v.GetInt("http.submit_rate_limit"),
		},
		Bot: BotConfig{
			Token:        v.GetString("bot.token"),
			APIURL:       strings.TrimRight(v.GetString("bot.api_url"), "/"),
			AdminChatIDs: chatIDs,
			Connection: BotConnectionConfig{
				Mode: strings.ToLower(v.GetString("bot.mode")),
				Webhook: WebhookConfig{
					URL:        strings.TrimRight(v.GetString("bot.webhook.url"), "/"),
					ListenPort: v.GetInt("bot.webhook.listen_port"),
				},
				Polling: PollingConfig{
					WorkerPoolSize: v.GetInt("bot.polling.workers"),
				},
			},
		},
		Delivery: DeliveryConfig{
			Timeout:          v.GetDuration("delivery.timeout"),
			RatePerSecond:    v.GetFloat64("delivery.rate_per_second"),
			FailureAlertURLs: splitList(v.GetString("delivery.failure_alert_urls")),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			DatabaseURL: v.GetString("storage.database_url"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			RedisURL:    v.GetString("storage.redis_url"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			LinkTTL:   v.GetDuration("auth.link_ttl"),
		},
	}

	// 5. Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Bot.Token == "" {
		return errors.New("BOT_TOKEN is not set in environment or .env file")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters, but got %d", minJWTSecretLength, len(c.Auth.JWTSecret))
	}
	if c.Auth.LinkTTL <= 0 {
		return errors.New("AUTH_LINK_TTL must be a positive duration")
	}
	if c.Delivery.Timeout <= 0 {
		return errors.New("DELIVERY_TIMEOUT must be a positive duration")
	}
	if c.Delivery.RatePerSecond <= 0 {
		return errors.New("DELIVERY_RATE_PER_SECOND must be positive")
	}
	if c.HTTP.SubmitRateLimit <= 0 {
		return errors.New("HTTP_SUBMIT_RATE_LIMIT must be positive")
	}
	if c.Bot.Connection.Polling.WorkerPoolSize <= 0 {
		return errors.New("BOT_POLLING_WORKERS must be positive")
	}
	if c.HTTP.PublicBaseURL != "" {
		if u, err := url.Parse(c.HTTP.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("PUBLIC_BASE_URL %q is not an absolute URL", c.HTTP.PublicBaseURL)
		}
	}

	switch c.Bot.Connection.Mode {
	case BotModePolling:
	case BotModeWebhook:
		if c.Bot.Connection.Webhook.URL == "" {
			return errors.New("BOT_WEBHOOK_URL is required when BOT_MODE=webhook")
		}
	default:
		return fmt.Errorf("BOT_MODE must be %q or %q, got %q", BotModePolling, BotModeWebhook, c.Bot.Connection.Mode)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

// parseChatIDs reads a comma separated list of Telegram chat ids.
func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("BOT_ADMIN_CHAT_IDS: invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
