package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "https://api.telegram.org", cfg.Bot.APIURL)
	assert.Equal(t, BotModePolling, cfg.Bot.Connection.Mode)
	assert.Equal(t, 4, cfg.Bot.Connection.Polling.WorkerPoolSize)
	assert.Equal(t, 10*time.Second, cfg.Delivery.Timeout)
	assert.Equal(t, 72*time.Hour, cfg.Auth.LinkTTL)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Empty(t, cfg.Bot.AdminChatIDs)
}

func TestLoad_ParsesLists(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_ADMIN_CHAT_IDS", " 1001, -1002003 ,")
	t.Setenv("DELIVERY_FAILURE_ALERT_URLS", "logger://,generic://example.com")
	t.Setenv("PUBLIC_BASE_URL", "https://verify.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{1001, -1002003}, cfg.Bot.AdminChatIDs)
	assert.Equal(t, []string{"logger://", "generic://example.com"}, cfg.Delivery.FailureAlertURLs)
	assert.Equal(t, "https://verify.example.com", cfg.HTTP.PublicBaseURL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{"BOT_TOKEN": ""}, "BOT_TOKEN"},
		{"short secret", map[string]string{"AUTH_JWT_SECRET": "short"}, "AUTH_JWT_SECRET"},
		{"bad chat id", map[string]string{"BOT_ADMIN_CHAT_IDS": "12,abc"}, "BOT_ADMIN_CHAT_IDS"},
		{"bad mode", map[string]string{"BOT_MODE": "carrier-pigeon"}, "BOT_MODE"},
		{"webhook without url", map[string]string{"BOT_MODE": "webhook"}, "BOT_WEBHOOK_URL"},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER"},
		{"relative base url", map[string]string{"PUBLIC_BASE_URL": "verify.example.com"}, "PUBLIC_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
