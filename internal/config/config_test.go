package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "-100500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, "leads.db", cfg.SQLiteDSN)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Hour, cfg.AntiSpamWindow)
	assert.Equal(t, 2, cfg.AntiSpamLimit)
	assert.Equal(t, int64(-100500), cfg.OwnerChatID)
	assert.Equal(t, []int64{-100500}, cfg.AdminIDs)
	assert.False(t, cfg.CRM.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "10")
	t.Setenv("OWNER_CHAT_ID", "20")
	t.Setenv("ADMIN_CHAT_IDS", " 30, ,10,30 ")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SEND_RATE", "nope")
	t.Setenv("ANTISPAM_WINDOW", "30m")
	t.Setenv("ANTISPAM_LIMIT", "3")
	t.Setenv("MACROCRM_DOMAIN", "studio")
	t.Setenv("MACROCRM_SECRET", "s3cret")
	t.Setenv("STUDIO_ADDRESS", "ул. Примерная, 1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, float64(25), cfg.SendRate)
	assert.Equal(t, 30*time.Minute, cfg.AntiSpamWindow)
	assert.Equal(t, 3, cfg.AntiSpamLimit)
	assert.Equal(t, int64(20), cfg.OwnerChatID)
	assert.Equal(t, []int64{30, 10}, cfg.AdminIDs)
	assert.True(t, cfg.IsAdmin(10))
	assert.False(t, cfg.IsAdmin(20))
	assert.True(t, cfg.CRM.Enabled())
	assert.Equal(t, "ул. Примерная, 1", cfg.Studio.Address)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{}, "TELEGRAM_BOT_TOKEN is required"},
		{"bad storage", map[string]string{"STORAGE": "redis"}, "STORAGE must be sqlite or memory"},
		{"bad level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL must be one of"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT must be json or text"},
		{"bad limit", map[string]string{"ANTISPAM_LIMIT": "0"}, "ANTISPAM_LIMIT must be >= 1"},
		{"bad burst", map[string]string{"SEND_BURST": "0"}, "SEND_BURST must be >= 1"},
		{"bad admin ids", map[string]string{"ADMIN_CHAT_IDS": "1,x"}, "ADMIN_CHAT_IDS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_BOT_TOKEN", "")
			if tt.name != "missing token" {
				t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
