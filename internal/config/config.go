// Package config loads bot settings from the environment, with an optional
// .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type CRMConfig struct {
	Domain  string // MACROCRM_DOMAIN
	Secret  string // MACROCRM_SECRET
	BaseURL string // MACROCRM_BASE_URL
	Action  string // MACROCRM_ACTION
}

// Enabled reports whether submitted leads should be copied to the CRM.
func (c CRMConfig) Enabled() bool {
	return c.Domain != "" && c.Secret != ""
}

type StudioConfig struct {
	Address string
	MapURL  string
}

type Config struct {
	// Telegram
	BotToken    string
	AdminChatID int64   // lead cards go here
	OwnerChatID int64   // urgent leads are duplicated here
	AdminIDs    []int64 // may use /admin and /leads

	// Storage
	Storage   string // sqlite|memory
	SQLiteDSN string

	// HTTP: health and metrics
	HTTPAddr string

	// Logging
	LogLevel  string // debug|info|warn|error
	LogFormat string // json|text

	// Outbound throttle
	SendRate  float64 // messages per second
	SendBurst int

	// Anti-spam
	AntiSpamWindow time.Duration
	AntiSpamLimit  int

	CRM    CRMConfig
	Studio StudioConfig
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}

	cfg := Config{
		BotToken:    strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN", "")),
		AdminChatID: getint64("ADMIN_CHAT_ID", 0),
		OwnerChatID: getint64("OWNER_CHAT_ID", 0),

		Storage:   strings.ToLower(getenv("STORAGE", "sqlite")),
		SQLiteDSN: getenv("LEADS_SQLITE_DSN", "leads.db"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "json")),

		SendRate:  getfloat("SEND_RATE", 25),
		SendBurst: getint("SEND_BURST", 5),

		AntiSpamWindow: getdur("ANTISPAM_WINDOW", time.Hour),
		AntiSpamLimit:  getint("ANTISPAM_LIMIT", 2),

		CRM: CRMConfig{
			Domain:  getenv("MACROCRM_DOMAIN", ""),
			Secret:  getenv("MACROCRM_SECRET", ""),
			BaseURL: getenv("MACROCRM_BASE_URL", ""),
			Action:  getenv("MACROCRM_ACTION", ""),
		},
		Studio: StudioConfig{
			Address: getenv("STUDIO_ADDRESS", ""),
			MapURL:  getenv("STUDIO_MAP_URL", ""),
		},
	}

	ids, err := parseIDs(getenv("ADMIN_CHAT_IDS", ""))
	if err != nil {
		return cfg, fmt.Errorf("config: ADMIN_CHAT_IDS: %w", err)
	}
	cfg.AdminIDs = ids
	if cfg.AdminChatID != 0 && !containsID(cfg.AdminIDs, cfg.AdminChatID) {
		cfg.AdminIDs = append(cfg.AdminIDs, cfg.AdminChatID)
	}
	if cfg.OwnerChatID == 0 {
		cfg.OwnerChatID = cfg.AdminChatID
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if cfg.BotToken == "" {
		return cfg, errors.New("config: TELEGRAM_BOT_TOKEN is required")
	}
	switch cfg.Storage {
	case "sqlite", "memory":
	default:
		return cfg, fmt.Errorf("config: STORAGE must be sqlite or memory, got %q", cfg.Storage)
	}
	if cfg.Storage == "sqlite" && strings.TrimSpace(cfg.SQLiteDSN) == "" {
		return cfg, errors.New("config: LEADS_SQLITE_DSN must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return cfg, errors.New("config: LOG_LEVEL must be one of: debug, info, warn, error")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return cfg, errors.New("config: LOG_FORMAT must be json or text")
	}
	if cfg.SendRate <= 0 {
		return cfg, errors.New("config: SEND_RATE must be > 0")
	}
	if cfg.SendBurst < 1 {
		return cfg, errors.New("config: SEND_BURST must be >= 1")
	}
	if cfg.AntiSpamWindow <= 0 {
		return cfg, errors.New("config: ANTISPAM_WINDOW must be > 0")
	}
	if cfg.AntiSpamLimit < 1 {
		return cfg, errors.New("config: ANTISPAM_LIMIT must be >= 1")
	}
	return cfg, nil
}

// IsAdmin reports whether chatID may use admin commands.
func (c Config) IsAdmin(chatID int64) bool {
	return containsID(c.AdminIDs, chatID)
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chat id %q: %w", part, err)
		}
		if !containsID(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
