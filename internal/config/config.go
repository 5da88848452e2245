package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	LogLevel string

	BudgetToken    string
	BudgetBudgetID string

	TelegramToken       string
	TelegramChatID      int64
	TelegramErrorChatID int64
	AllowedUserIDs      []int64

	WebhookListenAddr string
	WebhookPath       string
	WebhookPublicURL  string

	SettingsPath string

	// malformed ALLOWEDUSERIDS, surfaced by Validate
	allowListErr error
}

func New() *Config {
	cfg := &Config{
		LogLevel:            os.Getenv("LOGLEVEL"),
		BudgetToken:         os.Getenv("BUDGETTOKEN"),
		BudgetBudgetID:      os.Getenv("BUDGETID"),
		TelegramToken:       os.Getenv("TELEGRAMTOKEN"),
		TelegramChatID:      getInt64("TELEGRAMCHATID"),
		TelegramErrorChatID: getInt64("TELEGRAMERRORCHATID"),
		WebhookListenAddr:   getOrDefault("WEBHOOKLISTEN", ":8080"),
		WebhookPath:         getOrDefault("WEBHOOKPATH", "/statement"),
		WebhookPublicURL:    os.Getenv("WEBHOOKURL"),
		SettingsPath:        getOrDefault("SETTINGSPATH", "settings.yaml"),
	}
	cfg.AllowedUserIDs, cfg.allowListErr = getInt64List("ALLOWEDUSERIDS")
	return cfg
}

// Validate covers the startup preconditions that are fatal when unmet.
func (c *Config) Validate() error {
	if c.allowListErr != nil {
		return c.allowListErr
	}
	if c.BudgetToken == "" {
		return fmt.Errorf("BUDGETTOKEN is required")
	}
	if c.BudgetBudgetID == "" {
		return fmt.Errorf("BUDGETID is required")
	}
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAMTOKEN is required")
	}
	if c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAMCHATID is required")
	}
	if len(c.AllowedUserIDs) == 0 {
		return fmt.Errorf("ALLOWEDUSERIDS is required")
	}
	return nil
}

// ValidateSettings covers preconditions spanning the environment and the
// settings file. A webhook-mode account cannot register without a public URL.
func (c *Config) ValidateSettings(s *Settings) error {
	if c.WebhookPublicURL != "" {
		return nil
	}
	for _, a := range s.Accounts {
		if a.Mode == ModeWebhook {
			return fmt.Errorf("WEBHOOKURL is required: account %s uses webhook mode", a.ID)
		}
	}
	return nil
}

// ---- Helpers ----

func getOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func getInt64List(key string) ([]int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}

	var out []int64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: entry %q is not an integer", key, strings.TrimSpace(part))
		}
		out = append(out, v)
	}
	return out, nil
}
