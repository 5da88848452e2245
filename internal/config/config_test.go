package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BUDGETTOKEN", "bt")
	t.Setenv("BUDGETID", "bid")
	t.Setenv("TELEGRAMTOKEN", "tt")
	t.Setenv("TELEGRAMCHATID", "42")
	t.Setenv("ALLOWEDUSERIDS", "100, 200,300")
}

func TestNewReadsEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGLEVEL", "debug")
	t.Setenv("WEBHOOKURL", "https://example.com/statement")

	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.TelegramChatID != 42 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
	if len(cfg.AllowedUserIDs) != 3 || cfg.AllowedUserIDs[1] != 200 {
		t.Errorf("AllowedUserIDs = %v", cfg.AllowedUserIDs)
	}
	if cfg.WebhookPublicURL != "https://example.com/statement" {
		t.Errorf("WebhookPublicURL = %q", cfg.WebhookPublicURL)
	}
}

func TestNewDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOKLISTEN", "")
	t.Setenv("WEBHOOKPATH", "")
	t.Setenv("SETTINGSPATH", "")

	cfg := New()
	if cfg.WebhookListenAddr != ":8080" {
		t.Errorf("WebhookListenAddr = %q", cfg.WebhookListenAddr)
	}
	if cfg.WebhookPath != "/statement" {
		t.Errorf("WebhookPath = %q", cfg.WebhookPath)
	}
	if cfg.SettingsPath != "settings.yaml" {
		t.Errorf("SettingsPath = %q", cfg.SettingsPath)
	}
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"budget token", "BUDGETTOKEN"},
		{"budget id", "BUDGETID"},
		{"telegram token", "TELEGRAMTOKEN"},
		{"chat id", "TELEGRAMCHATID"},
		{"allowed users", "ALLOWEDUSERIDS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")
			if err := New().Validate(); err == nil {
				t.Fatalf("Validate accepted a config without %s", tc.unset)
			}
		})
	}
}

func TestValidateRejectsMalformedAllowList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWEDUSERIDS", "100,abc,200")

	cfg := New()
	if len(cfg.AllowedUserIDs) != 0 {
		t.Fatalf("AllowedUserIDs = %v, want none from a malformed list", cfg.AllowedUserIDs)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted a malformed ALLOWEDUSERIDS")
	}
}

func TestValidateSettingsRequiresWebhookURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOKURL", "")

	webhookAccount := AccountSettings{ID: "bank-1", Token: "tok", BudgetAccountID: "budget-1", Mode: ModeWebhook}
	pollAccount := AccountSettings{ID: "bank-2", Token: "tok", BudgetAccountID: "budget-2", Mode: ModePoll}

	cfg := New()
	if err := cfg.ValidateSettings(&Settings{Accounts: []AccountSettings{pollAccount}}); err != nil {
		t.Fatalf("poll-only settings need no webhook URL, got %v", err)
	}
	if err := cfg.ValidateSettings(&Settings{Accounts: []AccountSettings{pollAccount, webhookAccount}}); err == nil {
		t.Fatal("webhook-mode account without WEBHOOKURL must be rejected")
	}

	t.Setenv("WEBHOOKURL", "https://example.com/statement")
	cfg = New()
	if err := cfg.ValidateSettings(&Settings{Accounts: []AccountSettings{webhookAccount}}); err != nil {
		t.Fatalf("ValidateSettings with a URL: %v", err)
	}
}
