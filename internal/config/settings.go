package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GregMSThompson/budget-sync/internal/models"
)

// Settings is the YAML file describing the known accounts and the budgeting
// backend identities used by the "unknown" correction.
type Settings struct {
	UnknownPayeeID    string            `yaml:"unknownPayeeId"`
	UnknownCategoryID string            `yaml:"unknownCategoryId"`
	Accounts          []AccountSettings `yaml:"accounts"`
}

type AccountSettings struct {
	ID              string `yaml:"id"`
	Alias           string `yaml:"alias"`
	Currency        string `yaml:"currency"`
	Token           string `yaml:"token"` // bank API token for this account
	BudgetAccountID string `yaml:"budgetAccountId"`
	Mode            string `yaml:"mode"` // "poll" or "webhook"
}

const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if len(s.Accounts) == 0 {
		return fmt.Errorf("settings: at least one account is required")
	}

	seen := make(map[string]bool, len(s.Accounts))
	for i, a := range s.Accounts {
		if a.ID == "" || a.Token == "" || a.BudgetAccountID == "" {
			return fmt.Errorf("settings: account %d: id, token and budgetAccountId are required", i)
		}
		if a.Mode != ModePoll && a.Mode != ModeWebhook {
			return fmt.Errorf("settings: account %s: mode must be %q or %q", a.ID, ModePoll, ModeWebhook)
		}
		if seen[a.ID] {
			return fmt.Errorf("settings: duplicate account id %s", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// KnownAccounts returns the account directory the pipeline operates on.
func (s *Settings) KnownAccounts() []models.Account {
	out := make([]models.Account, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		out = append(out, models.Account{
			ID:              a.ID,
			Alias:           a.Alias,
			Currency:        a.Currency,
			BudgetAccountID: a.BudgetAccountID,
		})
	}
	return out
}
