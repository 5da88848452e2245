package bootstrap

import (
	"log/slog"

	"github.com/GregMSThompson/budget-sync/internal/client/mono"
	"github.com/GregMSThompson/budget-sync/internal/client/telegram"
	"github.com/GregMSThompson/budget-sync/internal/client/ynab"
	"github.com/GregMSThompson/budget-sync/internal/config"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

type Bootstrap struct {
	Log      *slog.Logger
	Settings *config.Settings
	Budget   *ynab.Client
	Telegram *telegram.Adapter
	Banks    map[string]*mono.Client // keyed by bank account id
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	bs := new(Bootstrap)
	bs.Log = logger.New(cfg.LogLevel, logger.NewJSONHandler)

	if err := cfg.Validate(); err != nil {
		return bs, err
	}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		return bs, err
	}
	if err := cfg.ValidateSettings(settings); err != nil {
		return bs, err
	}
	bs.Settings = settings

	bs.Budget = ynab.NewClient(cfg.BudgetToken, cfg.BudgetBudgetID, settings.KnownAccounts())

	bs.Telegram, err = telegram.NewAdapter(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramErrorChatID)
	if err != nil {
		return bs, err
	}

	// one bank client per account token; accounts sharing a token share the
	// client and therefore its rate gate
	bs.Banks = make(map[string]*mono.Client, len(settings.Accounts))
	byToken := make(map[string]*mono.Client)
	for _, a := range settings.Accounts {
		client, ok := byToken[a.Token]
		if !ok {
			client = mono.NewClient(a.Token)
			byToken[a.Token] = client
		}
		bs.Banks[a.ID] = client
	}

	return bs, nil
}
