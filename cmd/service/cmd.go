package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/budget-sync/internal/bootstrap"
	"github.com/GregMSThompson/budget-sync/internal/client/mono"
	"github.com/GregMSThompson/budget-sync/internal/config"
	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/internal/services"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

const version = "0.3.1"

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	root := &cobra.Command{
		Use:   "budget-sync",
		Short: "Bridges bank statement events into a budgeting backend with chat-based corrections",
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the statement pipeline and the chat bot",
			Run:   func(cmd *cobra.Command, args []string) { serve() },
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate configuration and source readiness, then exit",
			Run:   func(cmd *cobra.Command, args []string) { check() },
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println("budget-sync " + version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)

	accounts := bs.Settings.KnownAccounts()

	// caches and detectors
	dedup := services.NewDuplicateChecker()
	payeeCache := services.NewTransferPayeeCache(bs.Budget)
	detector := services.NewTransferDetector(payeeCache, accounts)

	// statement sources
	sources := buildSources(cfg, bs)

	// services
	pipeline := services.NewPipeline(sources, dedup, detector, bs.Budget, bs.Telegram, accounts)
	callbacks := services.NewCallbackHandler(
		bs.Budget, bs.Telegram,
		cfg.AllowedUserIDs,
		bs.Settings.UnknownPayeeID, bs.Settings.UnknownCategoryID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, bs.Log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.Run(ctx)
	})
	g.Go(func() error {
		return bs.Telegram.Start(ctx, func(ctx context.Context, cb models.CallbackEvent) {
			// Handle logs and answers on its own; errors here are already
			// surfaced to the user.
			_ = callbacks.Handle(ctx, cb)
		})
	})

	exitOnError("service stopped", g.Wait(), bs.Log)
}

func check() {
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)

	ctx := logger.ToContext(context.Background(), bs.Log)
	for _, s := range buildSources(cfg, bs) {
		if err := s.Prepare(ctx); err != nil {
			exitOnError("source not ready: "+s.ID(), err, bs.Log)
		}
		bs.Log.Info("source ready", "source_id", s.ID())
	}
	bs.Log.Info("configuration ok", "account_count", len(bs.Settings.Accounts))
}

func buildSources(cfg *config.Config, bs *bootstrap.Bootstrap) []services.StatementSource {
	sources := make([]services.StatementSource, 0, len(bs.Settings.Accounts))

	// webhook-mode accounts share one receiver; register once per client
	var webhookClients []*mono.Client
	seen := make(map[*mono.Client]bool)

	for _, a := range bs.Settings.Accounts {
		client := bs.Banks[a.ID]

		if a.Mode == config.ModeWebhook {
			if !seen[client] {
				seen[client] = true
				webhookClients = append(webhookClients, client)
			}
			continue
		}

		account := models.Account{ID: a.ID, Alias: a.Alias, Currency: a.Currency, BudgetAccountID: a.BudgetAccountID}
		sources = append(sources, mono.NewPollingSource(client, account, 0))
	}

	if len(webhookClients) > 0 {
		sources = append(sources, mono.NewWebhookSource(
			mono.Registrars(webhookClients), cfg.WebhookListenAddr, cfg.WebhookPath, cfg.WebhookPublicURL))
	}
	return sources
}
