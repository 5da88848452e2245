package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/internal/render"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

// StatementSource is one continuous stream of bank statement items. Prepare
// runs once before any source starts; Run blocks for the process lifetime,
// calling emit for every item in the source's emission order.
type StatementSource interface {
	ID() string
	Prepare(ctx context.Context) error
	Run(ctx context.Context, emit func(ctx context.Context, item models.StatementItem) error) error
}

// budgetPLStore is the budgeting-backend surface the pipeline needs.
type budgetPLStore interface {
	CreateTransaction(ctx context.Context, item models.StatementItem, candidate models.TransferCandidate) (*models.Transaction, error)
}

// chatPLTransport delivers statement messages and best-effort error notices.
type chatPLTransport interface {
	SendStatement(ctx context.Context, html string, keyboard models.Keyboard) (messageID int, err error)
	NotifyError(ctx context.Context, text string) error
}

type transferPLDetector interface {
	Check(ctx context.Context, item models.StatementItem) (models.TransferCandidate, error)
}

type duplicatePLChecker interface {
	CheckAndAdmit(id string) bool
}

// Pipeline merges the configured statement sources and drives each item
// through dedup, transfer detection, transaction creation and chat delivery.
type Pipeline struct {
	sources  []StatementSource
	dedup    duplicatePLChecker
	detector transferPLDetector
	budget   budgetPLStore
	chat     chatPLTransport
	accounts map[string]models.Account
}

func NewPipeline(
	sources []StatementSource,
	dedup duplicatePLChecker,
	detector transferPLDetector,
	budget budgetPLStore,
	chat chatPLTransport,
	accounts []models.Account,
) *Pipeline {
	byID := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Pipeline{
		sources:  sources,
		dedup:    dedup,
		detector: detector,
		budget:   budget,
		chat:     chat,
		accounts: byID,
	}
}

// Run prepares every source, then drives them until ctx is cancelled or a
// source fails. Preparation is all-or-nothing: if any source cannot get
// ready the pipeline never starts.
//
// Each source gets its own worker processing items strictly in order, so a
// slow delivery stalls only its own source. There is no ordering guarantee
// across sources.
func (p *Pipeline) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for _, s := range p.sources {
		if err := s.Prepare(ctx); err != nil {
			return fmt.Errorf("preparing source %s: %w", s.ID(), err)
		}
	}
	log.Info("statement pipeline started", "source_count", len(p.sources))

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range p.sources {
		s := s
		g.Go(func() error {
			_, sctx := logger.With(ctx, "source_id", s.ID())
			return s.Run(sctx, p.process)
		})
	}
	return g.Wait()
}

// process handles one item end to end. Errors past dedup admission are
// isolated: logged, pushed to the error channel, and swallowed so the
// stream keeps going.
func (p *Pipeline) process(ctx context.Context, item models.StatementItem) error {
	log, ctx := logger.With(ctx, "statement_id", item.ID, "account_id", item.AccountID)

	if p.dedup.CheckAndAdmit(item.ID) {
		log.Debug("duplicate statement dropped")
		return nil
	}

	if err := p.handle(ctx, item); err != nil {
		log.Error("statement processing failed", "error", err)
		if nerr := p.chat.NotifyError(ctx, fmt.Sprintf("Failed to process statement %s: %v", item.ID, err)); nerr != nil {
			log.Warn("error notification failed", "error", nerr)
		}
	}
	return nil
}

func (p *Pipeline) handle(ctx context.Context, item models.StatementItem) error {
	log := logger.FromContext(ctx)

	candidate, err := p.detector.Check(ctx, item)
	if err != nil {
		return fmt.Errorf("transfer detection: %w", err)
	}
	if candidate.IsTransfer() {
		log.Info("transfer detected", "counterpart_account", candidate.Counterpart.ID)
	}

	tx, err := p.budget.CreateTransaction(ctx, item, candidate)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	account := p.accounts[item.AccountID]
	html := render.StatementHTML(account, item, tx)
	keyboard := render.NewKeyboard(item.Description)

	messageID, err := p.chat.SendStatement(ctx, html, keyboard)
	if err != nil {
		return fmt.Errorf("sending statement message: %w", err)
	}

	log.Info("statement processed", "transaction_id", tx.ID, "message_id", messageID, "transfer", candidate.IsTransfer())
	return nil
}
