package mono

import (
	"context"
	"time"

	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

const defaultPollPeriod = 2 * time.Minute

// statementFetcher is the client surface the poller needs.
type statementFetcher interface {
	Statements(ctx context.Context, accountID string, from, to time.Time) ([]models.StatementItem, error)
	ClientInfo(ctx context.Context) (*ClientInfo, error)
}

// PollingSource pulls one account's statements on a fixed period. Items are
// emitted in the bank's order and processed one at a time, so downstream
// slowness backs up only this source.
type PollingSource struct {
	client  statementFetcher
	account models.Account
	period  time.Duration
	now     func() time.Time

	lastSeen time.Time
}

func NewPollingSource(client statementFetcher, account models.Account, period time.Duration) *PollingSource {
	if period <= 0 {
		period = defaultPollPeriod
	}
	return &PollingSource{
		client:  client,
		account: account,
		period:  period,
		now:     time.Now,
	}
}

func (s *PollingSource) ID() string {
	return "poll:" + s.account.ID
}

// Prepare verifies the token and pins the poll cursor to now. Items from
// before startup are not replayed.
func (s *PollingSource) Prepare(ctx context.Context) error {
	if _, err := s.client.ClientInfo(ctx); err != nil {
		return err
	}
	s.lastSeen = s.now()
	return nil
}

func (s *PollingSource) Run(ctx context.Context, emit func(ctx context.Context, item models.StatementItem) error) error {
	log := logger.FromContext(ctx)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		to := s.now()
		items, err := s.client.Statements(ctx, s.account.ID, s.lastSeen, to)
		if err != nil {
			// transient fetch failures retry on the next tick
			log.Warn("statement poll failed", "error", err)
			continue
		}

		for _, item := range items {
			if err := emit(ctx, item); err != nil {
				return err
			}
		}
		s.lastSeen = to
	}
}
