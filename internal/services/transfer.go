package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/budget-sync/internal/models"
)

// budgetAccountSource is the budgeting-backend surface the transfer side
// needs: resolving an account's transfer payee identity.
type budgetAccountSource interface {
	TransferPayeeID(ctx context.Context, budgetAccountID string) (string, error)
}

// TransferPayeeCache memoizes transfer payee identities for the process
// lifetime. Cardinality is bounded by the static account set, so there is
// no eviction. Concurrent lookups of the same key share one backend call.
type TransferPayeeCache struct {
	budget budgetAccountSource

	mu    sync.RWMutex
	ids   map[string]string
	group singleflight.Group
}

func NewTransferPayeeCache(budget budgetAccountSource) *TransferPayeeCache {
	return &TransferPayeeCache{
		budget: budget,
		ids:    make(map[string]string),
	}
}

func (c *TransferPayeeCache) Get(ctx context.Context, budgetAccountID string) (string, error) {
	c.mu.RLock()
	id, ok := c.ids[budgetAccountID]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	v, err, _ := c.group.Do(budgetAccountID, func() (any, error) {
		id, err := c.budget.TransferPayeeID(ctx, budgetAccountID)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.ids[budgetAccountID] = id
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// TransferDetector classifies a statement item as ordinary spend or as one
// leg of a transfer between two known accounts. Safe for concurrent use.
type TransferDetector struct {
	cache    *TransferPayeeCache
	accounts []models.Account
}

func NewTransferDetector(cache *TransferPayeeCache, accounts []models.Account) *TransferDetector {
	return &TransferDetector{
		cache:    cache,
		accounts: accounts,
	}
}

// Check matches the item's counterparty identity against the transfer
// identities of every known account other than the item's own.
func (d *TransferDetector) Check(ctx context.Context, item models.StatementItem) (models.TransferCandidate, error) {
	candidate := models.TransferCandidate{Item: item}
	if item.CounterIBAN == "" {
		return candidate, nil
	}

	for i := range d.accounts {
		acct := d.accounts[i]
		if acct.ID == item.AccountID {
			continue
		}

		identity, err := d.cache.Get(ctx, acct.BudgetAccountID)
		if err != nil {
			return candidate, err
		}
		if identity == item.CounterIBAN {
			candidate.Counterpart = &acct
			candidate.TransferPayeeID = identity
			return candidate, nil
		}
	}
	return candidate, nil
}
