package services

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Duplicate suppression bounds. Entries fall out either by capacity or by
// age; after eviction a repeat delivery is processed again, which the
// at-least-once downstream tolerates.
const (
	dedupSize = 4096
	dedupTTL  = 24 * time.Hour
)

// DuplicateChecker is a bounded check-and-admit filter over statement
// identifiers. It is not a durable ledger: it reliably rejects repeats
// within the retention window and nothing more.
type DuplicateChecker struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, time.Time]
}

func NewDuplicateChecker() *DuplicateChecker {
	return &DuplicateChecker{
		seen: expirable.NewLRU[string, time.Time](dedupSize, nil, dedupTTL),
	}
}

// CheckAndAdmit reports whether id was already admitted, admitting it on a
// miss. Check and insert run under one lock so concurrent deliveries of the
// same id cannot both pass.
func (c *DuplicateChecker) CheckAndAdmit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen.Get(id); ok {
		return true
	}
	c.seen.Add(id, time.Now())
	return false
}
