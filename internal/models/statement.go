package models

import (
	"time"
)

// StatementItem is one observed bank transaction. Items are immutable once
// produced by a source; ID is the bank-assigned identifier used for both
// duplicate suppression and backend correlation.
type StatementItem struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account"`
	Time            time.Time `json:"-"`
	Description     string    `json:"description"`
	Comment         string    `json:"comment,omitempty"`
	MCC             int       `json:"mcc"`
	Amount          int64     `json:"amount"` // minor units, signed, account currency
	OperationAmount int64     `json:"operationAmount"`
	CurrencyCode    string    `json:"currencyCode"`
	CounterIBAN     string    `json:"counterIban,omitempty"` // counterparty identity, empty when the bank omits it
}

// TransferCandidate is the result of transfer detection for one item.
// Counterpart is nil for ordinary spend; for a transfer it names the other
// known account and TransferPayeeID carries the identity that matched.
type TransferCandidate struct {
	Item            StatementItem
	Counterpart     *Account
	TransferPayeeID string
}

func (c TransferCandidate) IsTransfer() bool {
	return c.Counterpart != nil
}
