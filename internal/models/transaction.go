package models

// Transaction is the canonical record held by the budgeting backend.
// Created by the pipeline from a statement item; afterwards mutable only
// through user-triggered updates.
type Transaction struct {
	ID           string
	AccountID    string
	Date         string // ISO-8601 day, assigned at creation and never moved by updates
	Amount       int64  // minor units, signed
	PayeeID      *string
	PayeeName    *string
	CategoryID   *string
	CategoryName string
	Approved     bool
	Memo         string
}
