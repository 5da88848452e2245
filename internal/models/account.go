package models

// Account is one known bank account under the user's control. The set of
// accounts is loaded once from the settings file and is read-only afterwards.
type Account struct {
	ID              string // bank-side account id
	Alias           string // display name used in chat messages
	Currency        string // ISO 4217 alpha code
	BudgetAccountID string // id of the matching account in the budgeting backend
}
