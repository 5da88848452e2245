// Package ynab adapts the budgeting backend's REST API to the surfaces the
// services consume: transaction create/get/update and the account
// transfer-payee lookup. A 429 response is surfaced as errs.RateLimitedError
// carrying the backend's cool-down so callers can retry on its schedule.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/helpers"
)

const defaultBaseURL = "https://api.ynab.com/v1"

// the backend asks for a minute when it doesn't say
const defaultRetryAfter = 60 * time.Second

type Client struct {
	token    string
	budgetID string
	baseURL  string
	http     *http.Client

	// bank account id -> budgeting backend account id
	budgetAccounts map[string]string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(token, budgetID string, accounts []models.Account, opts ...Option) *Client {
	byBank := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byBank[a.ID] = a.BudgetAccountID
	}

	c := &Client{
		token:          token,
		budgetID:       budgetID,
		baseURL:        defaultBaseURL,
		http:           http.DefaultClient,
		budgetAccounts: byBank,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- wire types ---

type transactionJSON struct {
	ID           string  `json:"id,omitempty"`
	AccountID    string  `json:"account_id"`
	Date         string  `json:"date"`
	Amount       int64   `json:"amount"` // milliunits
	PayeeID      *string `json:"payee_id"`
	PayeeName    *string `json:"payee_name"`
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	Approved     bool    `json:"approved"`
	Memo         string  `json:"memo,omitempty"`
	ImportID     *string `json:"import_id,omitempty"`
}

func (t transactionJSON) toModel() *models.Transaction {
	return &models.Transaction{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Date:         t.Date,
		Amount:       t.Amount / 10, // milliunits -> minor units
		PayeeID:      t.PayeeID,
		PayeeName:    t.PayeeName,
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		Approved:     t.Approved,
		Memo:         t.Memo,
	}
}

type transactionEnvelope struct {
	Data struct {
		Transaction transactionJSON `json:"transaction"`
	} `json:"data"`
}

type accountEnvelope struct {
	Data struct {
		Account struct {
			ID              string `json:"id"`
			TransferPayeeID string `json:"transfer_payee_id"`
		} `json:"account"`
	} `json:"data"`
}

// CreateTransaction turns a statement item into a backend transaction. For
// a detected transfer the payee is the counterpart account's transfer
// identity, which makes the backend record it as a transfer between the two
// accounts. The statement id rides along as import_id, so a repeat create
// is idempotent on the backend side.
func (c *Client) CreateTransaction(ctx context.Context, item models.StatementItem, candidate models.TransferCandidate) (*models.Transaction, error) {
	budgetAccountID, ok := c.budgetAccounts[item.AccountID]
	if !ok {
		return nil, errs.NewValidationError("no budget account mapped for bank account " + item.AccountID)
	}

	tx := transactionJSON{
		AccountID: budgetAccountID,
		Date:      item.Time.Format("2006-01-02"),
		Amount:    item.Amount * 10, // minor units -> milliunits
		Approved:  true,
		Memo:      item.Comment,
		ImportID:  helpers.Ptr(item.ID),
	}
	if candidate.IsTransfer() {
		tx.PayeeID = helpers.Ptr(candidate.TransferPayeeID)
	} else {
		tx.PayeeName = helpers.Ptr(item.Description)
	}

	var out transactionEnvelope
	err := c.do(ctx, http.MethodPost, "/budgets/"+c.budgetID+"/transactions",
		map[string]transactionJSON{"transaction": tx}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data.Transaction.toModel(), nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var out transactionEnvelope
	err := c.do(ctx, http.MethodGet, "/budgets/"+c.budgetID+"/transactions/"+id, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Data.Transaction.toModel(), nil
}

// UpdateTransaction replaces the transaction's mutable fields. The date is
// echoed from the transaction itself so an update never moves it.
func (c *Client) UpdateTransaction(ctx context.Context, id string, tx models.Transaction) (*models.Transaction, error) {
	date := tx.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	body := transactionJSON{
		AccountID:  tx.AccountID,
		Date:       date,
		Amount:     tx.Amount * 10,
		PayeeID:    tx.PayeeID,
		PayeeName:  tx.PayeeName,
		CategoryID: tx.CategoryID,
		Approved:   tx.Approved,
		Memo:       tx.Memo,
	}

	var out transactionEnvelope
	err := c.do(ctx, http.MethodPut, "/budgets/"+c.budgetID+"/transactions/"+id,
		map[string]transactionJSON{"transaction": body}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data.Transaction.toModel(), nil
}

// TransferPayeeID resolves the payee identity the backend uses for
// transfers into the given account.
func (c *Client) TransferPayeeID(ctx context.Context, budgetAccountID string) (string, error) {
	var out accountEnvelope
	err := c.do(ctx, http.MethodGet, "/budgets/"+c.budgetID+"/accounts/"+budgetAccountID, nil, &out)
	if err != nil {
		return "", err
	}
	return out.Data.Account.TransferPayeeID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewExternalServiceError("ynab", err.Error(), true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewExternalServiceError("ynab", err.Error(), true)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.NewRateLimitedError(retryAfter(resp))
	case resp.StatusCode == http.StatusNotFound:
		return errs.NewNotFoundError(fmt.Sprintf("%s %s: not found", method, path))
	case resp.StatusCode >= 400:
		return errs.NewExternalServiceError("ynab",
			fmt.Sprintf("%s %s returned %d: %s", method, path, resp.StatusCode, raw), resp.StatusCode >= 500)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
