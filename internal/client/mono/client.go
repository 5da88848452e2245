// Package mono is the bank-side adapter: an authenticated REST client with
// the upstream's statement rate limit enforced locally, plus the two
// statement-source flavors (polling and webhook push) built on it.
package mono

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/internal/models"
)

const (
	defaultBaseURL = "https://api.monobank.ua"

	// the upstream allows one statement request per minute per token
	defaultStatementInterval = 60 * time.Second
)

type Client struct {
	token   string
	baseURL string
	http    *http.Client

	// statement rate gate: one mutable clock per client, serialized.
	// lastCall is stamped only after the request returns, success or not,
	// so a burst of failures cannot slip past the limit.
	mu          sync.Mutex
	lastCall    time.Time
	minInterval time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithStatementInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// withClock overrides the time source, for tests.
func withClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:       token,
		baseURL:     defaultBaseURL,
		http:        http.DefaultClient,
		minInterval: defaultStatementInterval,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statementJSON is the wire shape of one statement item.
type statementJSON struct {
	ID              string `json:"id"`
	Account         string `json:"account"`
	Time            int64  `json:"time"`
	Description     string `json:"description"`
	Comment         string `json:"comment"`
	MCC             int    `json:"mcc"`
	Amount          int64  `json:"amount"`
	OperationAmount int64  `json:"operationAmount"`
	CurrencyCode    string `json:"currencyCode"`
	CounterIBAN     string `json:"counterIban"`
}

func (s statementJSON) toModel(accountID string) models.StatementItem {
	if s.Account != "" {
		accountID = s.Account
	}
	return models.StatementItem{
		ID:              s.ID,
		AccountID:       accountID,
		Time:            time.Unix(s.Time, 0),
		Description:     s.Description,
		Comment:         s.Comment,
		MCC:             s.MCC,
		Amount:          s.Amount,
		OperationAmount: s.OperationAmount,
		CurrencyCode:    s.CurrencyCode,
		CounterIBAN:     s.CounterIBAN,
	}
}

// Statements fetches the account's statement items for (from, to]. Callers
// may invoke it concurrently; the client serializes them on one clock and
// holds each back until the minimum interval since the previous call has
// passed.
func (c *Client) Statements(ctx context.Context, accountID string, from, to time.Time) ([]models.StatementItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elapsed := c.now().Sub(c.lastCall); elapsed < c.minInterval {
		if err := c.sleep(ctx, c.minInterval-elapsed); err != nil {
			return nil, err
		}
	}

	path := fmt.Sprintf("/personal/statement/%s/%d/%d", accountID, from.Unix(), to.Unix())
	var items []statementJSON
	err := c.get(ctx, path, &items)
	c.lastCall = c.now()
	if err != nil {
		return nil, err
	}

	out := make([]models.StatementItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel(accountID))
	}
	return out, nil
}

// ClientInfo is the readiness call: it verifies the token and lists the
// accounts the bank knows about.
type ClientInfo struct {
	Name     string `json:"name"`
	Accounts []struct {
		ID           string `json:"id"`
		CurrencyCode int    `json:"currencyCode"`
	} `json:"accounts"`
}

func (c *Client) ClientInfo(ctx context.Context) (*ClientInfo, error) {
	var info ClientInfo
	if err := c.get(ctx, "/personal/client-info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetWebhook registers url as the push destination for this token.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	body, err := json.Marshal(map[string]string{"webHookUrl": url})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/personal/webhook", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("X-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewExternalServiceError("mono", err.Error(), true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.NewExternalServiceError("mono",
			fmt.Sprintf("webhook registration returned %d", resp.StatusCode), resp.StatusCode >= 500)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewExternalServiceError("mono", err.Error(), true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewExternalServiceError("mono", err.Error(), true)
	}
	if resp.StatusCode != http.StatusOK {
		return errs.NewExternalServiceError("mono",
			fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, raw), resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests)
	}
	return json.Unmarshal(raw, out)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
