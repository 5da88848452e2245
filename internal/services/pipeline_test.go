package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/helpers"
)

type fakeSource struct {
	id         string
	items      []models.StatementItem
	prepareErr error
	prepared   bool
	ran        bool
}

func (f *fakeSource) ID() string { return f.id }

func (f *fakeSource) Prepare(ctx context.Context) error {
	f.prepared = true
	return f.prepareErr
}

func (f *fakeSource) Run(ctx context.Context, emit func(ctx context.Context, item models.StatementItem) error) error {
	f.ran = true
	for _, item := range f.items {
		if err := emit(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

type fakeDetector struct {
	candidates map[string]models.TransferCandidate
	checked    []string
}

func (f *fakeDetector) Check(ctx context.Context, item models.StatementItem) (models.TransferCandidate, error) {
	f.checked = append(f.checked, item.ID)
	if c, ok := f.candidates[item.ID]; ok {
		return c, nil
	}
	return models.TransferCandidate{Item: item}, nil
}

type fakeBudget struct {
	created   []models.TransferCandidate
	createErr error
}

func (f *fakeBudget) CreateTransaction(ctx context.Context, item models.StatementItem, candidate models.TransferCandidate) (*models.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, candidate)
	return &models.Transaction{ID: item.ID, AccountID: item.AccountID, Amount: item.Amount, Approved: true}, nil
}

type fakeChat struct {
	sent      []string
	keyboards []models.Keyboard
	notices   []string
	sendErr   error
}

func (f *fakeChat) SendStatement(ctx context.Context, html string, keyboard models.Keyboard) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, html)
	f.keyboards = append(f.keyboards, keyboard)
	return len(f.sent), nil
}

func (f *fakeChat) NotifyError(ctx context.Context, text string) error {
	f.notices = append(f.notices, text)
	return nil
}

func pipelineTestAccounts() []models.Account {
	return []models.Account{{ID: "A", Alias: "Main", Currency: "UAH", BudgetAccountID: "bA"}}
}

func coffeeItem() models.StatementItem {
	return models.StatementItem{
		ID:          "T1",
		AccountID:   "A",
		Amount:      -500,
		Description: "Coffee",
		MCC:         5812,
	}
}

func TestPipelineProcessesFreshItem(t *testing.T) {
	source := &fakeSource{id: "s1", items: []models.StatementItem{coffeeItem()}}
	detector := &fakeDetector{}
	budget := &fakeBudget{}
	chat := &fakeChat{}
	p := NewPipeline([]StatementSource{source}, NewDuplicateChecker(), detector, budget, chat, pipelineTestAccounts())

	if err := p.Run(helpers.TestCtx()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(budget.created) != 1 || budget.created[0].IsTransfer() {
		t.Fatalf("expected one non-transfer creation, got %#v", budget.created)
	}
	if len(chat.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(chat.sent))
	}
	if !strings.Contains(chat.sent[0], "<b>Coffee</b>") {
		t.Fatalf("message missing bold description: %q", chat.sent[0])
	}
	if !strings.Contains(chat.sent[0], "-5.00 UAH") {
		t.Fatalf("message missing amount: %q", chat.sent[0])
	}

	var buttons int
	for _, row := range chat.keyboards[0] {
		buttons += len(row)
	}
	if buttons != 4 {
		t.Fatalf("expected 4 correction buttons, got %d", buttons)
	}
	if len(chat.notices) != 0 {
		t.Fatalf("unexpected error notices: %#v", chat.notices)
	}
}

func TestPipelineDropsDuplicateBeforeDetection(t *testing.T) {
	item := coffeeItem()
	source := &fakeSource{id: "s1", items: []models.StatementItem{item, item}}
	detector := &fakeDetector{}
	budget := &fakeBudget{}
	chat := &fakeChat{}
	p := NewPipeline([]StatementSource{source}, NewDuplicateChecker(), detector, budget, chat, pipelineTestAccounts())

	if err := p.Run(helpers.TestCtx()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(detector.checked) != 1 {
		t.Fatalf("detector ran %d times, want 1 (duplicate must drop first)", len(detector.checked))
	}
	if len(budget.created) != 1 {
		t.Fatalf("expected one creation, got %d", len(budget.created))
	}
	if len(chat.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(chat.sent))
	}
}

func TestPipelineIsolatesItemFailures(t *testing.T) {
	first := coffeeItem()
	second := coffeeItem()
	second.ID = "T2"

	source := &fakeSource{id: "s1", items: []models.StatementItem{first, second}}
	budget := &fakeBudget{createErr: errors.New("backend rejected")}
	chat := &fakeChat{}
	p := NewPipeline([]StatementSource{source}, NewDuplicateChecker(), &fakeDetector{}, budget, chat, pipelineTestAccounts())

	if err := p.Run(helpers.TestCtx()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// both items attempted, both failures notified, stream never died
	if len(chat.notices) != 2 {
		t.Fatalf("expected 2 error notices, got %#v", chat.notices)
	}
	if !strings.Contains(chat.notices[0], "T1") || !strings.Contains(chat.notices[1], "T2") {
		t.Fatalf("notices missing item ids: %#v", chat.notices)
	}
}

func TestPipelineDoesNotStartOnPrepareFailure(t *testing.T) {
	bad := &fakeSource{id: "bad", prepareErr: errors.New("token rejected")}
	good := &fakeSource{id: "good", items: []models.StatementItem{coffeeItem()}}
	budget := &fakeBudget{}
	chat := &fakeChat{}
	p := NewPipeline([]StatementSource{bad, good}, NewDuplicateChecker(), &fakeDetector{}, budget, chat, pipelineTestAccounts())

	err := p.Run(helpers.TestCtx())
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected prepare failure naming the source, got %v", err)
	}
	if bad.ran || good.ran {
		t.Fatal("no source may run after a prepare failure")
	}
	if len(budget.created) != 0 || len(chat.sent) != 0 {
		t.Fatal("nothing may be processed after a prepare failure")
	}
}
