package services

import (
	"context"

	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/internal/render"
	"github.com/GregMSThompson/budget-sync/pkg/helpers"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

// UnknownErrorMsg is the generic acknowledgment shown when a press cannot
// be applied.
const UnknownErrorMsg = "Something went wrong, the transaction was not changed"

// budgetCBStore is the budgeting-backend surface callback handling needs.
type budgetCBStore interface {
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, tx models.Transaction) (*models.Transaction, error)
}

// chatCBTransport is the chat surface callback handling needs.
type chatCBTransport interface {
	AnswerCallback(ctx context.Context, callbackID, text string) error
	EditMessage(ctx context.Context, chatID int64, messageID int, html string, keyboard models.Keyboard) error
}

// CallbackHandler applies a button press to the transaction it references
// and re-renders the message in place. The message content is the only
// state: which corrections were already applied is read back out of the
// posted keyboard, never from a store.
type CallbackHandler struct {
	budget            budgetCBStore
	chat              chatCBTransport
	allowedUsers      map[int64]bool
	unknownPayeeID    string
	unknownCategoryID string
}

func NewCallbackHandler(budget budgetCBStore, chat chatCBTransport, allowedUserIDs []int64, unknownPayeeID, unknownCategoryID string) *CallbackHandler {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &CallbackHandler{
		budget:            budget,
		chat:              chat,
		allowedUsers:      allowed,
		unknownPayeeID:    unknownPayeeID,
		unknownCategoryID: unknownCategoryID,
	}
}

// Handle processes one button press: allow-list check, payload decode,
// backend mutation (with rate-limit retry), acknowledgment, then an edit
// only if the rendered content actually changed.
func (h *CallbackHandler) Handle(ctx context.Context, cb models.CallbackEvent) error {
	log, ctx := logger.With(ctx, "callback_id", cb.ID, "user_id", cb.UserID)

	if !h.allowedUsers[cb.UserID] {
		log.Warn("callback from unknown user dropped")
		return nil
	}
	if cb.Data == "" || cb.Message == nil {
		log.Warn("callback without data or message dropped")
		return nil
	}

	update, err := render.DecodeUpdate(cb.Data)
	if err != nil {
		log.Warn("malformed callback payload", "error", err)
		return h.chat.AnswerCallback(ctx, cb.ID, UnknownErrorMsg)
	}

	parsed, err := render.ParseStatement(cb.Message)
	if err != nil {
		log.Warn("unparsable statement message", "error", err)
		return h.chat.AnswerCallback(ctx, cb.ID, UnknownErrorMsg)
	}

	var updated *models.Transaction
	err = WithRateLimitRetry(ctx, func() error {
		var uerr error
		updated, uerr = h.applyUpdate(ctx, parsed.ID, update)
		return uerr
	})
	if err != nil {
		log.Error("transaction update failed", "transaction_id", parsed.ID, "update", update.Kind.String(), "error", err)
		if aerr := h.chat.AnswerCallback(ctx, cb.ID, UnknownErrorMsg); aerr != nil {
			log.Warn("callback acknowledgment failed", "error", aerr)
		}
		return err
	}

	// clear the press's loading indicator before re-rendering
	if err := h.chat.AnswerCallback(ctx, cb.ID, ""); err != nil {
		log.Warn("callback acknowledgment failed", "error", err)
	}

	html := render.ComposeHTML(parsed, updated.CategoryName, helpers.Value(updated.PayeeName))
	keyboard := render.RebuildKeyboard(cb.Message.Keyboard, update.Kind)

	if render.StripTags(html) == cb.Message.Text && keyboard.Equal(cb.Message.Keyboard) {
		log.Debug("message unchanged, edit skipped")
		return nil
	}

	if err := h.chat.EditMessage(ctx, cb.Message.ChatID, cb.Message.MessageID, html, keyboard); err != nil {
		log.Error("message edit failed", "error", err)
		return err
	}

	log.Info("transaction updated", "transaction_id", parsed.ID, "update", update.Kind.String())
	return nil
}

// applyUpdate maps the variant onto the desired transaction state and
// submits it. The switch is exhaustive over the update kinds.
func (h *CallbackHandler) applyUpdate(ctx context.Context, txID string, update models.TransactionUpdate) (*models.Transaction, error) {
	tx, err := h.budget.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	desired := *tx
	switch update.Kind {
	case models.UpdateUncategorize:
		desired.CategoryID = nil
		desired.PayeeID = nil
		desired.PayeeName = nil
	case models.UpdateUnapprove:
		desired.Approved = false
	case models.UpdateUnknown:
		desired.PayeeID = helpers.Ptr(h.unknownPayeeID)
		desired.CategoryID = helpers.Ptr(h.unknownCategoryID)
		desired.PayeeName = nil
	case models.UpdateSetPayee:
		desired.PayeeID = nil
		desired.PayeeName = helpers.Ptr(update.Payee)
	}

	return h.budget.UpdateTransaction(ctx, tx.ID, desired)
}
