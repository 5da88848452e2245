// Package telegram adapts the bot API to the transport-neutral chat types
// the services use.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

type Adapter struct {
	bot         *tgbotapi.BotAPI
	chatID      int64
	errorChatID int64
}

func NewAdapter(token string, chatID, errorChatID int64) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errs.NewExternalServiceError("telegram", err.Error(), false)
	}
	return &Adapter{
		bot:         bot,
		chatID:      chatID,
		errorChatID: errorChatID,
	}, nil
}

// Start consumes the update stream until ctx is cancelled. Every callback
// query is handled in its own goroutine so a slow mutation does not hold up
// the next press.
func (a *Adapter) Start(ctx context.Context, onCallback func(ctx context.Context, cb models.CallbackEvent)) error {
	log := logger.FromContext(ctx)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := a.bot.GetUpdatesChan(cfg)

	log.Info("telegram update loop started", "bot", a.bot.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery == nil {
				continue
			}
			cb := toCallbackEvent(update.CallbackQuery)
			go onCallback(ctx, cb)
		}
	}
}

// SendStatement posts a statement message with its correction keyboard to
// the configured chat and returns the message id.
func (a *Adapter) SendStatement(ctx context.Context, html string, keyboard models.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(a.chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = toMarkup(keyboard)

	sent, err := a.bot.Send(msg)
	if err != nil {
		return 0, errs.NewExternalServiceError("telegram", err.Error(), true)
	}
	return sent.MessageID, nil
}

func (a *Adapter) EditMessage(ctx context.Context, chatID int64, messageID int, html string, keyboard models.Keyboard) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, html, toMarkup(keyboard))
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := a.bot.Send(edit); err != nil {
		return errs.NewExternalServiceError("telegram", err.Error(), true)
	}
	return nil
}

// AnswerCallback clears the pressed button's loading state; text, when
// non-empty, is shown to the user as a notice.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := a.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return errs.NewExternalServiceError("telegram", err.Error(), true)
	}
	return nil
}

// NotifyError posts a plain-text notice to the error channel. Best effort;
// callers log a failure and move on.
func (a *Adapter) NotifyError(ctx context.Context, text string) error {
	chatID := a.errorChatID
	if chatID == 0 {
		chatID = a.chatID
	}
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return errs.NewExternalServiceError("telegram", err.Error(), true)
	}
	return nil
}

// ---- wire conversions ----

func toMarkup(kb models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func fromMarkup(markup *tgbotapi.InlineKeyboardMarkup) models.Keyboard {
	if markup == nil {
		return nil
	}
	kb := make(models.Keyboard, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		buttons := make([]models.Button, 0, len(row))
		for _, btn := range row {
			data := ""
			if btn.CallbackData != nil {
				data = *btn.CallbackData
			}
			buttons = append(buttons, models.Button{Text: btn.Text, Data: data})
		}
		kb = append(kb, buttons)
	}
	return kb
}

func toCallbackEvent(q *tgbotapi.CallbackQuery) models.CallbackEvent {
	cb := models.CallbackEvent{
		ID:   q.ID,
		Data: q.Data,
	}
	if q.From != nil {
		cb.UserID = q.From.ID
	}
	if q.Message == nil {
		return cb
	}

	cb.ChatID = q.Message.Chat.ID
	msg := &models.ChatMessage{
		ChatID:    q.Message.Chat.ID,
		MessageID: q.Message.MessageID,
		Text:      q.Message.Text,
		Keyboard:  fromMarkup(q.Message.ReplyMarkup),
	}
	for _, e := range q.Message.Entities {
		msg.Entities = append(msg.Entities, models.MessageEntity{
			Type:   e.Type,
			Offset: e.Offset,
			Length: e.Length,
		})
	}
	cb.Message = msg
	return cb
}
