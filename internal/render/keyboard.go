package render

import (
	"strings"

	"github.com/GregMSThompson/budget-sync/internal/models"
)

// pressedMark flags a correction already applied to this message. Pressed
// state lives only in the button labels; nothing else remembers it.
const pressedMark = "✅"

var buttonOrder = []models.UpdateKind{
	models.UpdateUncategorize,
	models.UpdateUnapprove,
	models.UpdateUnknown,
	models.UpdateSetPayee,
}

func buttonLabel(kind models.UpdateKind) string {
	switch kind {
	case models.UpdateUncategorize:
		return "Uncategorize"
	case models.UpdateUnapprove:
		return "Unapprove"
	case models.UpdateUnknown:
		return "Unknown payee"
	case models.UpdateSetPayee:
		return "Make payee"
	default:
		return ""
	}
}

// NewKeyboard builds the keyboard for a freshly posted statement message.
// payee is the literal text the set-payee button will apply.
func NewKeyboard(payee string) models.Keyboard {
	return buildKeyboard(nil, payee)
}

// RebuildKeyboard derives the next keyboard from the posted one: every
// variant pressed before stays pressed, plus the variant just applied.
// Pressed state is monotone across edits.
func RebuildKeyboard(old models.Keyboard, applied models.UpdateKind) models.Keyboard {
	pressed := PressedIn(old)
	pressed[applied] = true
	return buildKeyboard(pressed, payeeIn(old))
}

// PressedIn reads the pressed-variant set back out of a posted keyboard.
func PressedIn(kb models.Keyboard) map[models.UpdateKind]bool {
	pressed := make(map[models.UpdateKind]bool)
	for _, row := range kb {
		for _, btn := range row {
			if !strings.HasPrefix(btn.Text, pressedMark) {
				continue
			}
			if u, err := DecodeUpdate(btn.Data); err == nil {
				pressed[u.Kind] = true
			}
		}
	}
	return pressed
}

func buildKeyboard(pressed map[models.UpdateKind]bool, payee string) models.Keyboard {
	buttons := make([]models.Button, 0, len(buttonOrder))
	for _, kind := range buttonOrder {
		u := models.TransactionUpdate{Kind: kind}
		if kind == models.UpdateSetPayee {
			// the set-payee payload cannot carry an empty payee, so a
			// statement without a description gets no set-payee button
			if payee == "" {
				continue
			}
			u.Payee = payee
		}

		label := buttonLabel(kind)
		if pressed[kind] {
			label = pressedMark + " " + label
		}
		buttons = append(buttons, models.Button{Text: label, Data: EncodeUpdate(u)})
	}

	// two buttons per row
	kb := make(models.Keyboard, 0, (len(buttons)+1)/2)
	for len(buttons) > 2 {
		kb = append(kb, buttons[:2])
		buttons = buttons[2:]
	}
	return append(kb, buttons)
}

// payeeIn recovers the set-payee text carried by the posted keyboard so a
// rebuild does not lose it.
func payeeIn(kb models.Keyboard) string {
	for _, row := range kb {
		for _, btn := range row {
			if u, err := DecodeUpdate(btn.Data); err == nil && u.Kind == models.UpdateSetPayee {
				return u.Payee
			}
		}
	}
	return ""
}
