package render

import (
	"strings"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/internal/models"
)

// Callback payloads ride in the chat backend's callback-data field, which
// caps at 64 bytes. Tags are single characters; only the set-payee variant
// carries extra text.
const (
	maxPayloadBytes = 64

	tagUncategorize = "u"
	tagUnapprove    = "a"
	tagUnknown      = "?"
	tagSetPayee     = "p"

	payeeSep = ":"
)

// EncodeUpdate serializes an update variant into a callback payload. The
// payee text is truncated on a rune boundary so the payload always fits.
func EncodeUpdate(u models.TransactionUpdate) string {
	switch u.Kind {
	case models.UpdateUncategorize:
		return tagUncategorize
	case models.UpdateUnapprove:
		return tagUnapprove
	case models.UpdateUnknown:
		return tagUnknown
	case models.UpdateSetPayee:
		return tagSetPayee + payeeSep + truncateBytes(u.Payee, maxPayloadBytes-len(tagSetPayee)-len(payeeSep))
	default:
		return ""
	}
}

// DecodeUpdate parses a callback payload back into an update variant.
func DecodeUpdate(data string) (models.TransactionUpdate, error) {
	switch {
	case data == tagUncategorize:
		return models.TransactionUpdate{Kind: models.UpdateUncategorize}, nil
	case data == tagUnapprove:
		return models.TransactionUpdate{Kind: models.UpdateUnapprove}, nil
	case data == tagUnknown:
		return models.TransactionUpdate{Kind: models.UpdateUnknown}, nil
	case strings.HasPrefix(data, tagSetPayee+payeeSep):
		payee := strings.TrimPrefix(data, tagSetPayee+payeeSep)
		if payee == "" {
			return models.TransactionUpdate{}, errs.NewValidationError("set-payee payload has no payee")
		}
		return models.TransactionUpdate{Kind: models.UpdateSetPayee, Payee: payee}, nil
	default:
		return models.TransactionUpdate{}, errs.NewValidationError("unknown callback payload: " + data)
	}
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
