// Package render owns the chat message format: the statement text, the
// inline keyboard and the callback payload encoding. The message itself is
// the only persistence of what the user has done to a transaction, so the
// positional layout here is a contract: parsing is keyed by fixed line
// numbers and the single bold entity. Change the layout and every already
// posted message stops being editable.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/helpers"
)

// Line layout, top to bottom. Empty category/payee render as the
// placeholder so line numbers never shift.
const (
	lineAlias       = 0
	lineDescription = 1
	lineMCC         = 2
	lineCurrency    = 3
	lineCategory    = 4
	linePayee       = 5
	lineID          = 6
	lineCount       = 7
)

const (
	aliasPrefix = "💳 "
	placeholder = "-"
)

var htmlTags = regexp.MustCompile(`<.*?>`)

// ParsedStatement is the set of structural fields recoverable from a posted
// message.
type ParsedStatement struct {
	Alias        string
	Description  string
	MCC          string
	CurrencyText string
	ID           string
}

// StatementHTML renders the initial message for a freshly created
// transaction.
func StatementHTML(account models.Account, item models.StatementItem, tx *models.Transaction) string {
	return ComposeHTML(ParsedStatement{
		Alias:        account.Alias,
		Description:  item.Description,
		MCC:          MCCName(item.MCC),
		CurrencyText: CurrencyText(account, item),
		ID:           tx.ID,
	}, tx.CategoryName, helpers.Value(tx.PayeeName))
}

// ComposeHTML builds the message text from the structural fields plus the
// current category/payee. The description is the single bold segment.
func ComposeHTML(p ParsedStatement, category, payee string) string {
	if category == "" {
		category = placeholder
	}
	if payee == "" {
		payee = placeholder
	}

	lines := make([]string, lineCount)
	lines[lineAlias] = aliasPrefix + p.Alias
	lines[lineDescription] = "<b>" + p.Description + "</b>"
	lines[lineMCC] = p.MCC
	lines[lineCurrency] = p.CurrencyText
	lines[lineCategory] = category
	lines[linePayee] = payee
	lines[lineID] = p.ID

	return strings.Join(lines, "\n")
}

// ParseStatement recovers the structural fields from a posted message. The
// description comes from the bold entity when present (offsets are UTF-16
// code units), falling back to the raw description line.
func ParseStatement(msg *models.ChatMessage) (ParsedStatement, error) {
	lines := strings.Split(msg.Text, "\n")
	if len(lines) < lineCount {
		return ParsedStatement{}, errs.NewValidationError(
			fmt.Sprintf("statement message has %d lines, want %d", len(lines), lineCount))
	}

	description := strings.TrimSpace(lines[lineDescription])
	for _, e := range msg.Entities {
		if e.Type == models.EntityBold {
			description = utf16Segment(msg.Text, e.Offset, e.Length)
			break
		}
	}

	p := ParsedStatement{
		Alias:        strings.TrimPrefix(strings.TrimSpace(lines[lineAlias]), aliasPrefix),
		Description:  description,
		MCC:          strings.TrimSpace(lines[lineMCC]),
		CurrencyText: strings.TrimSpace(lines[lineCurrency]),
		ID:           strings.TrimSpace(lines[lineID]),
	}
	if p.ID == "" {
		return ParsedStatement{}, errs.NewValidationError("statement message has no transaction id")
	}
	return p, nil
}

// StripTags removes HTML markup, yielding the text as the chat backend
// stores it. Used to compare a re-rendered message against the posted one.
func StripTags(html string) string {
	return htmlTags.ReplaceAllString(html, "")
}

// CurrencyText formats the charged amount, appending the operation amount
// when the operation ran in a different currency.
func CurrencyText(account models.Account, item models.StatementItem) string {
	text := minorUnits(item.Amount) + " " + account.Currency
	if item.CurrencyCode != "" && item.CurrencyCode != account.Currency && item.OperationAmount != 0 {
		text += " (" + minorUnits(item.OperationAmount) + " " + item.CurrencyCode + ")"
	}
	return text
}

func minorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

func utf16Segment(s string, offset, length int) string {
	units := utf16.Encode([]rune(s))
	if offset < 0 || length < 0 || offset+length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[offset : offset+length]))
}
