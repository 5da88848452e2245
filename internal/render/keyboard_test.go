package render

import (
	"strings"
	"testing"

	"github.com/GregMSThompson/budget-sync/internal/models"
)

func TestNewKeyboardLayout(t *testing.T) {
	kb := NewKeyboard("Coffee shop")

	if len(kb) != 2 || len(kb[0]) != 2 || len(kb[1]) != 2 {
		t.Fatalf("want 2 rows of 2 buttons, got %#v", kb)
	}

	wantLabels := []string{"Uncategorize", "Unapprove", "Unknown payee", "Make payee"}
	wantData := []string{"u", "a", "?", "p:Coffee shop"}
	i := 0
	for _, row := range kb {
		for _, btn := range row {
			if btn.Text != wantLabels[i] {
				t.Errorf("button %d text = %q, want %q", i, btn.Text, wantLabels[i])
			}
			if btn.Data != wantData[i] {
				t.Errorf("button %d data = %q, want %q", i, btn.Data, wantData[i])
			}
			i++
		}
	}
}

func TestNewKeyboardWithoutPayeeText(t *testing.T) {
	// a statement with no description has nothing for set-payee to apply,
	// and "p:" would not decode
	kb := NewKeyboard("")

	var buttons []models.Button
	for _, row := range kb {
		buttons = append(buttons, row...)
	}
	if len(buttons) != 3 {
		t.Fatalf("want 3 buttons without a payee, got %#v", kb)
	}
	for _, btn := range buttons {
		u, err := DecodeUpdate(btn.Data)
		if err != nil {
			t.Errorf("button %q carries undecodable data %q: %v", btn.Text, btn.Data, err)
		}
		if u.Kind == models.UpdateSetPayee {
			t.Errorf("set-payee button present without payee text: %q", btn.Data)
		}
	}

	// rebuilding keeps the omission and the pressed marker stays readable
	kb = RebuildKeyboard(kb, models.UpdateUnapprove)
	if !PressedIn(kb)[models.UpdateUnapprove] {
		t.Fatal("pressed marker unreadable after rebuild without a payee button")
	}
}

func TestRebuildKeyboardAccumulatesPresses(t *testing.T) {
	kb := NewKeyboard("Coffee")
	kb = RebuildKeyboard(kb, models.UpdateUncategorize)
	kb = RebuildKeyboard(kb, models.UpdateUnknown)

	pressed := PressedIn(kb)
	if !pressed[models.UpdateUncategorize] || !pressed[models.UpdateUnknown] {
		t.Fatalf("pressed = %#v, want both applied variants", pressed)
	}
	if pressed[models.UpdateUnapprove] || pressed[models.UpdateSetPayee] {
		t.Fatalf("pressed = %#v, unapplied variants must stay unpressed", pressed)
	}
}

func TestRebuildKeyboardKeepsPayee(t *testing.T) {
	kb := RebuildKeyboard(NewKeyboard("Coffee shop"), models.UpdateUnapprove)

	u, err := DecodeUpdate(kb[1][1].Data)
	if err != nil {
		t.Fatalf("DecodeUpdate: %v", err)
	}
	if u.Kind != models.UpdateSetPayee || u.Payee != "Coffee shop" {
		t.Fatalf("set-payee button lost its payee: %+v", u)
	}
}

func TestRebuildKeyboardIsIdempotent(t *testing.T) {
	once := RebuildKeyboard(NewKeyboard("Coffee"), models.UpdateUnapprove)
	twice := RebuildKeyboard(once, models.UpdateUnapprove)

	if !once.Equal(twice) {
		t.Fatalf("pressing the same variant twice changed the keyboard:\n%#v\n%#v", once, twice)
	}
}

func TestEncodeDecodeUpdate(t *testing.T) {
	updates := []models.TransactionUpdate{
		{Kind: models.UpdateUncategorize},
		{Kind: models.UpdateUnapprove},
		{Kind: models.UpdateUnknown},
		{Kind: models.UpdateSetPayee, Payee: "Coffee shop"},
	}
	for _, u := range updates {
		got, err := DecodeUpdate(EncodeUpdate(u))
		if err != nil {
			t.Fatalf("%s: %v", u.Kind, err)
		}
		if got != u {
			t.Errorf("%s: got %+v, want %+v", u.Kind, got, u)
		}
	}
}

func TestEncodeUpdateTruncatesPayee(t *testing.T) {
	long := strings.Repeat("Кав", 40) // multi-byte runes well past the cap
	data := EncodeUpdate(models.TransactionUpdate{Kind: models.UpdateSetPayee, Payee: long})

	if len(data) > maxPayloadBytes {
		t.Fatalf("payload is %d bytes, cap is %d", len(data), maxPayloadBytes)
	}
	u, err := DecodeUpdate(data)
	if err != nil {
		t.Fatalf("DecodeUpdate: %v", err)
	}
	if !strings.HasPrefix(long, u.Payee) {
		t.Fatal("truncation must cut on a rune boundary, not mid-rune")
	}
}

func TestDecodeUpdateRejections(t *testing.T) {
	for _, data := range []string{"", "x", "p:", "up"} {
		if _, err := DecodeUpdate(data); err == nil {
			t.Errorf("DecodeUpdate(%q) accepted invalid payload", data)
		}
	}
}
