package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func fixedID(id string) IDFunc { return func() string { return id } }

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		tx Transaction
		ok bool
	}{
		{Transaction{ID: "a", Date: "2025-01-01"}, true},
		{Transaction{ID: "a", Date: "2025-12-31", Desc: "x"}, true},
		{Transaction{ID: "", Date: "2025-01-01"}, false},
		{Transaction{ID: "a", Date: ""}, false},
		{Transaction{ID: "a", Date: "2025-13-01"}, false},
		{Transaction{ID: "a", Date: "01/02/2025"}, false},
	}
	for i, tc := range cases {
		err := tc.tx.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNewEntry(t *testing.T) {
	now := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)

	tx, err := NewEntry("  Coffee ", "-3.456", "", now, fixedID("x1"))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.ID != "x1" || tx.Desc != "Coffee" || tx.Date != "2025-03-09" {
		t.Fatalf("unexpected entry: %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-3.46")) {
		t.Fatalf("amount not rounded: %s", tx.Amount)
	}

	if _, err := NewEntry("   ", "1", "", now, nil); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if _, err := NewEntry("x", "abc", "", now, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := NewEntry("x", "1", "2025-02-30", now, nil); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	long := strings.Repeat("a", 500)
	if tx, err := NewEntry(long, "1", "", now, fixedID("x2")); err != nil || tx.Desc != long {
		t.Fatalf("long descriptions are kept, got %v", err)
	}
	if _, err := NewEntry("x", "1e400000000", "", now, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for huge exponent, got %v", err)
	}
}

func TestTransactionJSON(t *testing.T) {
	tx := Transaction{ID: "a", Desc: "Rent", Amount: decimal.RequireFromString("-500"), Date: "2024-01-02"}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"a","desc":"Rent","amount":-500,"date":"2024-01-02"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var huge Transaction
	if err := json.Unmarshal([]byte(`{"id":"h","amount":1e-400000000}`), &huge); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for extreme exponent, got %v", err)
	}

	var back Transaction
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != tx.ID || back.Desc != tx.Desc || back.Date != tx.Date || !back.Amount.Equal(tx.Amount) {
		t.Fatalf("round trip mismatch: %+v", back)
	}

	if err := json.Unmarshal([]byte(`{"id":"a","amount":"oops"}`), &back); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestCollectionHelpers(t *testing.T) {
	c := Collection{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if c.Find("b") != 1 || c.Find("z") != -1 {
		t.Fatalf("Find misbehaves")
	}
	w := c.Without("b")
	if len(w) != 2 || w[0].ID != "a" || w[1].ID != "c" {
		t.Fatalf("unexpected Without result: %+v", w)
	}
	if len(c) != 3 {
		t.Fatalf("Without mutated the receiver")
	}
}
