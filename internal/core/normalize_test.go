package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  RawRecord
		want Transaction
	}{
		{
			name: "complete record",
			raw:  RawRecord{"id": "a", "desc": " Pay ", "amount": json.Number("1000"), "date": "2024-01-01"},
			want: Transaction{ID: "a", Desc: "Pay", Amount: decimal.RequireFromString("1000"), Date: "2024-01-01"},
		},
		{
			name: "missing everything",
			raw:  RawRecord{},
			want: Transaction{ID: "gen", Desc: "", Amount: decimal.Zero, Date: "2024-05-20"},
		},
		{
			name: "numeric id and string amount",
			raw:  RawRecord{"id": json.Number("42"), "desc": "x", "amount": "12.345", "date": "2024-02-03"},
			want: Transaction{ID: "42", Desc: "x", Amount: decimal.RequireFromString("12.35"), Date: "2024-02-03"},
		},
		{
			name: "uncoercible amount",
			raw:  RawRecord{"id": "b", "amount": "lots", "date": "2024-02-03"},
			want: Transaction{ID: "b", Amount: decimal.Zero, Date: "2024-02-03"},
		},
		{
			name: "timestamp date is reduced to calendar date",
			raw:  RawRecord{"id": "c", "date": "2024-02-03T18:30:00Z"},
			want: Transaction{ID: "c", Amount: decimal.Zero, Date: "2024-02-03"},
		},
		{
			name: "garbage date falls back to today",
			raw:  RawRecord{"id": "d", "date": "not a date"},
			want: Transaction{ID: "d", Amount: decimal.Zero, Date: "2024-05-20"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw, now, fixedID("gen"))
			if got.ID != tc.want.ID || got.Desc != tc.want.Desc || got.Date != tc.want.Date || !got.Amount.Equal(tc.want.Amount) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("normalized record invalid: %v", err)
			}
		})
	}
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	got := NormalizeAll([]RawRecord{{"id": "z"}, {"id": "a"}}, now, nil)
	if len(got) != 2 || got[0].ID != "z" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestNormalizeGeneratesDistinctIDs(t *testing.T) {
	now := time.Now()
	a := Normalize(RawRecord{}, now, nil)
	b := Normalize(RawRecord{}, now, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", a.ID, b.ID)
	}
}
