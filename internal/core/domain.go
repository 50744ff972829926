package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used for every persisted date.
const DateLayout = "2006-01-02"

type (
	// Transaction is one ledger entry. A non-negative Amount is income,
	// a negative Amount is an expense.
	Transaction struct {
		ID     string
		Desc   string
		Amount decimal.Decimal
		Date   string
	}

	// Collection is the full ordered set of transactions, persisted as one unit.
	Collection []Transaction

	// IDFunc generates fresh transaction identifiers.
	IDFunc func() string
)

var (
	ErrEmptyID          = errors.New("empty id")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Today formats the calendar date of now.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// IsISODate reports whether s is a valid YYYY-MM-DD date.
func IsISODate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsIncome reports whether the transaction counts as income.
func (t Transaction) IsIncome() bool {
	return !t.Amount.IsNegative()
}

// Magnitude returns the absolute amount, the value shown for expenses.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !IsISODate(t.Date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, t.Date)
	}
	return nil
}

// NewEntry builds a transaction from manual form input. The description is
// required, the amount must parse, and an empty date means today.
func NewEntry(desc, amount, date string, now time.Time, newID IDFunc) (Transaction, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Transaction{}, ErrEmptyDescription
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return Transaction{}, err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = Today(now)
	}
	if newID == nil {
		newID = NewID
	}
	t := Transaction{ID: newID(), Desc: desc, Amount: amt, Date: date}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// wireTransaction is the JSON shape shared by the store and the JSON export.
// Amount stays a JSON number.
type wireTransaction struct {
	ID     string          `json:"id"`
	Desc   string          `json:"desc"`
	Amount json.RawMessage `json:"amount"`
	Date   string          `json:"date"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTransaction{
		ID:     t.ID,
		Desc:   t.Desc,
		Amount: json.RawMessage(t.Amount.String()),
		Date:   t.Date,
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w wireTransaction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amt := decimal.Zero
	if raw := strings.Trim(string(w.Amount), `"`); raw != "" && raw != "null" {
		d, ok := parseDecimal(raw)
		if !ok {
			return fmt.Errorf("transaction %q: %w", w.ID, ErrInvalidAmount)
		}
		amt = d
	}
	*t = Transaction{ID: w.ID, Desc: w.Desc, Amount: amt, Date: w.Date}
	return nil
}

// Clone returns a copy that does not share the backing array.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Find returns the index of the transaction with the given id, or -1.
func (c Collection) Find(id string) int {
	for i, t := range c {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Without returns the collection minus every transaction with the given id.
func (c Collection) Without(id string) Collection {
	out := make(Collection, 0, len(c))
	for _, t := range c {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
