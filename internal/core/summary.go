package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TrendDays is the width of the trend window, ending today inclusive.
const TrendDays = 30

// Summary holds the totals shown above the transaction list.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal // absolute value of all expenses
	Balance decimal.Decimal
	Count   int
}

// IncomeText, ExpenseText and BalanceText format with exactly two decimals.
func (s Summary) IncomeText() string  { return FormatAmount(s.Income) }
func (s Summary) ExpenseText() string { return FormatAmount(s.Expense) }
func (s Summary) BalanceText() string { return FormatAmount(s.Balance) }

// Series is the day-bucketed trend: three aligned slices, oldest day first.
type Series struct {
	Labels  []string  `json:"labels"`
	Income  []float64 `json:"income"`
	Expense []float64 `json:"expense"`
}

// Filter returns the transactions whose description contains q,
// case-insensitively, in collection order. An empty q matches everything.
func Filter(txs Collection, q string) Collection {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return txs.Clone()
	}
	out := make(Collection, 0, len(txs))
	for _, t := range txs {
		if strings.Contains(strings.ToLower(t.Desc), q) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize totals the transactions matching q.
func Summarize(txs Collection, q string) Summary {
	var s Summary
	for _, t := range Filter(txs, q) {
		if t.IsIncome() {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expense = s.Expense.Add(t.Magnitude())
		}
		s.Count++
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// Trend buckets every transaction by date into the days-wide window ending
// on now's calendar date. Transactions outside the window are dropped.
func Trend(txs Collection, now time.Time, days int) Series {
	if days <= 0 {
		days = TrendDays
	}
	labels := make([]string, days)
	index := make(map[string]int, days)
	y, m, d := now.Date()
	for i := 0; i < days; i++ {
		day := time.Date(y, m, d-(days-1-i), 0, 0, 0, 0, now.Location())
		labels[i] = day.Format(DateLayout)
		index[labels[i]] = i
	}

	income := make([]decimal.Decimal, days)
	expense := make([]decimal.Decimal, days)
	for _, t := range txs {
		key := t.Date
		if key == "" {
			key = Today(now)
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		if t.IsIncome() {
			income[i] = income[i].Add(t.Amount)
		} else {
			expense[i] = expense[i].Add(t.Magnitude())
		}
	}

	s := Series{
		Labels:  labels,
		Income:  make([]float64, days),
		Expense: make([]float64, days),
	}
	for i := range labels {
		s.Income[i] = RoundCents(income[i]).InexactFloat64()
		s.Expense[i] = RoundCents(expense[i]).InexactFloat64()
	}
	return s
}
