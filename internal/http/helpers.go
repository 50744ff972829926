package http

import (
	"html/template"
	"net/url"
	"strconv"

	"bilancio/internal/core"
	"github.com/shopspring/decimal"
)

var templateFuncs = template.FuncMap{
	"money":       core.FormatAmount,
	"signedMoney": signedMoney,
	"pathEscape":  url.PathEscape, // ids are opaque and may hold '/', '?' or '%'

	// amountClass picks the CSS class for a signed amount.
	"amountClass": func(t core.Transaction) string {
		if t.IsIncome() {
			return "income"
		}
		return "expense"
	},
}

// signedMoney renders "+ 12.50" for income and "- 3.20" for expenses.
func signedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "- " + core.FormatAmount(d.Abs())
	}
	return "+ " + core.FormatAmount(d)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
