package core

import "github.com/shopspring/decimal"

// Totals aggregates all transactions.
type Totals struct {
	Income  decimal.Decimal `json:"incomeTotal"`
	Expense decimal.Decimal `json:"expenseTotal"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthGroup is one month bucket of a history view, keyed by creation month.
type MonthGroup struct {
	Month        string          `json:"month"` // YYYY-MM
	Total        decimal.Decimal `json:"total"`
	Transactions []Transaction   `json:"transactions"`
}

// SortOrder selects the direction of history views over CreatedAt.
type SortOrder string

const (
	Newest SortOrder = "desc"
	Oldest SortOrder = "asc"
)

// ParseSortOrder maps "asc" to Oldest and anything else to Newest.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == Oldest {
		return Oldest
	}
	return Newest
}
