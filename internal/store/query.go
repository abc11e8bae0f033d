package store

import (
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Transactions returns a copy of all transactions in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactionsLocked()
}

// Categories returns a copy of the taxonomy.
func (s *Store) Categories() core.Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.Clone()
}

// CategoriesFor returns a copy of t's category list.
func (s *Store) CategoriesFor(t core.TransactionType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories.For(t))
}

// Totals sums income and expense amounts. Balance is income minus expense.
func (s *Store) Totals() core.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	income, expense := decimal.Zero, decimal.Zero
	for _, t := range s.transactions {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return core.Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// TypeTotal sums the amounts of one transaction type.
func (s *Store) TypeTotal(t core.TransactionType) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, tx := range s.transactions {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// RecentTransactions returns up to limit transactions, most recently created
// first. Equal CreatedAt values put the later insertion first.
func (s *Store) RecentTransactions(limit int) []core.Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := s.Sorted(core.Newest)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Sorted returns a copy of all transactions ordered by CreatedAt.
func (s *Store) Sorted(order core.SortOrder) []core.Transaction {
	s.mu.RLock()
	out := s.transactionsLocked()
	s.mu.RUnlock()

	sortByCreated(out, order)
	return out
}

// History returns the transactions of one type ordered by CreatedAt.
func (s *Store) History(t core.TransactionType, order core.SortOrder) []core.Transaction {
	s.mu.RLock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()

	sortByCreated(out, order)
	return out
}

// MonthlyHistory groups History by the UTC year and month of CreatedAt.
func (s *Store) MonthlyHistory(t core.TransactionType, order core.SortOrder) []core.MonthGroup {
	var groups []core.MonthGroup
	for _, tx := range s.History(t, order) {
		month := tx.CreatedAt.UTC().Format("2006-01")
		if n := len(groups); n == 0 || groups[n-1].Month != month {
			groups = append(groups, core.MonthGroup{Month: month, Total: decimal.Zero})
		}
		g := &groups[len(groups)-1]
		g.Total = g.Total.Add(tx.Amount)
		g.Transactions = append(g.Transactions, tx)
	}
	return groups
}

// sortByCreated orders txs, given in insertion order, by CreatedAt. Ties keep
// insertion order for Oldest and reverse it for Newest.
func sortByCreated(txs []core.Transaction, order core.SortOrder) {
	if order == core.Oldest {
		slices.SortStableFunc(txs, func(a, b core.Transaction) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		return
	}
	slices.Reverse(txs)
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
