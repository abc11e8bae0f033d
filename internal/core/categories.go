package core

import (
	"slices"
	"strings"
)

// Categories is the taxonomy of category names, one ordered list per transaction type.
// Its JSON form is the persisted snapshot of the "categories" key.
type Categories struct {
	Income  []string `json:"incomeCategories"`
	Expense []string `json:"expenseCategories"`
}

// DefaultCategories returns the taxonomy used when nothing has been stored yet.
func DefaultCategories() Categories {
	return Categories{
		Income:  []string{"Salary", "Bonus", "Freelance", "Other"},
		Expense: []string{"Food", "Transport", "Entertainment", "Utilities", "Health", "Other"},
	}
}

// For returns the list for t. The returned slice aliases the taxonomy.
func (c Categories) For(t TransactionType) []string {
	if t == Income {
		return c.Income
	}
	return c.Expense
}

// Has reports whether name is listed for t.
func (c Categories) Has(t TransactionType, name string) bool {
	return slices.Contains(c.For(t), name)
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	return Categories{
		Income:  slices.Clone(c.Income),
		Expense: slices.Clone(c.Expense),
	}
}

// With returns a copy with name appended to t's list.
func (c Categories) With(t TransactionType, name string) Categories {
	out := c.Clone()
	if t == Income {
		out.Income = append(out.Income, name)
	} else {
		out.Expense = append(out.Expense, name)
	}
	return out
}

// Without returns a copy with every occurrence of name removed from t's list.
func (c Categories) Without(t TransactionType, name string) Categories {
	out := c.Clone()
	drop := func(s string) bool { return s == name }
	if t == Income {
		out.Income = slices.DeleteFunc(out.Income, drop)
	} else {
		out.Expense = slices.DeleteFunc(out.Expense, drop)
	}
	return out
}

// ValidateNew checks a category name about to be added to t's list.
func (c Categories) ValidateNew(t TransactionType, name string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if c.Has(t, name) {
		return invalid("name", ErrDuplicateCategory)
	}
	return nil
}
