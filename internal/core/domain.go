package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the calendar date format used when a transaction has no explicit date.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	TransactionType string

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        string          `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// NewTransaction is the caller-supplied part of a transaction.
	// ID and CreatedAt are assigned by the store.
	NewTransaction struct {
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        string          `json:"date,omitempty"`
	}
)

// ErrValidation matches every validation failure via errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrEmptyName          = errors.New("empty category name")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	ErrNotReady = errors.New("store not initialized")
	ErrPersist  = errors.New("persist snapshot")
)

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{e.Err, ErrValidation}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Types returns the transaction types in display order.
func Types() []TransactionType {
	return []TransactionType{Income, Expense}
}

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return invalid("type", ErrInvalidType)
	}
}

// ParseType accepts "income"/"expense" case-insensitively.
func ParseType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Normalize trims free-text fields and fills the date with today when empty.
func (n NewTransaction) Normalize(now time.Time) NewTransaction {
	n.Category = strings.TrimSpace(n.Category)
	n.Description = strings.TrimSpace(n.Description)
	n.Date = strings.TrimSpace(n.Date)
	if n.Date == "" {
		n.Date = now.Format(DateLayout)
	}
	return n
}

func (n NewTransaction) Validate() error {
	if err := n.Type.Validate(); err != nil {
		return err
	}
	if !n.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(n.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if utf8.RuneCountInString(n.Description) > maxDescriptionLen {
		return invalid("description", ErrDescriptionTooLong)
	}
	return nil
}
