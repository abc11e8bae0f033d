package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionTypeValidate(t *testing.T) {
	cases := []struct {
		t  TransactionType
		ok bool
	}{
		{Income, true},
		{Expense, true},
		{"", false},
		{"ingreso", false},
	}
	for i, tc := range cases {
		err := tc.t.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidType) {
			t.Fatalf("case %d expected ErrInvalidType, got %v", i, err)
		}
	}
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Expense ")
	if err != nil || got != Expense {
		t.Fatalf("expected expense, got %q (err=%v)", got, err)
	}
	if _, err := ParseType("transfer"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Type:     Income,
		Amount:   decimal.NewFromInt(100),
		Category: "Salary",
		Date:     "2024-01-01",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	accented := good
	accented.Description = strings.Repeat("ñ", maxDescriptionLen)
	if err := accented.Validate(); err != nil {
		t.Fatalf("%d multibyte characters should be accepted, got %v", maxDescriptionLen, err)
	}
	accented.Description += "é"
	if err := accented.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong past %d characters, got %v", maxDescriptionLen, err)
	}

	bads := []struct {
		n    NewTransaction
		want error
	}{
		{NewTransaction{Type: "x", Amount: decimal.NewFromInt(1), Category: "c"}, ErrInvalidType},
		{NewTransaction{Type: Income, Amount: decimal.Zero, Category: "c"}, ErrInvalidAmount},
		{NewTransaction{Type: Income, Amount: decimal.NewFromInt(-5), Category: "c"}, ErrInvalidAmount},
		{NewTransaction{Type: Expense, Amount: decimal.NewFromInt(1), Category: "  "}, ErrEmptyCategory},
		{NewTransaction{Type: Expense, Amount: decimal.NewFromInt(1), Category: "c", Description: strings.Repeat("a", 201)}, ErrDescriptionTooLong},
	}
	for i, tc := range bads {
		err := tc.n.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation in chain", i)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field == "" {
			t.Fatalf("case %d expected ValidationError with field, got %v", i, err)
		}
	}
}

func TestNewTransactionNormalize(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	n := NewTransaction{Category: " Food ", Description: "  lunch "}.Normalize(now)
	if n.Category != "Food" || n.Description != "lunch" {
		t.Fatalf("expected trimmed fields, got %+v", n)
	}
	if n.Date != "2024-03-09" {
		t.Fatalf("expected default date, got %q", n.Date)
	}

	n = NewTransaction{Date: "yesterday"}.Normalize(now)
	if n.Date != "yesterday" {
		t.Fatalf("free-form date should be kept, got %q", n.Date)
	}
}
