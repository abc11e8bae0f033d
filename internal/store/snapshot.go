package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/kv"
)

func encodeTransactions(txs []core.Transaction) (string, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.Marshal(txs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTransactions(raw string) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kv.KeyTransactions, err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

func encodeCategories(c core.Categories) string {
	if c.Income == nil {
		c.Income = []string{}
	}
	if c.Expense == nil {
		c.Expense = []string{}
	}
	// A struct of string slices always marshals.
	b, _ := json.Marshal(c)
	return string(b)
}

// decodeCategories fills a list missing from the snapshot with its default.
// An explicitly empty list stays empty.
func decodeCategories(raw string) (core.Categories, error) {
	var c core.Categories
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return core.Categories{}, fmt.Errorf("decode %s: %w", kv.KeyCategories, err)
	}
	def := core.DefaultCategories()
	if c.Income == nil {
		c.Income = def.Income
	}
	if c.Expense == nil {
		c.Expense = def.Expense
	}
	return c, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}
