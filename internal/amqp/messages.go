package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/store"
)

// ChangeMessage announces a store change. It carries identifiers and counts only;
// consumers read amounts from their own copy of the ledger.
type ChangeMessage struct {
	Kind              string    `json:"kind"`
	TransactionID     string    `json:"transactionId,omitempty"`
	Type              string    `json:"type,omitempty"`
	Category          string    `json:"category,omitempty"`
	Transactions      int       `json:"transactions"`
	IncomeCategories  int       `json:"incomeCategories"`
	ExpenseCategories int       `json:"expenseCategories"`
	Persisted         bool      `json:"persisted"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewChangeMessage builds the message for a store change
func NewChangeMessage(c store.Change) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Kind:              string(c.Kind),
		TransactionID:     c.TransactionID,
		Type:              c.Type.String(),
		Category:          c.Category,
		Transactions:      c.Transactions,
		IncomeCategories:  len(c.Categories.Income),
		ExpenseCategories: len(c.Categories.Expense),
		Persisted:         c.PersistErr == nil,
		Timestamp:         ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
