// Package worker consumes ledger change events published on the AMQP exchange.
package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/log"
)

// Consumer is the part of the AMQP client the watcher needs.
type Consumer interface {
	ConsumeChanges(ctx context.Context, queue string, handler amqp.ChangeHandler) error
}

// ChangeWatcher writes one line per change event and keeps per-kind counts.
type ChangeWatcher struct {
	out    io.Writer
	logger *log.Logger

	mu         sync.Mutex
	counts     map[string]int
	unsaved    int
	lastChange time.Time
}

func NewChangeWatcher(out io.Writer, logger *log.Logger) *ChangeWatcher {
	if logger == nil {
		logger = log.Discard()
	}
	return &ChangeWatcher{
		out:    out,
		logger: logger.WithComponent(log.ComponentAMQP),
		counts: make(map[string]int),
	}
}

// Run consumes from queue until ctx is done. Cancellation is not an error.
func (w *ChangeWatcher) Run(ctx context.Context, c Consumer, queue string) error {
	err := c.ConsumeChanges(ctx, queue, w.Handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Handle implements amqp.ChangeHandler.
func (w *ChangeWatcher) Handle(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.mu.Lock()
	w.counts[msg.Kind]++
	if !msg.Persisted {
		w.unsaved++
	}
	if msg.Timestamp.After(w.lastChange) {
		w.lastChange = msg.Timestamp
	}
	w.mu.Unlock()

	if !msg.Persisted {
		w.logger.WarnContext(ctx, "Change was not persisted by the publisher",
			"kind", msg.Kind, log.FieldTransactionID, msg.TransactionID)
	}

	_, err := fmt.Fprintln(w.out, FormatChange(msg))
	return err
}

// Counts returns how many events of each kind were handled.
func (w *ChangeWatcher) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// Unsaved returns how many handled events reported a failed snapshot write.
func (w *ChangeWatcher) Unsaved() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unsaved
}

// FormatChange renders a change event as a single line.
func FormatChange(msg *amqp.ChangeMessage) string {
	line := msg.Timestamp.UTC().Format(time.RFC3339) + " " + msg.Kind
	switch {
	case msg.TransactionID != "":
		line += fmt.Sprintf(" id=%s type=%s category=%s", msg.TransactionID, msg.Type, msg.Category)
	case msg.Category != "":
		line += fmt.Sprintf(" type=%s category=%s", msg.Type, msg.Category)
	}
	line += fmt.Sprintf(" transactions=%d categories=%d/%d",
		msg.Transactions, msg.IncomeCategories, msg.ExpenseCategories)
	if !msg.Persisted {
		line += " UNSAVED"
	}
	return line
}
