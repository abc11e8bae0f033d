package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/store"
)

type fakeConsumer struct {
	msgs []*amqp.ChangeMessage
	err  error
}

func (f *fakeConsumer) ConsumeChanges(ctx context.Context, _ string, handler amqp.ChangeHandler) error {
	for _, m := range f.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

var at = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func TestFormatChange(t *testing.T) {
	tests := []struct {
		name   string
		change store.Change
		want   string
	}{
		{
			name:   "transaction",
			change: store.Change{Kind: store.ChangeTransactionAdded, TransactionID: "t1", Type: core.Expense, Category: "Food", Transactions: 3, Categories: core.DefaultCategories(), At: at},
			want:   "2024-06-01T08:30:00Z transaction_added id=t1 type=expense category=Food transactions=3 categories=4/6",
		},
		{
			name:   "category",
			change: store.Change{Kind: store.ChangeCategoryAdded, Type: core.Income, Category: "Gifts", Categories: core.DefaultCategories().With(core.Income, "Gifts"), At: at},
			want:   "2024-06-01T08:30:00Z category_added type=income category=Gifts transactions=0 categories=5/6",
		},
		{
			name:   "unsaved load",
			change: store.Change{Kind: store.ChangeLoaded, PersistErr: errors.New("x"), At: at},
			want:   "2024-06-01T08:30:00Z loaded transactions=0 categories=0/0 UNSAVED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatChange(amqp.NewChangeMessage(tt.change)))
		})
	}
}

func TestChangeWatcherRun(t *testing.T) {
	var out bytes.Buffer
	w := NewChangeWatcher(&out, nil)

	c := &fakeConsumer{msgs: []*amqp.ChangeMessage{
		amqp.NewChangeMessage(store.Change{Kind: store.ChangeTransactionAdded, TransactionID: "a", At: at}),
		amqp.NewChangeMessage(store.Change{Kind: store.ChangeTransactionAdded, TransactionID: "b", At: at, PersistErr: errors.New("disk")}),
		amqp.NewChangeMessage(store.Change{Kind: store.ChangeTransactionDeleted, TransactionID: "a", At: at}),
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx, c, ""))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, map[string]int{"transaction_added": 2, "transaction_deleted": 1}, w.Counts())
	assert.Equal(t, 1, w.Unsaved())
}

func TestChangeWatcherRunError(t *testing.T) {
	w := NewChangeWatcher(&bytes.Buffer{}, nil)
	err := w.Run(context.Background(), &fakeConsumer{err: errors.New("message channel closed")}, "q")
	assert.EqualError(t, err, "message channel closed")
}
