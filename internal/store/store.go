// Package store owns the authoritative in-memory ledger: transactions and the
// category taxonomy. Every mutation updates memory first and then writes a full
// snapshot of the affected collection to durable key-value storage.
//
// Overlapping writes are not queued. The memory lock is released before the
// snapshot is written, so the durable value is whichever write completes last.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/kv"
	"ledger/internal/log"
)

// DefaultRecentLimit is used by RecentTransactions when limit <= 0.
const DefaultRecentLimit = 5

type ChangeKind string

const (
	ChangeLoaded             ChangeKind = "loaded"
	ChangeTransactionAdded   ChangeKind = "transaction_added"
	ChangeTransactionDeleted ChangeKind = "transaction_deleted"
	ChangeCategoryAdded      ChangeKind = "category_added"
	ChangeCategoryDeleted    ChangeKind = "category_deleted"
)

// Change describes a state update delivered to subscribers.
type Change struct {
	Kind          ChangeKind
	TransactionID string
	Type          core.TransactionType
	Category      string
	Transactions  int
	Categories    core.Categories
	// PersistErr is set when the snapshot write failed; memory still holds the change.
	PersistErr error
	At         time.Time
}

// Subscriber is called synchronously after each change. It must not call back into
// mutating store methods.
type Subscriber func(ctx context.Context, c Change)

type Store struct {
	storage kv.Storage
	logger  *log.Logger
	now     func() time.Time
	newID   func() string

	// initMu serializes Initialize so concurrent callers load once.
	initMu sync.Mutex

	mu           sync.RWMutex
	transactions []core.Transaction
	categories   core.Categories
	ready        bool

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

type Option func(*Store)

// WithClock overrides the time source used for CreatedAt and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

func New(storage kv.Storage, opts ...Option) *Store {
	s := &Store{
		storage:    storage,
		logger:     log.FromContext(context.Background()).WithComponent(log.ComponentStore),
		now:        time.Now,
		newID:      uuid.NewString,
		categories: core.DefaultCategories(),
		subs:       make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads both snapshots concurrently. A missing or unreadable key falls
// back to its default without affecting the other key. Only context cancellation
// makes it fail. Calling it again after success, or while another call is
// loading, is a no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.Ready() {
		return nil
	}

	var (
		txs  []core.Transaction
		cats core.Categories
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs = s.loadTransactions(gctx)
		return nil
	})
	g.Go(func() error {
		cats = s.loadCategories(gctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	s.mu.Lock()
	s.transactions = txs
	s.categories = cats
	s.ready = true
	change := s.changeLocked(ChangeLoaded)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Store initialized",
		log.FieldCount, len(txs),
		"income_categories", len(cats.Income),
		"expense_categories", len(cats.Expense))

	s.publish(ctx, change)
	return nil
}

func (s *Store) loadTransactions(ctx context.Context) []core.Transaction {
	raw, err := s.storage.Get(ctx, kv.KeyTransactions)
	if err != nil {
		s.logLoadFailure(ctx, kv.KeyTransactions, err)
		return []core.Transaction{}
	}
	txs, err := decodeTransactions(raw)
	if err != nil {
		s.logLoadFailure(ctx, kv.KeyTransactions, err)
		return []core.Transaction{}
	}
	s.logSnapshotAge(ctx, kv.KeyTransactions)
	return txs
}

func (s *Store) loadCategories(ctx context.Context) core.Categories {
	raw, err := s.storage.Get(ctx, kv.KeyCategories)
	if err != nil {
		s.logLoadFailure(ctx, kv.KeyCategories, err)
		return core.DefaultCategories()
	}
	cats, err := decodeCategories(raw)
	if err != nil {
		s.logLoadFailure(ctx, kv.KeyCategories, err)
		return core.DefaultCategories()
	}
	s.logSnapshotAge(ctx, kv.KeyCategories)
	return cats
}

// logSnapshotAge logs when key was last saved, for backends that track it.
func (s *Store) logSnapshotAge(ctx context.Context, key string) {
	ts, ok := s.storage.(kv.Timestamper)
	if !ok {
		return
	}
	at, err := ts.UpdatedAt(ctx, key)
	if err != nil {
		return
	}
	s.logger.DebugContext(ctx, "Loaded snapshot", log.FieldKey, key, "updated_at", at.UTC().Format(time.RFC3339))
}

func (s *Store) logLoadFailure(ctx context.Context, key string, err error) {
	if isNotFound(err) {
		s.logger.DebugContext(ctx, "No stored snapshot, using default", log.FieldKey, key)
		return
	}
	fields := log.NewFields().WithKey(key).WithError(err).WithOperation(log.OpLoad)
	s.logger.WarnContext(ctx, "Failed to load snapshot, using default", fields.ToSlice()...)
}

// Ready reports whether Initialize has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// AddTransaction validates in, assigns id and CreatedAt, appends it and persists
// the transaction snapshot. A persistence failure is returned wrapped in
// core.ErrPersist together with the transaction, which stays in memory.
func (s *Store) AddTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	now := s.now()
	in = in.Normalize(now)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrNotReady
	}
	if !s.categories.Has(in.Type, in.Category) {
		s.mu.Unlock()
		return core.Transaction{}, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}
	tx := core.Transaction{
		ID:          s.newID(),
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   now,
	}
	s.transactions = append(s.transactions, tx)
	snapshot := s.transactionsLocked()
	change := s.changeLocked(ChangeTransactionAdded)
	s.mu.Unlock()

	change.TransactionID = tx.ID
	change.Type = tx.Type
	change.Category = tx.Category
	change.PersistErr = s.persistTransactions(ctx, snapshot)

	log.NewStructuredLogger(s.logger).LogTransactionCreated(ctx, tx.ID, tx.Type.String(), tx.Amount.String(), tx.Category)
	s.publish(ctx, change)
	return tx, change.PersistErr
}

// DeleteTransaction removes the first transaction with id. An unknown id leaves
// the collection unchanged and is not an error.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return core.ErrNotReady
	}
	var removed *core.Transaction
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			t := s.transactions[i]
			removed = &t
			s.transactions = append(s.transactions[:i:i], s.transactions[i+1:]...)
			break
		}
	}
	snapshot := s.transactionsLocked()
	change := s.changeLocked(ChangeTransactionDeleted)
	s.mu.Unlock()

	change.TransactionID = id
	if removed != nil {
		change.Type = removed.Type
		change.Category = removed.Category
	}
	change.PersistErr = s.persistTransactions(ctx, snapshot)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpDelete,
		"found", removed != nil)
	s.publish(ctx, change)
	return change.PersistErr
}

// AddCategory appends a trimmed, non-empty, not yet listed name to t's list.
func (s *Store) AddCategory(ctx context.Context, t core.TransactionType, name string) error {
	return s.updateCategories(ctx, ChangeCategoryAdded, t, name, func(c core.Categories, name string) (core.Categories, error) {
		if err := c.ValidateNew(t, name); err != nil {
			return c, err
		}
		return c.With(t, name), nil
	})
}

// DeleteCategory removes every occurrence of name from t's list. Transactions
// referencing it keep the name.
func (s *Store) DeleteCategory(ctx context.Context, t core.TransactionType, name string) error {
	return s.updateCategories(ctx, ChangeCategoryDeleted, t, name, func(c core.Categories, name string) (core.Categories, error) {
		if err := t.Validate(); err != nil {
			return c, err
		}
		return c.Without(t, name), nil
	})
}

func (s *Store) updateCategories(ctx context.Context, kind ChangeKind, t core.TransactionType, name string,
	apply func(core.Categories, string) (core.Categories, error)) error {
	name = trimName(name)

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return core.ErrNotReady
	}
	next, err := apply(s.categories, name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.categories = next
	snapshot := next.Clone()
	change := s.changeLocked(kind)
	s.mu.Unlock()

	change.Type = t
	change.Category = name
	change.PersistErr = s.persist(ctx, kv.KeyCategories, encodeCategories(snapshot))

	s.logger.InfoContext(ctx, "Categories updated",
		"change", string(kind),
		log.FieldType, t.String(),
		log.FieldCategory, name)
	s.publish(ctx, change)
	return change.PersistErr
}

func (s *Store) persistTransactions(ctx context.Context, txs []core.Transaction) error {
	raw, err := encodeTransactions(txs)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", core.ErrPersist, kv.KeyTransactions, err)
	}
	return s.persist(ctx, kv.KeyTransactions, raw)
}

func (s *Store) persist(ctx context.Context, key, raw string) error {
	if err := s.storage.Set(ctx, key, raw); err != nil {
		fields := log.NewFields().WithKey(key).WithError(err).WithOperation(log.OpPersist)
		s.logger.ErrorContext(ctx, "Failed to persist snapshot, memory kept", fields.ToSlice()...)
		return fmt.Errorf("%w: %s: %w", core.ErrPersist, key, err)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a func removing it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(ctx context.Context, c Change) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ctx, c)
	}
}

// changeLocked snapshots counts for a Change. Callers hold s.mu.
func (s *Store) changeLocked(kind ChangeKind) Change {
	return Change{
		Kind:         kind,
		Transactions: len(s.transactions),
		Categories:   s.categories.Clone(),
		At:           s.now(),
	}
}

// transactionsLocked returns a non-nil copy. Callers hold s.mu.
func (s *Store) transactionsLocked() []core.Transaction {
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}
