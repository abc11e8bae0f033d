package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	"ledger/internal/kv"
	"ledger/internal/kv/mocks"
	"ledger/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := FromAppConfig(nil)
		assert.Error(t, err)
	})

	t.Run("invalid backend", func(t *testing.T) {
		_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
		assert.ErrorContains(t, err, "invalid backend type")
	})

	t.Run("copies storage settings", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.DataDir = "seed"

		got, err := FromAppConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, SQLiteBackend, got.Type)
		assert.Equal(t, "./data/ledger.db", got.SQLiteDBPath)
		assert.Equal(t, "seed", got.DataDirectory)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"), []byte(`{"incomeCategories":["Salary"]}`), 0o644))

	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	require.NoError(t, err)
	defer func() { assert.NoError(t, res.Close()) }()

	got, err := res.Storage.Get(context.Background(), kv.KeyCategories)
	require.NoError(t, err)
	assert.JSONEq(t, `{"incomeCategories":["Salary"]}`, got)

	_, err = res.Storage.Get(context.Background(), kv.KeyTransactions)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer func() { assert.NoError(t, res.Close()) }()

	ctx := context.Background()
	require.NoError(t, res.Storage.Set(ctx, kv.KeyTransactions, "[]"))
	got, err := res.Storage.Get(ctx, kv.KeyTransactions)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

func TestCleanupFor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := mocks.NewMockStorage(ctrl)
	assert.Nil(t, cleanupFor(storage), "plain storage has nothing to release")

	closer := mocks.NewMockCloser(ctrl)
	closer.EXPECT().Close().Return(nil).Times(1)

	res := &BackendResult{Storage: storage, Cleanup: cleanupFor(struct {
		kv.Storage
		kv.Closer
	}{storage, closer})}
	require.NotNil(t, res.Cleanup)
	assert.NoError(t, res.Close())
}
