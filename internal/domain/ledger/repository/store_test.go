package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/pkg/db"
)

func sampleTable() *ledger.Table {
	return &ledger.Table{
		Columns: []string{"data", "tipo", "categoria", "valor", "descricao"},
		Records: []ledger.Record{
			{
				Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Type:     ledger.StringPtr("Receita"),
				Category: ledger.StringPtr("Vendas"),
				Amount:   decimal.RequireFromString("1000.50"),
				Extra:    map[string]string{"descricao": "pedido 42"},
			},
			{
				Date:   time.Date(2024, 2, 3, 14, 30, 0, 0, time.UTC),
				Type:   ledger.StringPtr("Despesa"),
				Amount: decimal.RequireFromString("-300"),
			},
		},
	}
}

func assertSameTable(t *testing.T, want, got *ledger.Table) {
	t.Helper()
	assert.Equal(t, want.Columns, got.Columns)
	require.Len(t, got.Records, len(want.Records))
	for i := range want.Records {
		w, g := want.Records[i], got.Records[i]
		assert.True(t, w.Date.Equal(g.Date), "record %d date: want %s got %s", i, w.Date, g.Date)
		assert.Equal(t, w.Type, g.Type, "record %d tipo", i)
		assert.Equal(t, w.Category, g.Category, "record %d categoria", i)
		assert.True(t, w.Amount.Equal(g.Amount), "record %d valor: want %s got %s", i, w.Amount, g.Amount)
		assert.Equal(t, w.Extra, g.Extra, "record %d extra", i)
	}
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewSQLiteStore(sqlDB)
}

// storeContract runs the behaviour every Store implementation shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		want := sampleTable()
		require.NoError(t, store.WriteTable(ctx, "s1", want))

		got, err := store.ReadTable(ctx, "s1")
		require.NoError(t, err)
		assertSameTable(t, want, got)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := newStore(t)
		_, err := store.ReadTable(ctx, "missing")
		assert.True(t, errors.Is(err, ledger.ErrNotFound))
	})

	t.Run("write replaces previous table", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteTable(ctx, "s1", sampleTable()))

		replacement := &ledger.Table{
			Columns: []string{"data", "valor"},
			Records: []ledger.Record{{
				Date:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
				Amount: decimal.NewFromInt(7),
			}},
		}
		require.NoError(t, store.WriteTable(ctx, "s1", replacement))

		got, err := store.ReadTable(ctx, "s1")
		require.NoError(t, err)
		assertSameTable(t, replacement, got)
	})

	t.Run("empty table keeps its columns", func(t *testing.T) {
		store := newStore(t)
		empty := &ledger.Table{Columns: []string{"data", "tipo", "categoria"}}
		require.NoError(t, store.WriteTable(ctx, "s1", empty))

		got, err := store.ReadTable(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, empty.Columns, got.Columns)
		assert.Empty(t, got.Records)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteTable(ctx, "a", sampleTable()))
		require.NoError(t, store.WriteTable(ctx, "b", &ledger.Table{Columns: []string{"valor"}}))

		a, err := store.ReadTable(ctx, "a")
		require.NoError(t, err)
		assert.Len(t, a.Records, 2)

		b, err := store.ReadTable(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, b.Records)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return newSQLiteStore(t) })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	table := sampleTable()
	require.NoError(t, store.WriteTable(ctx, "s1", table))

	*table.Records[0].Type = "Despesa"
	table.Records[0].Extra["descricao"] = "changed"

	got, err := store.ReadTable(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Receita", *got.Records[0].Type)
	assert.Equal(t, "pedido 42", got.Records[0].Extra["descricao"])
}

func TestPurgeBefore(t *testing.T) {
	ctx := context.Background()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)
	cutoff := old.Add(24 * time.Hour)

	t.Run("memory", func(t *testing.T) {
		store := NewMemoryStore()
		store.now = func() time.Time { return old }
		require.NoError(t, store.WriteTable(ctx, "old", sampleTable()))
		store.now = func() time.Time { return recent }
		require.NoError(t, store.WriteTable(ctx, "recent", sampleTable()))

		purged, err := store.PurgeBefore(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)

		_, err = store.ReadTable(ctx, "old")
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		_, err = store.ReadTable(ctx, "recent")
		assert.NoError(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		store := newSQLiteStore(t)
		store.now = func() time.Time { return old }
		require.NoError(t, store.WriteTable(ctx, "old", sampleTable()))
		store.now = func() time.Time { return recent }
		require.NoError(t, store.WriteTable(ctx, "recent", sampleTable()))

		purged, err := store.PurgeBefore(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)

		_, err = store.ReadTable(ctx, "old")
		assert.ErrorIs(t, err, ledger.ErrNotFound)

		got, err := store.ReadTable(ctx, "recent")
		require.NoError(t, err)
		assert.Len(t, got.Records, 2)
	})
}
