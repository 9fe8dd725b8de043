package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.json")
	return NewFileStore(path, zap.NewNop()), path
}

func sampleTrade() models.Trade {
	return models.Trade{
		Symbol:     "AAPL",
		Side:       models.SideBuy,
		Qty:        10,
		EntryPrice: 100,
		EntryTime:  "2024-01-01T10:00:00Z",
		Tags:       "scalp",
	}
}

func TestMissingFileBootstrapsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	trades, err := store.List()

	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path, zap.NewNop())

	trades, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestCreateThenList(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.Create(sampleTrade())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	trades, err := store.List()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, created, trades[0])
}

func TestCreateAssignsUniqueMonotonicIDs(t *testing.T) {
	store, _ := newTestStore(t)

	var prev int64
	for i := 0; i < 5; i++ {
		created, err := store.Create(sampleTrade())
		require.NoError(t, err)
		assert.Greater(t, created.ID, prev)
		prev = created.ID
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	store, _ := newTestStore(t)

	input := sampleTrade()
	input.Qty = -1

	_, err := store.Create(input)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)

	trades, _ := store.List()
	assert.Empty(t, trades)
}

func TestUpdatePreservesIdentityAndUnsetFields(t *testing.T) {
	store, _ := newTestStore(t)
	created, err := store.Create(sampleTrade())
	require.NoError(t, err)

	updated, err := store.Update(created.ID, map[string]any{
		"id":         999,
		"exit_price": 110.0,
	})

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.Symbol, updated.Symbol)
	assert.Equal(t, created.EntryTime, updated.EntryTime)
	require.NotNil(t, updated.ExitPrice)
	assert.Equal(t, 110.0, *updated.ExitPrice)
}

func TestUpdateUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Update(12345, map[string]any{"notes": "x"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReturnsRemovedRecord(t *testing.T) {
	store, _ := newTestStore(t)
	first, err := store.Create(sampleTrade())
	require.NoError(t, err)
	second, err := store.Create(sampleTrade())
	require.NoError(t, err)

	removed, err := store.Delete(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)

	trades, err := store.List()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, second.ID, trades[0].ID)
}

func TestDeleteUnknownIDAlwaysFails(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Delete(12345)
	assert.ErrorIs(t, err, ErrNotFound)

	// Never a silent success, even on repeat.
	_, err = store.Delete(12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoundTripDurability(t *testing.T) {
	store, path := newTestStore(t)

	first, err := store.Create(sampleTrade())
	require.NoError(t, err)
	second := sampleTrade()
	second.Symbol = "TSLA"
	secondCreated, err := store.Create(second)
	require.NoError(t, err)

	// A fresh store instance on the same document sees the same records in
	// the same order.
	reloaded := NewFileStore(path, zap.NewNop())
	trades, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, first, trades[0])
	assert.Equal(t, secondCreated, trades[1])
}

func TestNoTempFileLeftBehind(t *testing.T) {
	store, path := newTestStore(t)

	_, err := store.Create(sampleTrade())
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLegMirroringIsDerivedOnRead(t *testing.T) {
	store, _ := newTestStore(t)

	input := sampleTrade()
	input.Symbol = "IGNORED"
	input.Legs = []models.Leg{
		{Symbol: "SPY", Side: models.SideSell, Qty: 2, Price: 450},
		{Symbol: "QQQ", Side: models.SideBuy, Qty: 1, Price: 380},
	}

	created, err := store.Create(input)
	require.NoError(t, err)
	assert.Equal(t, "SPY", created.Symbol)
	assert.Equal(t, models.SideSell, created.Side)
	assert.Equal(t, 2.0, created.Qty)
	assert.Equal(t, 450.0, created.EntryPrice)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SPY", got.Symbol)
}

func TestPersistenceFailureRollsBackMemory(t *testing.T) {
	// Point the canonical path at a directory so the atomic rename fails.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.Mkdir(blocked, 0o755))

	store := NewFileStore(blocked, zap.NewNop())

	_, err := store.Create(sampleTrade())

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)

	trades, listErr := store.List()
	require.NoError(t, listErr)
	assert.Empty(t, trades)
}
