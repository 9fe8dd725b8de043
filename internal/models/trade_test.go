package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrade() Trade {
	return Trade{
		Symbol:     "AAPL",
		Side:       SideBuy,
		Qty:        10,
		EntryPrice: 100,
		EntryTime:  "2024-01-01T10:00:00Z",
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tr := validTrade()
		assert.NoError(t, tr.Validate())
	})

	t.Run("EmptySymbol", func(t *testing.T) {
		tr := validTrade()
		tr.Symbol = "  "
		err := tr.Validate()
		require.Error(t, err)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "symbol", vErr.Field)
	})

	t.Run("BadSide", func(t *testing.T) {
		tr := validTrade()
		tr.Side = "hold"
		assert.Error(t, tr.Validate())
	})

	t.Run("NonPositiveQty", func(t *testing.T) {
		tr := validTrade()
		tr.Qty = 0
		assert.Error(t, tr.Validate())
	})

	t.Run("MissingEntryTime", func(t *testing.T) {
		tr := validTrade()
		tr.EntryTime = ""
		assert.Error(t, tr.Validate())
	})

	t.Run("BadLeg", func(t *testing.T) {
		tr := validTrade()
		tr.Legs = []Leg{{Symbol: "AAPL", Side: SideBuy, Qty: 0, Price: 100}}
		assert.Error(t, tr.Validate())
	})
}

func TestNormalizeMirrorsFirstLeg(t *testing.T) {
	tr := validTrade()
	tr.Legs = []Leg{
		{Symbol: "SPY", Side: SideSell, Qty: 2, Price: 450},
		{Symbol: "QQQ", Side: SideBuy, Qty: 1, Price: 380},
	}

	tr.Normalize()

	assert.Equal(t, "SPY", tr.Symbol)
	assert.Equal(t, SideSell, tr.Side)
	assert.Equal(t, 2.0, tr.Qty)
	assert.Equal(t, 450.0, tr.EntryPrice)
}

func TestNormalizeWithoutLegsIsNoop(t *testing.T) {
	tr := validTrade()
	tr.Normalize()
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, 100.0, tr.EntryPrice)
}

func TestTagList(t *testing.T) {
	tr := validTrade()

	tr.Tags = "scalp, momentum , ,"
	assert.Equal(t, []string{"scalp", "momentum"}, tr.TagList())

	tr.Tags = ""
	assert.Nil(t, tr.TagList())
}

func TestMerge(t *testing.T) {
	t.Run("UnspecifiedFieldsKeepPriorValues", func(t *testing.T) {
		existing := validTrade()
		existing.ID = 42
		existing.Notes = "keep me"

		merged, err := Merge(existing, map[string]any{"symbol": "TSLA"}, 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), merged.ID)
		assert.Equal(t, "TSLA", merged.Symbol)
		assert.Equal(t, "keep me", merged.Notes)
		assert.Equal(t, 10.0, merged.Qty)
	})

	t.Run("PatchIDIsIgnored", func(t *testing.T) {
		existing := validTrade()
		existing.ID = 42

		merged, err := Merge(existing, map[string]any{"id": 999, "notes": "x"}, 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), merged.ID)
	})

	t.Run("NullClearsOptionalField", func(t *testing.T) {
		existing := validTrade()
		exit := 110.0
		existing.ExitPrice = &exit

		merged, err := Merge(existing, map[string]any{"exit_price": nil}, existing.ID)

		require.NoError(t, err)
		assert.Nil(t, merged.ExitPrice)
	})

	t.Run("MismatchedTypeIsValidationError", func(t *testing.T) {
		existing := validTrade()

		_, err := Merge(existing, map[string]any{"qty": "lots"}, existing.ID)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("MergedRecordIsRevalidated", func(t *testing.T) {
		existing := validTrade()

		_, err := Merge(existing, map[string]any{"qty": -5}, existing.ID)

		assert.Error(t, err)
	})
}
