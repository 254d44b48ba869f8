package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContinuousSlug(t *testing.T) {
	tests := []struct {
		slug       string
		wantPrefix string
		wantTS     int64
		wantOK     bool
	}{
		{"btc-updown-15m-1770093900", "btc-updown-15m", 1770093900, true},
		{"eth-hourly-1700000000", "eth-hourly", 1700000000, true},
		{"x-1", "x", 1, true},
		{"no-timestamp-here", "", 0, false},
		{"1770093900", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			prefix, ts, ok := ParseContinuousSlug(tt.slug)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantTS, ts)
		})
	}
}

func TestSortMarketsBySlugTime(t *testing.T) {
	markets := []Market{
		{ClobTokenID: "c", MarketSlug: "btc-updown-15m-1700000300"},
		{ClobTokenID: "a", MarketSlug: "btc-updown-15m-1700000100"},
		{ClobTokenID: "x", MarketSlug: "not-a-continuous-slug"},
		{ClobTokenID: "b", MarketSlug: "btc-updown-15m-1700000200"},
	}

	sorted := sortMarketsBySlugTime(markets, 0)
	require.Len(t, sorted, 3, "unparseable slugs are dropped")
	assert.Equal(t, "a", sorted[0].ClobTokenID)
	assert.Equal(t, "b", sorted[1].ClobTokenID)
	assert.Equal(t, "c", sorted[2].ClobTokenID)
}

func TestSortMarketsBySlugTimeKeepsMostRecent(t *testing.T) {
	markets := []Market{
		{ClobTokenID: "a", MarketSlug: "m-100"},
		{ClobTokenID: "b", MarketSlug: "m-200"},
		{ClobTokenID: "c", MarketSlug: "m-300"},
	}

	sorted := sortMarketsBySlugTime(markets, 2)
	require.Len(t, sorted, 2)
	assert.Equal(t, "b", sorted[0].ClobTokenID)
	assert.Equal(t, "c", sorted[1].ClobTokenID)
}

func TestTradeTableName(t *testing.T) {
	name, err := tradeTableName("0x12345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "hist_trades_0x1234567890123", name)

	name, err = tradeTableName("short")
	require.NoError(t, err)
	assert.Equal(t, "hist_trades_short", name)

	_, err = tradeTableName("bad;drop table")
	require.Error(t, err)

	_, err = tradeTableName("")
	require.Error(t, err)
}
