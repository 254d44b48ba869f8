package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/indicator"
	"github.com/polyquant/backtester/internal/rule"
)

func smaCrossConfig() ([]indicator.Config, []rule.Rule, []rule.Rule) {
	indicators := []indicator.Config{
		{Type: "sma", Name: "sma2", Period: 2},
	}
	buy := []rule.Rule{{
		Conditions: []rule.Condition{{
			Indicator: rule.PriceSeries,
			Operator:  rule.OpGT,
			CompareTo: "sma2",
		}},
	}}
	sell := []rule.Rule{{
		Conditions: []rule.Condition{{
			Indicator: rule.PriceSeries,
			Operator:  rule.OpLT,
			CompareTo: "sma2",
		}},
	}}
	return indicators, buy, sell
}

func TestNewCustomRejectsBadConfig(t *testing.T) {
	_, buy, sell := smaCrossConfig()

	tests := []struct {
		name       string
		indicators []indicator.Config
		buyRules   []rule.Rule
	}{
		{
			name:       "no indicators",
			indicators: nil,
			buyRules:   buy,
		},
		{
			name: "unknown indicator type",
			indicators: []indicator.Config{
				{Type: "vwap", Name: "v", Period: 5},
			},
			buyRules: buy,
		},
		{
			name: "duplicate indicator name",
			indicators: []indicator.Config{
				{Type: "sma", Name: "x", Period: 2},
				{Type: "ema", Name: "x", Period: 3},
			},
			buyRules: buy,
		},
		{
			name: "rule references unknown series",
			indicators: []indicator.Config{
				{Type: "sma", Name: "sma2", Period: 2},
			},
			buyRules: []rule.Rule{{
				Conditions: []rule.Condition{{
					Indicator: "rsi14",
					Operator:  rule.OpGT,
					CompareTo: "sma2",
				}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustom(tt.indicators, tt.buyRules, sell, d("100"), d("10000"))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfigInvalid)
		})
	}
}

func TestCustomIndicatorNameDefaultsToType(t *testing.T) {
	indicators := []indicator.Config{{Type: "sma", Period: 2}}
	buy := []rule.Rule{{
		Conditions: []rule.Condition{{
			Indicator: "sma",
			Operator:  rule.OpGT,
			CompareTo: rule.PriceSeries,
		}},
	}}

	c, err := NewCustom(indicators, buy, nil, d("100"), d("10000"))
	require.NoError(t, err)
	assert.Equal(t, []string{"sma"}, c.IndicatorNames())
}

func TestCustomHoldsDuringWarmup(t *testing.T) {
	indicators, buy, sell := smaCrossConfig()
	c, err := NewCustom(indicators, buy, sell, d("100"), d("10000"))
	require.NoError(t, err)
	c.OnStart()

	orders, err := c.OnTrade(tick(0, "0.60"), nil)
	require.NoError(t, err)
	assert.Empty(t, orders, "sma(2) not ready after one sample")
}

func TestCustomBuysThenSells(t *testing.T) {
	indicators, buy, sell := smaCrossConfig()
	c, err := NewCustom(indicators, buy, sell, d("100"), d("10000"))
	require.NoError(t, err)
	c.OnStart()

	_, err = c.OnTrade(tick(0, "0.50"), nil)
	require.NoError(t, err)

	// sma2 = 0.50 and price = 0.50: strict greater-than does not fire.
	orders, err := c.OnTrade(tick(1, "0.50"), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// price 0.60 > sma2 0.55: buy.
	orders, err = c.OnTrade(tick(2, "0.60"), nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, core.SideBuy, orders[0].Side)
	assert.True(t, orders[0].Size.Equal(d("100")))

	c.State().Position = &core.Position{
		Side:       core.PositionLong,
		EntryPrice: d("0.60"),
		Size:       d("100"),
		EntryTime:  time.Unix(1700000000, 0).UTC(),
	}

	// price 0.40 < sma2 0.50: sell.
	orders, err = c.OnTrade(tick(3, "0.40"), nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, core.SideSell, orders[0].Side)
}

func TestCustomSellRulesIgnoredWhileFlat(t *testing.T) {
	indicators, buy, sell := smaCrossConfig()
	c, err := NewCustom(indicators, buy, sell, d("100"), d("10000"))
	require.NoError(t, err)
	c.OnStart()

	_, err = c.OnTrade(tick(0, "0.50"), nil)
	require.NoError(t, err)

	// price 0.40 < sma2 0.45 would match the sell rule, but there is
	// nothing to sell.
	orders, err := c.OnTrade(tick(1, "0.40"), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCustomCrossoverFiresOnce(t *testing.T) {
	indicators := []indicator.Config{{Type: "sma", Name: "sma2", Period: 2}}
	buy := []rule.Rule{{
		Conditions: []rule.Condition{{
			Indicator: rule.PriceSeries,
			Operator:  rule.OpCrossAbove,
			CompareTo: "sma2",
		}},
	}}

	c, err := NewCustom(indicators, buy, nil, d("100"), d("10000"))
	require.NoError(t, err)
	c.OnStart()

	_, err = c.OnTrade(tick(0, "0.50"), nil)
	require.NoError(t, err)

	// First ready tick has no previous values, so a crossover cannot fire.
	orders, err := c.OnTrade(tick(1, "0.40"), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// price 0.40 <= sma2 0.45 previously, now 0.60 > sma2 0.50: cross.
	orders, err = c.OnTrade(tick(2, "0.60"), nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, core.SideBuy, orders[0].Side)
}

func TestCustomResetClearsIndicatorState(t *testing.T) {
	indicators, buy, sell := smaCrossConfig()
	c, err := NewCustom(indicators, buy, sell, d("100"), d("10000"))
	require.NoError(t, err)
	c.OnStart()

	_, err = c.OnTrade(tick(0, "0.50"), nil)
	require.NoError(t, err)
	_, err = c.OnTrade(tick(1, "0.50"), nil)
	require.NoError(t, err)

	c.Reset()

	// Warmup starts over after a reset.
	orders, err := c.OnTrade(tick(2, "0.90"), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
