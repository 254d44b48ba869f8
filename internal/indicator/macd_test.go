package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMACD_WarmupFollowsSlowEMA(t *testing.T) {
	macd := NewMACD(2, 4, 3)

	// MACD line undefined until the slow EMA is seeded (4 samples).
	values := feed(macd, "10", "11", "12")
	for i, v := range values {
		assert.Nil(t, v, "sample %d", i)
	}

	v, ok := macd.Update(d("13"))
	require.True(t, ok)

	// fast EMA(2) after [10,11,12,13]: seed 10.5, m=2/3
	// 12*2/3 + 10.5/3 = 11.5; 13*2/3 + 11.5/3 = 12.5
	// slow EMA(4) seed = (10+11+12+13)/4 = 11.5
	want := d("12.5").Sub(d("11.5"))
	assert.True(t, v.Sub(want).Abs().LessThan(d("0.0000001")), "got %s want %s", v, want)
}

func TestMACD_DerivedOutputs(t *testing.T) {
	macd := NewMACD(2, 4, 2)

	prices := []string{"10", "11", "12", "13", "14", "15", "16"}
	for _, p := range prices {
		macd.Update(d(p))
	}
	require.True(t, macd.Ready())

	derived := macd.Derived()
	sig, ok := derived["signal"]
	require.True(t, ok, "signal line defined after signal EMA warm-up")
	hist, ok := derived["histogram"]
	require.True(t, ok)

	base, _ := macd.Value()
	assert.True(t, hist.Equal(base.Sub(sig)), "histogram = macd - signal")
}

func TestMACD_Reset(t *testing.T) {
	macd := NewMACD(2, 3, 2)
	feed(macd, "10", "11", "12", "13", "14")
	require.True(t, macd.Ready())

	macd.Reset()
	assert.False(t, macd.Ready())
	assert.Empty(t, macd.Derived())
}
