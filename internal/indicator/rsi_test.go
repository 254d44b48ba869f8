package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_WarmupNeedsPeriodPlusOne(t *testing.T) {
	rsi := NewRSI(3)

	values := feed(rsi, "1", "2", "3")
	for i, v := range values {
		assert.Nil(t, v, "no value expected at sample %d", i)
	}

	v, ok := rsi.Update(d("4"))
	require.True(t, ok, "value defined once period+1 samples exist")
	assert.True(t, v.Equal(d("100")), "all gains, no losses: RSI is 100, got %s", v)
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	rsi := NewRSI(3)
	values := feed(rsi, "10", "9", "8", "7")

	require.NotNil(t, values[3])
	assert.True(t, values[3].IsZero(), "all losses: RSI is 0, got %s", values[3])
}

func TestRSI_StaysInRange(t *testing.T) {
	rsi := NewRSI(14)
	prices := []string{
		"0.50", "0.52", "0.48", "0.55", "0.51", "0.49", "0.53", "0.56",
		"0.54", "0.58", "0.52", "0.50", "0.57", "0.59", "0.55", "0.61",
		"0.58", "0.62", "0.57", "0.63",
	}
	for _, p := range prices {
		if v, ok := rsi.Update(d(p)); ok {
			assert.True(t, v.GreaterThanOrEqual(d("0")), "RSI below 0: %s", v)
			assert.True(t, v.LessThanOrEqual(d("100")), "RSI above 100: %s", v)
		}
	}
	assert.True(t, rsi.Ready())
}

func TestRSI_WilderSmoothing(t *testing.T) {
	rsi := NewRSI(2)
	// Changes: +1, -1 -> avgGain = avgLoss = 0.5 -> RS = 1 -> RSI = 50
	values := feed(rsi, "10", "11", "10")
	require.NotNil(t, values[2])
	assert.True(t, values[2].Equal(d("50")), "got %s", values[2])

	// Next change +2: avgGain = (0.5*1 + 2)/2 = 1.25, avgLoss = (0.5*1+0)/2 = 0.25
	// RS = 5, RSI = 100 - 100/6
	v, ok := rsi.Update(d("12"))
	require.True(t, ok)
	want := d("100").Sub(d("100").Div(d("6")))
	assert.True(t, v.Sub(want).Abs().LessThan(d("0.0000001")), "got %s want %s", v, want)
}
