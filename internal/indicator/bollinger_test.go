package indicator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollinger_Bands(t *testing.T) {
	bb := NewBollinger(4, decimal.NewFromInt(2))

	values := feed(bb, "10", "12", "14", "16")
	require.NotNil(t, values[3])

	// middle = 13, population variance = (9+1+1+9)/4 = 5
	assert.True(t, values[3].Equal(d("13")), "middle band, got %s", values[3])

	derived := bb.Derived()
	upper := derived["upper"]
	lower := derived["lower"]

	// std = sqrt(5) ~ 2.2360679...; upper ~ 17.472, lower ~ 8.528
	assert.InDelta(t, 17.4721, upper.InexactFloat64(), 0.001)
	assert.InDelta(t, 8.5279, lower.InexactFloat64(), 0.001)
	assert.True(t, derived["middle"].Equal(d("13")))
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	bb := NewBollinger(3, decimal.NewFromInt(2))
	feed(bb, "0.5", "0.5", "0.5")

	derived := bb.Derived()
	assert.True(t, derived["upper"].Equal(d("0.5")), "zero variance: bands collapse to the mean")
	assert.True(t, derived["lower"].Equal(d("0.5")))
}

func TestBollinger_NotReadyBeforeWindowFull(t *testing.T) {
	bb := NewBollinger(5, decimal.NewFromInt(2))
	feed(bb, "1", "2", "3", "4")

	assert.False(t, bb.Ready())
	assert.Empty(t, bb.Derived())
}
