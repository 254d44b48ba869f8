package indicator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Bollinger computes Bollinger bands over a fixed window.
//
// Window-based. The primary value is the middle band (SMA); the upper and
// lower bands sit numStd population standard deviations away and are exposed
// as derived outputs "upper", "lower" and "middle".
type Bollinger struct {
	period  int
	numStd  decimal.Decimal
	window  []decimal.Decimal
	samples int

	middle decimal.Decimal
	upper  *decimal.Decimal
	lower  *decimal.Decimal
}

// NewBollinger creates a Bollinger band indicator.
func NewBollinger(period int, numStd decimal.Decimal) *Bollinger {
	if period < 2 {
		period = 2
	}
	if numStd.IsZero() {
		numStd = decimal.NewFromInt(2)
	}
	return &Bollinger{
		period: period,
		numStd: numStd,
		window: make([]decimal.Decimal, 0, period),
	}
}

func (b *Bollinger) Type() string      { return "bollinger" }
func (b *Bollinger) WarmupPeriod() int { return b.period }
func (b *Bollinger) Ready() bool       { return b.samples >= b.period }

func (b *Bollinger) Update(price decimal.Decimal) (decimal.Decimal, bool) {
	if len(b.window) == b.period {
		b.window = append(b.window[:0], b.window[1:]...)
	}
	b.window = append(b.window, price)
	b.samples++

	if !b.Ready() {
		return decimal.Decimal{}, false
	}

	periodDec := decimal.NewFromInt(int64(b.period))
	sma := sumDecimals(b.window).Div(periodDec)
	b.middle = sma

	variance := decimal.Zero
	for _, p := range b.window {
		d := p.Sub(sma)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(periodDec)
	stdDev := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))

	spread := stdDev.Mul(b.numStd)
	upper := sma.Add(spread)
	lower := sma.Sub(spread)
	b.upper, b.lower = &upper, &lower

	return b.middle, true
}

func (b *Bollinger) Value() (decimal.Decimal, bool) {
	if !b.Ready() {
		return decimal.Decimal{}, false
	}
	return b.middle, true
}

// Derived exposes the band values once the window is full.
func (b *Bollinger) Derived() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, 3)
	if b.upper != nil {
		out["upper"] = *b.upper
		out["lower"] = *b.lower
		out["middle"] = b.middle
	}
	return out
}

func (b *Bollinger) Reset() {
	b.window = b.window[:0]
	b.samples = 0
	b.middle = decimal.Decimal{}
	b.upper = nil
	b.lower = nil
}
