package indicator

import (
	"github.com/shopspring/decimal"
)

// EMA is an exponential moving average.
//
// Continuous: the current value depends on every price seen since the last
// Reset, not just a recent window. The first value is seeded with the SMA of
// the first period prices, after which the smoothing recurrence applies.
type EMA struct {
	period     int
	multiplier decimal.Decimal
	warmup     []decimal.Decimal
	samples    int
	value      decimal.Decimal
	seeded     bool
}

// NewEMA creates an exponential moving average with smoothing 2/(period+1).
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{
		period:     period,
		multiplier: decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1))),
		warmup:     make([]decimal.Decimal, 0, period),
	}
}

func (e *EMA) Type() string      { return "ema" }
func (e *EMA) WarmupPeriod() int { return e.period }
func (e *EMA) Ready() bool       { return e.seeded }

func (e *EMA) Update(price decimal.Decimal) (decimal.Decimal, bool) {
	e.samples++

	if !e.seeded {
		e.warmup = append(e.warmup, price)
		if len(e.warmup) < e.period {
			return decimal.Decimal{}, false
		}
		sum := decimal.Zero
		for _, p := range e.warmup {
			sum = sum.Add(p)
		}
		e.value = sum.Div(decimal.NewFromInt(int64(e.period)))
		e.seeded = true
		e.warmup = e.warmup[:0]
		return e.value, true
	}

	// value = price*m + prev*(1-m)
	e.value = price.Mul(e.multiplier).Add(e.value.Mul(decimal.NewFromInt(1).Sub(e.multiplier)))
	return e.value, true
}

func (e *EMA) Value() (decimal.Decimal, bool) {
	if !e.seeded {
		return decimal.Decimal{}, false
	}
	return e.value, true
}

func (e *EMA) Reset() {
	e.warmup = e.warmup[:0]
	e.samples = 0
	e.value = decimal.Decimal{}
	e.seeded = false
}
