package indicator

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RSI is the relative strength index with Wilder smoothing.
//
// Continuous: average gain and loss are exponentially smoothed after the
// initial simple average. Needs period+1 prices before the first value,
// since the first price yields no change. Output is clamped to [0, 100].
type RSI struct {
	period    int
	samples   int
	prevPrice *decimal.Decimal
	avgGain   *decimal.Decimal
	avgLoss   *decimal.Decimal
	gains     []decimal.Decimal
	losses    []decimal.Decimal
	value     decimal.Decimal
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) *RSI {
	if period < 1 {
		period = 1
	}
	return &RSI{period: period}
}

func (r *RSI) Type() string      { return "rsi" }
func (r *RSI) WarmupPeriod() int { return r.period + 1 }
func (r *RSI) Ready() bool       { return r.avgGain != nil }

func (r *RSI) Update(price decimal.Decimal) (decimal.Decimal, bool) {
	r.samples++

	if r.prevPrice == nil {
		p := price
		r.prevPrice = &p
		return decimal.Decimal{}, false
	}

	change := price.Sub(*r.prevPrice)
	p := price
	r.prevPrice = &p

	gain := decimal.Zero
	loss := decimal.Zero
	if change.IsPositive() {
		gain = change
	} else if change.IsNegative() {
		loss = change.Neg()
	}

	periodDec := decimal.NewFromInt(int64(r.period))

	if r.avgGain == nil {
		r.gains = append(r.gains, gain)
		r.losses = append(r.losses, loss)
		if len(r.gains) < r.period {
			return decimal.Decimal{}, false
		}
		ag := sumDecimals(r.gains).Div(periodDec)
		al := sumDecimals(r.losses).Div(periodDec)
		r.avgGain, r.avgLoss = &ag, &al
		r.value = r.compute()
		return r.value, true
	}

	// Wilder smoothing: avg = (avg*(period-1) + x) / period
	ag := r.avgGain.Mul(periodDec.Sub(decimal.NewFromInt(1))).Add(gain).Div(periodDec)
	al := r.avgLoss.Mul(periodDec.Sub(decimal.NewFromInt(1))).Add(loss).Div(periodDec)
	r.avgGain, r.avgLoss = &ag, &al

	r.value = r.compute()
	return r.value, true
}

func (r *RSI) compute() decimal.Decimal {
	if r.avgLoss.IsZero() {
		return hundred
	}
	rs := r.avgGain.Div(*r.avgLoss)
	v := hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

func (r *RSI) Value() (decimal.Decimal, bool) {
	if !r.Ready() {
		return decimal.Decimal{}, false
	}
	return r.value, true
}

func (r *RSI) Reset() {
	r.samples = 0
	r.prevPrice = nil
	r.avgGain = nil
	r.avgLoss = nil
	r.gains = nil
	r.losses = nil
	r.value = decimal.Decimal{}
}

func sumDecimals(xs []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum
}
