package indicator

import (
	"github.com/shopspring/decimal"
)

// MACD is moving average convergence divergence, composed of three EMAs.
//
// The primary value is the MACD line (fast EMA - slow EMA). The signal line
// (EMA of the MACD line) and histogram (MACD - signal) are exposed as derived
// outputs with the "signal" and "histogram" suffixes.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int

	fast   *EMA
	slow   *EMA
	signal *EMA

	samples     int
	value       decimal.Decimal
	ready       bool
	signalValue *decimal.Decimal
	histogram   *decimal.Decimal
}

// NewMACD creates a MACD indicator. fast must be smaller than slow.
func NewMACD(fast, slow, signal int) *MACD {
	if fast < 1 {
		fast = 1
	}
	if slow <= fast {
		slow = fast + 1
	}
	if signal < 1 {
		signal = 1
	}
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
		fast:         NewEMA(fast),
		slow:         NewEMA(slow),
		signal:       NewEMA(signal),
	}
}

func (m *MACD) Type() string { return "macd" }

// WarmupPeriod covers the slow EMA plus the signal EMA of the MACD line.
func (m *MACD) WarmupPeriod() int { return m.slowPeriod + m.signalPeriod }

func (m *MACD) Ready() bool { return m.ready }

func (m *MACD) Update(price decimal.Decimal) (decimal.Decimal, bool) {
	m.samples++

	fast, fastOK := m.fast.Update(price)
	slow, slowOK := m.slow.Update(price)
	if !fastOK || !slowOK {
		return decimal.Decimal{}, false
	}

	m.value = fast.Sub(slow)
	m.ready = true

	if sig, ok := m.signal.Update(m.value); ok {
		hist := m.value.Sub(sig)
		m.signalValue = &sig
		m.histogram = &hist
	}

	return m.value, true
}

func (m *MACD) Value() (decimal.Decimal, bool) {
	if !m.ready {
		return decimal.Decimal{}, false
	}
	return m.value, true
}

// Derived exposes the signal line and histogram once defined.
func (m *MACD) Derived() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, 2)
	if m.signalValue != nil {
		out["signal"] = *m.signalValue
	}
	if m.histogram != nil {
		out["histogram"] = *m.histogram
	}
	return out
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.samples = 0
	m.value = decimal.Decimal{}
	m.ready = false
	m.signalValue = nil
	m.histogram = nil
}
