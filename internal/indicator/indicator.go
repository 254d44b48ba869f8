// Package indicator provides incremental technical indicators.
//
// Every indicator consumes one price per Update call and never looks past the
// prices it has been fed, so feeding the engine tick by tick keeps the output
// causal. Window indicators (SMA, Bollinger) depend only on the last N prices;
// continuous indicators (EMA, RSI, MACD) carry state across the whole series
// and must be Reset before each run.
package indicator

import "github.com/shopspring/decimal"

// Indicator is the contract shared by all indicators.
type Indicator interface {
	// Type returns the indicator kind, e.g. "sma".
	Type() string

	// WarmupPeriod is the number of samples required before Value is defined.
	WarmupPeriod() int

	// Ready reports whether the warm-up period has completed.
	Ready() bool

	// Update consumes the next price and returns the new value.
	// ok is false while the indicator is still warming up.
	Update(price decimal.Decimal) (value decimal.Decimal, ok bool)

	// Value returns the current value without consuming a price.
	Value() (decimal.Decimal, bool)

	// Reset clears all internal state for a fresh run.
	Reset()
}

// MultiOutput is implemented by indicators that expose derived series
// beyond their primary value, keyed by output suffix ("signal", "upper", ...).
// Entries appear only once the derived series is defined.
type MultiOutput interface {
	Derived() map[string]decimal.Decimal
}
