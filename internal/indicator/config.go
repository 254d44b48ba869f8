package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// Config is the declarative description of one indicator. Immutable once a
// backtest run starts.
type Config struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// SMA/EMA/RSI/Bollinger
	Period int `json:"period,omitempty"`

	// MACD
	FastPeriod   int `json:"fast_period,omitempty"`
	SlowPeriod   int `json:"slow_period,omitempty"`
	SignalPeriod int `json:"signal_period,omitempty"`

	// Bollinger
	NumStd string `json:"num_std,omitempty"`
}

// New constructs an indicator from its declarative configuration.
func New(cfg Config) (Indicator, error) {
	switch cfg.Type {
	case "sma":
		if cfg.Period < 1 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("sma %q: period must be >= 1", cfg.Name))
		}
		return NewSMA(cfg.Period), nil

	case "ema":
		if cfg.Period < 1 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("ema %q: period must be >= 1", cfg.Name))
		}
		return NewEMA(cfg.Period), nil

	case "rsi":
		if cfg.Period < 1 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("rsi %q: period must be >= 1", cfg.Name))
		}
		return NewRSI(cfg.Period), nil

	case "macd":
		fast, slow, signal := cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod
		if fast == 0 {
			fast = 12
		}
		if slow == 0 {
			slow = 26
		}
		if signal == 0 {
			signal = 9
		}
		if fast >= slow {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("macd %q: fast_period must be < slow_period", cfg.Name))
		}
		return NewMACD(fast, slow, signal), nil

	case "bollinger":
		period := cfg.Period
		if period == 0 {
			period = 20
		}
		if period < 2 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("bollinger %q: period must be >= 2", cfg.Name))
		}
		numStd := decimal.NewFromInt(2)
		if cfg.NumStd != "" {
			parsed, err := decimal.NewFromString(cfg.NumStd)
			if err != nil || !parsed.IsPositive() {
				return nil, core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("bollinger %q: invalid num_std %q", cfg.Name, cfg.NumStd))
			}
			numStd = parsed
		}
		return NewBollinger(period, numStd), nil

	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown indicator type %q", cfg.Type))
	}
}
