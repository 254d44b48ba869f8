package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/indicator"
	"github.com/polyquant/backtester/internal/rule"
)

// Config is the tagged union describing any strategy. StrategyType selects
// the variant; only the fields for that variant are consulted. Decimal
// fields travel as strings so JSON round-trips never lose precision.
type Config struct {
	StrategyType string `json:"strategy_type"`

	OrderSize      string `json:"order_size,omitempty"`
	InitialBalance string `json:"initial_balance,omitempty"`

	// Grid
	GridSize            int    `json:"grid_size,omitempty"`
	GridSpacing         string `json:"grid_spacing,omitempty"`
	ProtectionThreshold *int   `json:"protection_threshold,omitempty"`

	// Momentum
	LookbackWindow    int    `json:"lookback_window,omitempty"`
	MomentumThreshold string `json:"momentum_threshold,omitempty"`

	// Custom
	Indicators []indicator.Config `json:"indicators,omitempty"`
	BuyRules   []rule.Rule        `json:"buy_rules,omitempty"`
	SellRules  []rule.Rule        `json:"sell_rules,omitempty"`
}

const (
	defaultOrderSize         = "100"
	defaultInitialBalance    = "10000"
	defaultGridSize          = 5
	defaultGridSpacing       = "0.01"
	defaultLookbackWindow    = 10
	defaultMomentumThreshold = "0.005"
)

// FromConfig constructs the strategy a Config describes, applying defaults
// and rejecting out-of-range parameters before any data is touched.
func FromConfig(cfg Config) (Strategy, error) {
	orderSize, err := parsePositive(cfg.OrderSize, defaultOrderSize, "order_size")
	if err != nil {
		return nil, err
	}
	initialBalance, err := parsePositive(cfg.InitialBalance, defaultInitialBalance, "initial_balance")
	if err != nil {
		return nil, err
	}

	switch cfg.StrategyType {
	case "grid":
		gridSize := cfg.GridSize
		if gridSize == 0 {
			gridSize = defaultGridSize
		}
		if gridSize < 1 || gridSize > 20 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("grid_size %d out of range [1,20]", gridSize))
		}
		spacing, err := parsePositive(cfg.GridSpacing, defaultGridSpacing, "grid_spacing")
		if err != nil {
			return nil, err
		}
		if spacing.GreaterThan(one) {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("grid_spacing %s out of range (0,1]", spacing))
		}
		if cfg.ProtectionThreshold != nil {
			t := *cfg.ProtectionThreshold
			if t < 1 || t > 10 {
				return nil, core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("protection_threshold %d out of range [1,10]", t))
			}
		}
		return NewGrid(gridSize, spacing, orderSize, initialBalance, cfg.ProtectionThreshold), nil

	case "momentum":
		lookback := cfg.LookbackWindow
		if lookback == 0 {
			lookback = defaultLookbackWindow
		}
		if lookback < 1 || lookback > 1000 {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("lookback_window %d out of range [1,1000]", lookback))
		}
		threshold, err := parsePositive(cfg.MomentumThreshold, defaultMomentumThreshold, "momentum_threshold")
		if err != nil {
			return nil, err
		}
		return NewMomentum(lookback, threshold, orderSize, initialBalance), nil

	case "custom":
		return NewCustom(cfg.Indicators, cfg.BuyRules, cfg.SellRules, orderSize, initialBalance)

	case "":
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("strategy_type is required"))

	default:
		return nil, core.WrapError(core.ErrStrategyNotFound,
			fmt.Errorf("unknown strategy_type %q", cfg.StrategyType))
	}
}

func parsePositive(raw, fallback, field string) (decimal.Decimal, error) {
	if raw == "" {
		raw = fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s: invalid decimal %q", field, raw))
	}
	if !v.IsPositive() {
		return decimal.Zero, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must be positive, got %s", field, v))
	}
	return v, nil
}
