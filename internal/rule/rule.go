// Package rule evaluates boolean trading conditions against indicator values.
//
// A strategy's buy or sell decision is the OR of its rules; conditions within
// one rule are ANDed. Conditions compare a named series against a literal
// value or another series, or detect a crossover between two series using the
// current and previous tick.
package rule

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// PriceSeries is the reserved name resolving to the current trade price.
const PriceSeries = "price"

// Operator is a condition comparison operator.
type Operator string

const (
	OpGT         Operator = ">"
	OpLT         Operator = "<"
	OpGTE        Operator = ">="
	OpLTE        Operator = "<="
	OpCrossAbove Operator = "cross_above"
	OpCrossBelow Operator = "cross_below"
)

func (o Operator) valid() bool {
	switch o {
	case OpGT, OpLT, OpGTE, OpLTE, OpCrossAbove, OpCrossBelow:
		return true
	}
	return false
}

// Condition compares one series against a literal value or another series.
// Exactly one of Value and CompareTo must be set.
type Condition struct {
	Indicator string           `json:"indicator"`
	Operator  Operator         `json:"operator"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	CompareTo string           `json:"compare_to_indicator,omitempty"`
}

// Rule is a conjunction of conditions.
type Rule struct {
	Conditions  []Condition `json:"conditions"`
	Description string      `json:"description,omitempty"`
}

// UnmarshalJSON accepts the full conditions form or a single-condition
// shorthand with the condition fields inlined on the rule itself.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Conditions  []Condition      `json:"conditions"`
		Description string           `json:"description"`
		Indicator   string           `json:"indicator"`
		Operator    Operator         `json:"operator"`
		Value       *decimal.Decimal `json:"value"`
		CompareTo   string           `json:"compare_to_indicator"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Conditions = raw.Conditions
	r.Description = raw.Description
	if len(r.Conditions) == 0 && raw.Indicator != "" {
		r.Conditions = []Condition{{
			Indicator: raw.Indicator,
			Operator:  raw.Operator,
			Value:     raw.Value,
			CompareTo: raw.CompareTo,
		}}
	}
	return nil
}

// Values maps a series name to its value at one tick. Absent entries mean the
// series is undefined at that tick (still warming up).
type Values map[string]decimal.Decimal

// Validate checks a rule list against the set of resolvable series names.
// Called once before a run so misconfiguration never reaches the loop.
func Validate(rules []Rule, seriesNames []string) error {
	known := make(map[string]struct{}, len(seriesNames)+1)
	known[PriceSeries] = struct{}{}
	for _, n := range seriesNames {
		known[n] = struct{}{}
	}

	for i, r := range rules {
		if len(r.Conditions) == 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("rule %d has no conditions", i))
		}
		for j, c := range r.Conditions {
			if !c.Operator.valid() {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("rule %d condition %d: unknown operator %q", i, j, c.Operator))
			}
			if (c.Value == nil) == (c.CompareTo == "") {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("rule %d condition %d: exactly one of value and compare_to_indicator must be set", i, j))
			}
			if _, ok := known[c.Indicator]; !ok {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("rule %d condition %d: unknown series %q", i, j, c.Indicator))
			}
			if c.CompareTo != "" {
				if _, ok := known[c.CompareTo]; !ok {
					return core.WrapError(core.ErrConfigInvalid,
						fmt.Errorf("rule %d condition %d: unknown series %q", i, j, c.CompareTo))
				}
			}
		}
	}
	return nil
}

// Match reports whether any rule in the list is satisfied. Undefined series
// values make the affected condition false, never an error.
func Match(rules []Rule, curr, prev Values) bool {
	for _, r := range rules {
		if matchRule(r, curr, prev) {
			return true
		}
	}
	return false
}

func matchRule(r Rule, curr, prev Values) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !matchCondition(c, curr, prev) {
			return false
		}
	}
	return true
}

func matchCondition(c Condition, curr, prev Values) bool {
	left, ok := curr[c.Indicator]
	if !ok {
		return false
	}

	right, ok := c.rightValue(curr)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpGT:
		return left.GreaterThan(right)
	case OpLT:
		return left.LessThan(right)
	case OpGTE:
		return left.GreaterThanOrEqual(right)
	case OpLTE:
		return left.LessThanOrEqual(right)

	case OpCrossAbove, OpCrossBelow:
		prevLeft, ok := prev[c.Indicator]
		if !ok {
			return false
		}
		prevRight, ok := c.rightValue(prev)
		if !ok {
			return false
		}
		if c.Operator == OpCrossAbove {
			// Non-strict before, strict after.
			return prevLeft.LessThanOrEqual(prevRight) && left.GreaterThan(right)
		}
		return prevLeft.GreaterThanOrEqual(prevRight) && left.LessThan(right)
	}

	return false
}

func (c Condition) rightValue(vals Values) (decimal.Decimal, bool) {
	if c.Value != nil {
		return *c.Value, true
	}
	v, ok := vals[c.CompareTo]
	return v, ok
}
