package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// Snapshot holds every indicator output at one tick, keyed by name.
// Derived outputs appear under "<name>_<suffix>" (e.g. "macd_signal").
type Snapshot struct {
	Values map[string]decimal.Decimal
	Ready  map[string]bool
}

// AllReady reports whether every managed indicator has completed warm-up.
func (s Snapshot) AllReady() bool {
	for _, ok := range s.Ready {
		if !ok {
			return false
		}
	}
	return len(s.Ready) > 0
}

// Get returns the value for a name, false if undefined at this tick.
func (s Snapshot) Get(name string) (decimal.Decimal, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// Manager owns a named collection of indicators and updates them in bulk.
// Names must be unique; derived output names are reserved alongside the base
// name. Reset must be called before each run.
type Manager struct {
	names      []string
	indicators map[string]Indicator
}

// NewManager creates an empty indicator manager.
func NewManager() *Manager {
	return &Manager{indicators: make(map[string]Indicator)}
}

// Add registers an indicator under a unique name.
func (m *Manager) Add(name string, ind Indicator) error {
	if name == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("indicator name is empty"))
	}
	if _, exists := m.indicators[name]; exists {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("duplicate indicator name %q", name))
	}
	m.names = append(m.names, name)
	m.indicators[name] = ind
	return nil
}

// Names returns indicator names in registration order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// SeriesNames returns every name resolvable in a snapshot, including derived
// outputs. Used for pre-run rule validation.
func (m *Manager) SeriesNames() []string {
	var out []string
	for _, name := range m.names {
		out = append(out, name)
		switch m.indicators[name].(type) {
		case *MACD:
			out = append(out, name+"_signal", name+"_histogram")
		case *Bollinger:
			out = append(out, name+"_upper", name+"_lower", name+"_middle")
		}
	}
	return out
}

// Len returns the number of managed indicators.
func (m *Manager) Len() int { return len(m.names) }

// Update feeds one price to every indicator and returns the tick snapshot.
func (m *Manager) Update(price decimal.Decimal) Snapshot {
	snap := Snapshot{
		Values: make(map[string]decimal.Decimal, len(m.names)),
		Ready:  make(map[string]bool, len(m.names)),
	}

	for _, name := range m.names {
		ind := m.indicators[name]
		if v, ok := ind.Update(price); ok {
			snap.Values[name] = v
		}
		snap.Ready[name] = ind.Ready()

		if multi, ok := ind.(MultiOutput); ok {
			for suffix, v := range multi.Derived() {
				snap.Values[name+"_"+suffix] = v
			}
		}
	}

	return snap
}

// MaxWarmupPeriod returns the longest warm-up across managed indicators.
func (m *Manager) MaxWarmupPeriod() int {
	max := 0
	for _, ind := range m.indicators {
		if w := ind.WarmupPeriod(); w > max {
			max = w
		}
	}
	return max
}

// Reset clears all indicator state for a fresh run.
func (m *Manager) Reset() {
	for _, ind := range m.indicators {
		ind.Reset()
	}
}
