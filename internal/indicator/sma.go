package indicator

import (
	"github.com/shopspring/decimal"
)

// SMA is a simple moving average over a fixed window.
// Window-based: the value depends only on the last period prices.
type SMA struct {
	period  int
	window  []decimal.Decimal
	samples int
	value   decimal.Decimal
}

// NewSMA creates a simple moving average with the given period.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		window: make([]decimal.Decimal, 0, period),
	}
}

func (s *SMA) Type() string      { return "sma" }
func (s *SMA) WarmupPeriod() int { return s.period }
func (s *SMA) Ready() bool       { return s.samples >= s.period }

func (s *SMA) Update(price decimal.Decimal) (decimal.Decimal, bool) {
	if len(s.window) == s.period {
		s.window = append(s.window[:0], s.window[1:]...)
	}
	s.window = append(s.window, price)
	s.samples++

	if !s.Ready() {
		return decimal.Decimal{}, false
	}

	sum := decimal.Zero
	for _, p := range s.window {
		sum = sum.Add(p)
	}
	s.value = sum.Div(decimal.NewFromInt(int64(len(s.window))))
	return s.value, true
}

func (s *SMA) Value() (decimal.Decimal, bool) {
	if !s.Ready() {
		return decimal.Decimal{}, false
	}
	return s.value, true
}

func (s *SMA) Reset() {
	s.window = s.window[:0]
	s.samples = 0
	s.value = decimal.Decimal{}
}
