package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/strategy"
)

// buildStatistics summarizes a finished run from the strategy's trade log
// and the per-tick equity records.
func buildStatistics(strat strategy.Strategy, records []TickRecord) Statistics {
	trades := strat.State().Trades
	initial := strat.InitialBalance()

	var winning, losing int
	for _, t := range trades {
		if t.IsWin() {
			winning++
		} else {
			losing++
		}
	}
	var winRate float64
	if len(trades) > 0 {
		winRate = float64(winning) / float64(len(trades))
	}

	finalEquity := initial
	if len(records) > 0 {
		finalEquity = records[len(records)-1].Equity
	}
	totalPnL := finalEquity.Sub(initial)
	totalReturnPct := totalPnL.Div(initial).Mul(decimal.NewFromInt(100)).InexactFloat64()

	maxDD, maxDDPct := maxDrawdown(records)

	return Statistics{
		StrategyName:   strat.Name(),
		InitialBalance: initial,
		FinalEquity:    finalEquity,
		TotalPnL:       totalPnL,
		TotalReturnPct: totalReturnPct,
		TotalTrades:    len(trades),
		WinningTrades:  winning,
		LosingTrades:   losing,
		WinRate:        winRate,
		MaxDrawdown:    maxDD,
		MaxDrawdownPct: maxDDPct,
		SharpeRatio:    sharpeRatio(records),
	}
}

// maxDrawdown finds the largest peak-to-trough equity decline, in currency
// and as a percentage of the highest peak.
func maxDrawdown(records []TickRecord) (decimal.Decimal, float64) {
	if len(records) == 0 {
		return decimal.Zero, 0
	}

	peak := records[0].Equity
	highestPeak := peak
	maxDD := decimal.Zero

	for _, rec := range records {
		if rec.Equity.GreaterThan(peak) {
			peak = rec.Equity
		}
		if peak.GreaterThan(highestPeak) {
			highestPeak = peak
		}
		dd := peak.Sub(rec.Equity)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}

	var pct float64
	if highestPeak.IsPositive() {
		pct = maxDD.Div(highestPeak).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return maxDD, pct
}

// sharpeRatio is mean over standard deviation of per-tick equity returns.
// Nil when fewer than two returns exist or the returns never vary.
func sharpeRatio(records []TickRecord) *float64 {
	if len(records) < 3 {
		return nil
	}

	returns := make([]float64, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		prev := records[i-1].Equity
		if prev.IsZero() {
			continue
		}
		r := records[i].Equity.Sub(prev).Div(prev).InexactFloat64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return nil
	}

	sharpe := mean / stdDev
	return &sharpe
}
