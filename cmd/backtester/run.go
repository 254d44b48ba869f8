package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/polyquant/backtester/internal/backtest"
	"github.com/polyquant/backtester/internal/strategy"
)

var (
	runCSVPath      string
	runStrategyJSON string
	runStrategyFile string
	runFeeRate      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest against a CSV trade file",
	Long: `Run a strategy against trades loaded from a CSV file and print
performance statistics. The CSV must have a price column and either a
block_time or timestamp column.`,
	RunE: runBacktest,
}

func init() {
	runCmd.Flags().StringVar(&runCSVPath, "csv", "", "CSV trade file (required)")
	runCmd.Flags().StringVar(&runStrategyJSON, "strategy", "", "strategy config as inline JSON")
	runCmd.Flags().StringVar(&runStrategyFile, "strategy-file", "", "strategy config JSON file")
	runCmd.Flags().StringVar(&runFeeRate, "fee-rate", "0.001", "taker fee rate")

	runCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(runCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	raw := []byte(runStrategyJSON)
	if runStrategyFile != "" {
		var err error
		raw, err = os.ReadFile(runStrategyFile)
		if err != nil {
			return fmt.Errorf("reading strategy file: %w", err)
		}
	}
	if len(raw) == 0 {
		return fmt.Errorf("either --strategy or --strategy-file is required")
	}

	var cfg strategy.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parsing strategy config: %w", err)
	}

	strat, err := strategy.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("building strategy: %w", err)
	}

	feeRate, err := decimal.NewFromString(runFeeRate)
	if err != nil {
		return fmt.Errorf("invalid fee rate %q: %w", runFeeRate, err)
	}

	trades, err := backtest.LoadTradesCSV(runCSVPath)
	if err != nil {
		return fmt.Errorf("loading trades: %w", err)
	}

	result, err := backtest.New(feeRate).Run(context.Background(), strat, trades)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	printStatistics(result.Statistics, len(trades))
	return nil
}

func printStatistics(stats backtest.Statistics, tickCount int) {
	fmt.Println("=== Backtest Results ===")
	fmt.Printf("Strategy:        %s\n", stats.StrategyName)
	fmt.Printf("Ticks:           %d\n", tickCount)
	fmt.Println()
	fmt.Printf("Initial balance: %s\n", stats.InitialBalance.StringFixed(2))
	fmt.Printf("Final equity:    %s\n", stats.FinalEquity.StringFixed(2))
	fmt.Printf("Total PnL:       %s (%.2f%%)\n", stats.TotalPnL.StringFixed(2), stats.TotalReturnPct)
	fmt.Println()
	fmt.Printf("Trades:          %d (%d won, %d lost)\n", stats.TotalTrades, stats.WinningTrades, stats.LosingTrades)
	fmt.Printf("Win rate:        %.2f%%\n", stats.WinRate*100)
	fmt.Printf("Max drawdown:    %s (%.2f%%)\n", stats.MaxDrawdown.StringFixed(2), stats.MaxDrawdownPct)
	if stats.SharpeRatio != nil {
		fmt.Printf("Sharpe ratio:    %.4f\n", *stats.SharpeRatio)
	} else {
		fmt.Println("Sharpe ratio:    n/a")
	}
}
