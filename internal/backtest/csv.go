package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// LoadTradesCSV reads a trade series from a CSV file. The header must name a
// "price" column and a "block_time" or "timestamp" column; a "market_id"
// column is optional. Timestamps may be RFC 3339 or unix seconds.
func LoadTradesCSV(path string) ([]core.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrInputData, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.ErrInputData, err)
	}
	if len(rows) < 1 {
		return nil, core.WrapError(core.ErrInputData,
			fmt.Errorf("%s: missing header row", path))
	}

	priceIdx, timeIdx, marketIdx := -1, -1, -1
	for i, name := range rows[0] {
		switch name {
		case "price":
			priceIdx = i
		case "block_time", "timestamp":
			timeIdx = i
		case "market_id":
			marketIdx = i
		}
	}
	if priceIdx < 0 || timeIdx < 0 {
		return nil, core.WrapError(core.ErrInputData,
			fmt.Errorf("%s: header must include price and block_time columns", path))
	}

	trades := make([]core.Trade, 0, len(rows)-1)
	for n, row := range rows[1:] {
		price, err := decimal.NewFromString(row[priceIdx])
		if err != nil {
			return nil, core.WrapError(core.ErrInputData,
				fmt.Errorf("%s row %d: invalid price %q", path, n+2, row[priceIdx]))
		}

		ts, err := parseTimestamp(row[timeIdx])
		if err != nil {
			return nil, core.WrapError(core.ErrInputData,
				fmt.Errorf("%s row %d: invalid timestamp %q", path, n+2, row[timeIdx]))
		}

		trade := core.Trade{Timestamp: ts, Price: price}
		if marketIdx >= 0 {
			trade.MarketID = row[marketIdx]
		}
		if !trade.IsValid() {
			return nil, core.WrapError(core.ErrInputData,
				fmt.Errorf("%s row %d: price must be positive", path, n+2))
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
