// Package service orchestrates the catalog, strategy factory and backtest
// engine behind the API surface.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polyquant/backtester/internal/backtest"
	"github.com/polyquant/backtester/internal/catalog"
	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/metrics"
	"github.com/polyquant/backtester/internal/strategy"
)

// Service executes backtest requests against catalog data.
type Service struct {
	catalog        catalog.Catalog
	defaultFeeRate decimal.Decimal
	logger         *zap.Logger
	metrics        *metrics.Registry
}

// New creates a backtest service. metrics may be nil when the registry is
// disabled.
func New(cat catalog.Catalog, defaultFeeRate decimal.Decimal, logger *zap.Logger, reg *metrics.Registry) *Service {
	return &Service{
		catalog:        cat,
		defaultFeeRate: defaultFeeRate,
		logger:         logger,
		metrics:        reg,
	}
}

// Run executes a backtest request: single-market when ClobTokenID is set,
// continuous multi-market when Topic is set.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	strat, err := strategy.FromConfig(req.Strategy)
	if err != nil {
		return nil, err
	}

	feeRate := s.defaultFeeRate
	if req.FeeRate != "" {
		feeRate, _ = decimal.NewFromString(req.FeeRate)
	}
	engine := backtest.New(feeRate)

	start := time.Now()
	var result *backtest.Result
	if req.Topic != "" {
		result, err = s.runContinuous(ctx, engine, strat, req)
	} else {
		result, err = s.runSingle(ctx, engine, strat, req)
	}
	duration := time.Since(start)

	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordBacktest(strat.Name(), status, duration.Seconds())
		if result != nil {
			s.metrics.AddTicksProcessed(len(result.Records))
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("backtest completed",
		zap.String("strategy", strat.Name()),
		zap.String("market", req.ClobTokenID),
		zap.String("topic", req.Topic),
		zap.Int("ticks", len(result.Records)),
		zap.Int("trades", len(result.Trades)),
		zap.Duration("duration", duration))

	return buildResponse(result), nil
}

func (s *Service) runSingle(ctx context.Context, engine *backtest.Backtester, strat strategy.Strategy, req Request) (*backtest.Result, error) {
	if _, err := s.catalog.Market(ctx, req.ClobTokenID); err != nil {
		return nil, err
	}

	trades, err := s.catalog.Trades(ctx, req.ClobTokenID, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no trades found for market %q", req.ClobTokenID))
	}

	return engine.Run(ctx, strat, trades)
}

func (s *Service) runContinuous(ctx context.Context, engine *backtest.Backtester, strat strategy.Strategy, req Request) (*backtest.Result, error) {
	topic, err := s.catalog.TopicByName(ctx, req.Topic)
	if err != nil {
		return nil, err
	}
	if !topic.Continuous {
		return nil, core.WrapError(core.ErrTopicNotContinuous,
			fmt.Errorf("topic %q is not a continuous market topic", req.Topic))
	}

	markets, err := s.catalog.ContinuousMarkets(ctx, req.Topic, req.AmountOfMarkets)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no markets found for topic %q", req.Topic))
	}

	var data []backtest.MarketData
	for _, market := range markets {
		trades, err := s.catalog.Trades(ctx, market.ClobTokenID, req.Limit)
		if err != nil {
			return nil, err
		}
		if len(trades) == 0 {
			continue
		}
		id := market.MarketSlug
		if id == "" {
			id = market.ClobTokenID
		}
		data = append(data, backtest.MarketData{MarketID: id, Trades: trades})
	}
	if len(data) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no trade data found for any markets in topic %q", req.Topic))
	}

	return engine.RunContinuous(ctx, strat, data)
}
