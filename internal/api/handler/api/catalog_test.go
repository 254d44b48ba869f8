// internal/api/handler/api/catalog_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/polyquant/backtester/internal/api/response"
	"github.com/polyquant/backtester/internal/catalog"
	"github.com/polyquant/backtester/internal/core"
)

func newTestRouter(backtest *BacktestHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/backtest/jobs/{id}", backtest.GetJob).Methods(http.MethodGet)
	return router
}

// fakeCatalog serves canned topics and markets.
type fakeCatalog struct {
	topics  []catalog.Topic
	markets map[string][]catalog.Market // keyed by topic name
}

func (f *fakeCatalog) Topics(ctx context.Context) ([]catalog.Topic, error) {
	return f.topics, nil
}

func (f *fakeCatalog) TopicByName(ctx context.Context, name string) (*catalog.Topic, error) {
	for i := range f.topics {
		if f.topics[i].Name == name {
			return &f.topics[i], nil
		}
	}
	return nil, core.ErrTopicNotFound
}

func (f *fakeCatalog) RegisterTopic(ctx context.Context, name string, continuous bool) (int64, error) {
	return 0, nil
}

func (f *fakeCatalog) Markets(ctx context.Context) ([]catalog.Market, error) {
	var all []catalog.Market
	for _, ms := range f.markets {
		all = append(all, ms...)
	}
	return all, nil
}

func (f *fakeCatalog) MarketsByTopic(ctx context.Context, topic string) ([]catalog.Market, error) {
	ms, ok := f.markets[topic]
	if !ok {
		return nil, core.ErrTopicNotFound
	}
	return ms, nil
}

func (f *fakeCatalog) Market(ctx context.Context, clobTokenID string) (*catalog.Market, error) {
	return nil, core.ErrMarketNotFound
}

func (f *fakeCatalog) RegisterMarket(ctx context.Context, m catalog.Market) error {
	return nil
}

func (f *fakeCatalog) ContinuousMarkets(ctx context.Context, topic string, amount int) ([]catalog.Market, error) {
	return f.MarketsByTopic(ctx, topic)
}

func (f *fakeCatalog) Trades(ctx context.Context, clobTokenID string, limit int) ([]core.Trade, error) {
	return nil, nil
}

func TestCatalogHandler_Topics(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{
		topics: []catalog.Topic{
			{ID: 1, Name: "btc-updown-15m", Continuous: true},
			{ID: 2, Name: "elections", Continuous: false},
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/topics", nil)
	w := httptest.NewRecorder()

	handler.Topics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["count"] != float64(2) {
		t.Errorf("expected 2 topics, got %v", data["count"])
	}
}

func TestCatalogHandler_Markets(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{
		markets: map[string][]catalog.Market{
			"btc-updown-15m": {
				{ClobTokenID: "0xaaa", MarketSlug: "btc-updown-15m-1770093900"},
				{ClobTokenID: "0xbbb", MarketSlug: "btc-updown-15m-1770094800"},
			},
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/markets", nil)
	w := httptest.NewRecorder()

	handler.Markets(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["count"] != float64(2) {
		t.Errorf("expected 2 markets, got %v", data["count"])
	}
}

func TestCatalogHandler_Markets_TopicFilter(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{
		markets: map[string][]catalog.Market{
			"btc-updown-15m": {{ClobTokenID: "0xaaa"}},
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/markets?topic=btc-updown-15m", nil)
	w := httptest.NewRecorder()

	handler.Markets(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Data.(map[string]any)["count"] != float64(1) {
		t.Errorf("expected 1 market, got %v", resp.Data)
	}
}

func TestCatalogHandler_Markets_TopicNotFound(t *testing.T) {
	handler := NewCatalogHandler(&fakeCatalog{markets: map[string][]catalog.Market{}})

	req := httptest.NewRequest("GET", "/api/v1/markets?topic=unknown", nil)
	w := httptest.NewRecorder()

	handler.Markets(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
