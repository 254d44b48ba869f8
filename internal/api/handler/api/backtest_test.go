// internal/api/handler/api/backtest_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/polyquant/backtester/internal/api/job"
	"github.com/polyquant/backtester/internal/api/response"
	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/service"
)

// MockRunner for testing
type MockRunner struct {
	mu   sync.Mutex
	resp *service.Response
	err  error
	got  []service.Request
}

func (m *MockRunner) Run(ctx context.Context, req service.Request) (*service.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, req)
	return m.resp, m.err
}

func newHandler(runner *MockRunner) (*BacktestHandler, *job.Store) {
	jobStore := job.NewStore(100, time.Hour)
	return NewBacktestHandler(runner, jobStore, nil, zap.NewNop()), jobStore
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/backtest/run", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBacktestHandler_Run(t *testing.T) {
	runner := &MockRunner{resp: &service.Response{Success: true, RowCount: 3}}
	handler, _ := newHandler(runner)

	w := httptest.NewRecorder()
	handler.Run(w, postJSON(`{
		"clob_token_id": "0xabc",
		"strategy": {"type": "momentum"}
	}`))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["success"] != true {
		t.Error("expected success in response")
	}
	if len(runner.got) != 1 || runner.got[0].ClobTokenID != "0xabc" {
		t.Errorf("runner saw wrong request: %+v", runner.got)
	}
}

func TestBacktestHandler_Run_BadJSON(t *testing.T) {
	handler, _ := newHandler(&MockRunner{})

	w := httptest.NewRecorder()
	handler.Run(w, postJSON(`{not json`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_Run_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"market not found", core.ErrMarketNotFound, http.StatusNotFound},
		{"topic not found", core.ErrTopicNotFound, http.StatusNotFound},
		{"config invalid", core.ErrConfigInvalid, http.StatusBadRequest},
		{"strategy not found", core.ErrStrategyNotFound, http.StatusBadRequest},
		{"topic not continuous", core.ErrTopicNotContinuous, http.StatusBadRequest},
		{"insufficient data", core.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"simulation failed", core.ErrSimulationFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newHandler(&MockRunner{err: tt.err})

			w := httptest.NewRecorder()
			handler.Run(w, postJSON(`{"clob_token_id": "0xabc", "strategy": {"type": "momentum"}}`))

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestBacktestHandler_CreateJob(t *testing.T) {
	runner := &MockRunner{resp: &service.Response{Success: true}}
	handler, jobStore := newHandler(runner)

	w := httptest.NewRecorder()
	handler.CreateJob(w, postJSON(`{
		"clob_token_id": "0xabc",
		"strategy": {"type": "momentum"}
	}`))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	jobID, _ := data["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected job_id in response")
	}
	if data["status"] != "pending" {
		t.Errorf("expected pending status, got %v", data["status"])
	}

	// Wait for the background run to finish
	deadline := time.Now().Add(2 * time.Second)
	for {
		j, err := jobStore.Get(jobID)
		if err != nil {
			t.Fatalf("job disappeared: %v", err)
		}
		if j.Status == job.StatusComplete {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed, status %s", j.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBacktestHandler_CreateJob_InvalidRequest(t *testing.T) {
	handler, _ := newHandler(&MockRunner{})

	// Neither clob_token_id nor topic
	w := httptest.NewRecorder()
	handler.CreateJob(w, postJSON(`{"strategy": {"type": "momentum"}}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_CreateJob_Failure(t *testing.T) {
	runner := &MockRunner{err: core.ErrInsufficientData}
	handler, jobStore := newHandler(runner)

	w := httptest.NewRecorder()
	handler.CreateJob(w, postJSON(`{"clob_token_id": "0xabc", "strategy": {"type": "momentum"}}`))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	jobID := resp.Data.(map[string]any)["job_id"].(string)

	deadline := time.Now().Add(2 * time.Second)
	for {
		j, err := jobStore.Get(jobID)
		if err != nil {
			t.Fatalf("job disappeared: %v", err)
		}
		if j.Status == job.StatusFailed {
			if j.Error == nil || j.Error.Code != "INSUFFICIENT_DATA" {
				t.Errorf("expected insufficient data error, got %+v", j.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never failed, status %s", j.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBacktestHandler_GetJob(t *testing.T) {
	handler, jobStore := newHandler(&MockRunner{})

	j := jobStore.Create("backtest")

	req := httptest.NewRequest("GET", "/api/v1/backtest/jobs/"+j.ID, nil)
	w := httptest.NewRecorder()

	router := newTestRouter(handler)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["job_id"] != j.ID {
		t.Errorf("expected job_id %s, got %v", j.ID, data["job_id"])
	}
}

func TestBacktestHandler_GetJob_NotFound(t *testing.T) {
	handler, _ := newHandler(&MockRunner{})

	req := httptest.NewRequest("GET", "/api/v1/backtest/jobs/nonexistent", nil)
	w := httptest.NewRecorder()

	router := newTestRouter(handler)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
