// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/polyquant/backtester/internal/api/job"
	"github.com/polyquant/backtester/internal/api/response"
	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/metrics"
	"github.com/polyquant/backtester/internal/service"
)

const backtestTimeout = 5 * time.Minute

// Runner executes a backtest request end to end.
type Runner interface {
	Run(ctx context.Context, req service.Request) (*service.Response, error)
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	runner   Runner
	jobStore *job.Store
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(runner Runner, jobStore *job.Store, reg *metrics.Registry, logger *zap.Logger) *BacktestHandler {
	return &BacktestHandler{
		runner:   runner,
		jobStore: jobStore,
		metrics:  reg,
		logger:   logger,
	}
}

// Run executes a backtest synchronously and returns the full result.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// CreateJob starts a backtest in the background and returns a job handle.
func (h *BacktestHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	// Reject bad requests before queuing a job
	if err := req.Validate(); err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	j := h.jobStore.Create("backtest")

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runJob(jobID, req)

	h.updateActiveJobs()

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// runJob executes the backtest and updates job status.
func (h *BacktestHandler) runJob(jobID string, req service.Request) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()
	result, err := h.runner.Run(ctx, req)

	if err != nil {
		var coreErr *core.Error
		if !errors.As(err, &coreErr) {
			coreErr = core.WrapError(core.ErrSimulationFailed, err)
		}
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = coreErr
		})
		h.logger.Warn("backtest job failed",
			zap.String("job_id", jobID),
			zap.Error(err))
		h.updateActiveJobs()
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = result
	})
	h.updateActiveJobs()
}

// GetJob returns the status of a backtest job.
func (h *BacktestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *BacktestHandler) updateActiveJobs() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(h.jobStore.Active())
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMarketNotFound),
		errors.Is(err, core.ErrTopicNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConfigInvalid),
		errors.Is(err, core.ErrConfigMissing),
		errors.Is(err, core.ErrStrategyNotFound),
		errors.Is(err, core.ErrTopicNotContinuous):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInsufficientData),
		errors.Is(err, core.ErrInputData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
