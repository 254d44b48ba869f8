// internal/api/handler/api/catalog.go
package api

import (
	"errors"
	"net/http"

	"github.com/polyquant/backtester/internal/api/response"
	"github.com/polyquant/backtester/internal/catalog"
	"github.com/polyquant/backtester/internal/core"
)

// CatalogHandler exposes the market catalog over HTTP.
type CatalogHandler struct {
	catalog catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(cat catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Topics lists all registered topics.
func (h *CatalogHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.catalog.Topics(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"topics": topics,
		"count":  len(topics),
	})
}

// Markets lists markets, optionally filtered by topic.
func (h *CatalogHandler) Markets(w http.ResponseWriter, r *http.Request) {
	var (
		markets []catalog.Market
		err     error
	)

	if topic := r.URL.Query().Get("topic"); topic != "" {
		markets, err = h.catalog.MarketsByTopic(r.Context(), topic)
	} else {
		markets, err = h.catalog.Markets(r.Context())
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrTopicNotFound) {
			status = http.StatusNotFound
		}
		response.Error(w, status, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"markets": markets,
		"count":   len(markets),
	})
}
