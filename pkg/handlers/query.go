package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/engine"
	"github.com/gestinv-inc/gestinv-engine/pkg/indexer"
)

// maxQueryLength bounds the accepted query body; anything longer is noise or
// abuse, not a question.
const maxQueryLength = 2000

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryHandler exposes the resolution engine and index statistics over HTTP.
type QueryHandler struct {
	engine  engine.Engine
	indexer indexer.Indexer
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eng engine.Engine, ix indexer.Indexer, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{engine: eng, indexer: ix, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/query", h.Query)
	mux.HandleFunc("/api/index/stats", h.IndexStats)
}

// Query handles POST /api/query requests.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with a \"query\" field")
		return
	}
	if len(req.Query) > maxQueryLength {
		_ = ErrorResponse(w, http.StatusBadRequest, "query_too_long", "query exceeds the maximum length")
		return
	}

	response, err := h.engine.Resolve(r.Context(), strings.TrimSpace(req.Query))
	if err != nil {
		h.logger.Error("Query resolution failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "resolution_failed", "the query could not be resolved")
		return
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// IndexStats handles GET /api/index/stats requests.
func (h *QueryHandler) IndexStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	report, err := h.indexer.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to read index stats", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "stats_failed", "index statistics are unavailable")
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode index stats", zap.Error(err))
	}
}
