package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/emso-eric/geo2coverage/internal/catalog"
	"github.com/emso-eric/geo2coverage/internal/covjson"
	"github.com/emso-eric/geo2coverage/internal/erddap"
	"github.com/emso-eric/geo2coverage/internal/lifecycle"
	"github.com/emso-eric/geo2coverage/internal/service"
	"github.com/emso-eric/geo2coverage/internal/traffic"
	"github.com/emso-eric/geo2coverage/internal/validation"
)

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	StartTime        time.Time
	// CachePing, when set, is called to check cache reachability. Used
	// when the backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	coverage     *service.CoverageService
	catalog      *catalog.Catalog
	healthConfig *HealthConfig
	logger       *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(coverage *service.CoverageService, cat *catalog.Catalog, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		coverage:     coverage,
		catalog:      cat,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetHelp handles GET {base}/help. Liveness probe for consumers.
func (h *Handler) GetHelp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "it works!"})
}

// GetDatasets handles GET {base}/datasets: the catalog mapping as JSON.
func (h *Handler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.catalog.Datasets(r.Context())
	if err != nil {
		if logger := loggerFromRequest(r); logger != nil {
			logger.Error("catalog refresh failed", zap.Error(err))
		}
		writeErrorPayload(w, http.StatusBadGateway, "dataset catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

// GetCoverage handles GET {base}/{datasetId}. The raw query string goes to
// the orchestrator verbatim; the response is the coverage document, or an
// error payload carrying the orchestrator's status code through unchanged.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]
	if err := validation.ValidateDatasetID(datasetID); err != nil {
		writeErrorPayload(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.coverage.GetCoverage(r.Context(), datasetID, r.URL.RawQuery)
	if err != nil {
		traffic.RecordError()
		h.writeCoverageError(w, r, datasetID, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, doc)
}

// writeCoverageError maps pipeline failures onto the wire: upstream
// failures pass status and body through verbatim, assembler precondition
// violations are the client's problem, everything else is a bad gateway.
func (h *Handler) writeCoverageError(w http.ResponseWriter, r *http.Request, datasetID string, err error) {
	logger := loggerFromRequest(r)

	var upstream *erddap.UpstreamError
	if errors.As(err, &upstream) {
		if logger != nil {
			logger.Warn("upstream fetch failed",
				zap.String("dataset", datasetID),
				zap.Int("status", upstream.StatusCode))
		}
		writeErrorPayload(w, upstream.StatusCode, upstream.Body)
		return
	}

	if errors.Is(err, covjson.ErrEmptyTable) || errors.Is(err, covjson.ErrNoTimeColumn) || errors.Is(err, covjson.ErrNoPosition) {
		writeErrorPayload(w, http.StatusBadRequest, err.Error())
		return
	}

	if logger != nil {
		logger.Error("coverage pipeline failed", zap.String("dataset", datasetID), zap.Error(err))
	}
	writeErrorPayload(w, http.StatusBadGateway, "failed to build coverage document")
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["erddap"] = "unhealthy"
	} else {
		checks["erddap"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "geo2coverage",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > degraded (error-rate breach over the coverage endpoint)
// > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.Counts(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errs) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorPayload writes the {"error": <detail>} shape shared by all
// failure responses, including upstream passthrough bodies.
func writeErrorPayload(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

// loggerFromRequest extracts the request-scoped logger placed in context
// by CorrelationIDMiddleware.
func loggerFromRequest(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok {
		return logger
	}
	return nil
}
