package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pyqs-go/pyqs/internal/logger"
	"github.com/pyqs-go/pyqs/internal/queue"
	"github.com/pyqs-go/pyqs/internal/worker"
)

// AdminHandler serves operator-facing introspection and control
// endpoints: worker liveness (via the Registry), internal queue depth,
// and the poison-message log. It never touches the hand-off path
// itself.
type AdminHandler struct {
	registryClient *redis.Client
	internal       *queue.InternalQueue
	poison         *queue.PoisonLog
}

// NewAdminHandler builds an AdminHandler. registryClient may be nil,
// in which case ListWorkers always reports an empty set.
func NewAdminHandler(registryClient *redis.Client, internal *queue.InternalQueue, poison *queue.PoisonLog) *AdminHandler {
	return &AdminHandler{
		registryClient: registryClient,
		internal:       internal,
		poison:         poison,
	}
}

// ListWorkers handles GET /admin/workers
func (h *AdminHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	records, err := worker.ListWorkers(r.Context(), h.registryClient)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list workers")
		h.respondError(w, http.StatusInternalServerError, "failed to list workers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"workers": records,
		"count":   len(records),
	})
}

// GetWorker handles GET /admin/workers/{workerID}
func (h *AdminHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	if workerID == "" {
		h.respondError(w, http.StatusBadRequest, "worker ID is required")
		return
	}

	records, err := worker.ListWorkers(r.Context(), h.registryClient)
	if err != nil {
		logger.Error().Err(err).Str("worker_id", workerID).Msg("failed to list workers")
		h.respondError(w, http.StatusInternalServerError, "failed to get worker")
		return
	}

	for _, rec := range records {
		if rec.ID == workerID {
			h.respondJSON(w, http.StatusOK, rec)
			return
		}
	}

	h.respondError(w, http.StatusNotFound, "worker not found or not active")
}

// GetQueueDepth handles GET /admin/queue
func (h *AdminHandler) GetQueueDepth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"depth": h.internal.Len(),
	})
}

// ListPoisonMessages handles GET /admin/poison
func (h *AdminHandler) ListPoisonMessages(w http.ResponseWriter, r *http.Request) {
	records, err := h.poison.List(r.Context(), 100)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list poison messages")
		h.respondError(w, http.StatusInternalServerError, "failed to list poison messages")
		return
	}

	size, _ := h.poison.Size(r.Context())

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": records,
		"size":     size,
	})
}

// ClearPoisonMessages handles DELETE /admin/poison
func (h *AdminHandler) ClearPoisonMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.poison.Clear(r.Context()); err != nil {
		logger.Error().Err(err).Msg("failed to clear poison log")
		h.respondError(w, http.StatusInternalServerError, "failed to clear poison log")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "poison log cleared",
	})
}

// HealthCheck handles GET /admin/health
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.registryClient == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"registry": "disabled",
		})
		return
	}

	if err := h.registryClient.Ping(r.Context()).Err(); err != nil {
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"registry": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"registry": "connected",
	})
}

func (h *AdminHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *AdminHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}
