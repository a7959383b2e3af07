package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyqs-go/pyqs/internal/queue"
)

func newTestAdminHandler() *AdminHandler {
	return NewAdminHandler(nil, queue.New(4), queue.NewPoisonLog(nil))
}

func TestAdminHandler_respondJSON(t *testing.T) {
	h := newTestAdminHandler()

	w := httptest.NewRecorder()
	data := map[string]string{"status": "ok"}

	h.respondJSON(w, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestAdminHandler_respondError(t *testing.T) {
	h := newTestAdminHandler()

	w := httptest.NewRecorder()
	h.respondError(w, http.StatusNotFound, "worker not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Not Found", response["error"])
	assert.Equal(t, "worker not found", response["message"])
}

func TestAdminHandler_ListWorkers_NoRegistry(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/workers", nil)
	w := httptest.NewRecorder()

	h.ListWorkers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["count"])
}

func TestAdminHandler_GetWorker_MissingID(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/workers/", nil)
	w := httptest.NewRecorder()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("workerID", "")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	h.GetWorker(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "worker ID is required", response["message"])
}

func TestAdminHandler_GetWorker_NotFound(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/workers/reader-1", nil)
	w := httptest.NewRecorder()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("workerID", "reader-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	h.GetWorker(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_GetQueueDepth(t *testing.T) {
	internal := queue.New(4)
	h := NewAdminHandler(nil, internal, queue.NewPoisonLog(nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/queue", nil)
	w := httptest.NewRecorder()

	h.GetQueueDepth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["depth"])
}

func TestAdminHandler_ListPoisonMessages_NilRedis(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/poison", nil)
	w := httptest.NewRecorder()

	h.ListPoisonMessages(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["size"])
}

func TestAdminHandler_ClearPoisonMessages_NilRedis(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodDelete, "/admin/poison", nil)
	w := httptest.NewRecorder()

	h.ClearPoisonMessages(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_HealthCheck_NoRegistry(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodGet, "/admin/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "disabled", response["registry"])
}
