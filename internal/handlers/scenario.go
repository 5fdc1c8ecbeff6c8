package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minsnailee/llm-detective/internal/storage"
)

// ScenarioHandler serves the scenario catalog.
// Routes:
// GET /v1/scenarios        - List scenario titles and filenames
// GET /v1/scenarios/{file} - Read one scenario document
type ScenarioHandler struct {
	log   *slog.Logger
	store *storage.ScenarioStore
}

func NewScenarioHandler(log *slog.Logger, store *storage.ScenarioStore) *ScenarioHandler {
	return &ScenarioHandler{
		log:   log,
		store: store,
	}
}

func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/")
	if filename == "" {
		h.handleList(w)
		return
	}
	h.handleGet(w, filename)
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter) {
	scenarios, err := h.store.List()
	if err != nil {
		h.log.Error("Failed to list scenarios", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list scenarios")
		return
	}
	writeJSON(w, h.log, http.StatusOK, scenarios)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, filename string) {
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid filename")
		return
	}

	detail, err := h.store.Get(filename)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, h.log, http.StatusNotFound, "Scenario not found")
			return
		}
		h.log.Error("Failed to get scenario", "error", err, "filename", filename)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve scenario")
		return
	}
	writeJSON(w, h.log, http.StatusOK, detail)
}

// writeJSON and writeError are the shared response helpers for the
// package. Encoding failures are logged, not surfaced; headers are
// already gone by then.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}
