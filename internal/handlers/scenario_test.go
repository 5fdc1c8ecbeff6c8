package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsnailee/llm-detective/internal/storage"
	"github.com/minsnailee/llm-detective/pkg/scenario"
)

func scenarioTestHandler(t *testing.T) *ScenarioHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "scenarios"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "scenarios", "gallery.json"),
		[]byte(testScenarioJSON), 0o644))

	return NewScenarioHandler(logger, storage.NewScenarioStore(dataDir, logger))
}

func TestScenarioHandler_List(t *testing.T) {
	handler := scenarioTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var scenarios map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scenarios))
	assert.Equal(t, map[string]string{"The Gallery Case": "gallery.json"}, scenarios)
}

func TestScenarioHandler_Get(t *testing.T) {
	handler := scenarioTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenarios/gallery.json", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var detail scenario.Detail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&detail))
	assert.Equal(t, "The Gallery Case", detail.Title)
	assert.Equal(t, 12, detail.Index)

	content := scenario.ParseContent(detail.ContentJSON)
	roster := content.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, "Suspect A", roster[0].Name)
	assert.Equal(t, "Suspect B", roster[1].Name)
}

func TestScenarioHandler_Errors(t *testing.T) {
	handler := scenarioTestHandler(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"unknown file", http.MethodGet, "/v1/scenarios/missing.json", http.StatusNotFound},
		{"path traversal", http.MethodGet, "/v1/scenarios/..%2Fgallery.json", http.StatusBadRequest},
		{"method not allowed", http.MethodPost, "/v1/scenarios", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
