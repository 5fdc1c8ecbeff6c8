package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minsnailee/llm-detective/internal/engine"
	"github.com/minsnailee/llm-detective/pkg/chat"
	"github.com/minsnailee/llm-detective/pkg/scenario"
	"github.com/minsnailee/llm-detective/pkg/session"
)

// CreateSessionRequest starts an interrogation against one scenario.
// The optional seconds fields seed the clock when the player resumes a
// case; absent means no seed.
type CreateSessionRequest struct {
	Scenario         string `json:"scenario"`
	CarryOverSeconds *int   `json:"carry_over_seconds,omitempty"`
	NavSeconds       *int   `json:"nav_seconds,omitempty"`
}

// SessionResponse is the snapshot shape returned by create and read.
type SessionResponse struct {
	ID             uuid.UUID      `json:"id"`
	SessionID      int            `json:"sessionId"`
	Scenario       string         `json:"scenario"`
	Title          string         `json:"title"`
	Suspects       []string       `json:"suspects"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Elapsed        string         `json:"elapsed"`
	Evidence       []string       `json:"evidence"`
	Notes          string         `json:"notes"`
	Bubble         session.Bubble `json:"bubble"`
	Asking         bool           `json:"asking"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AskTurnRequest is the dispatch body. The suspect name "ALL" fans the
// question out to every suspect.
type AskTurnRequest struct {
	SuspectName string `json:"suspectName"`
	UserText    string `json:"userText"`
}

type AskTurnResponse struct {
	Turns        []chat.Message `json:"turns"`
	NewEvidence  []string       `json:"newEvidence"`
	InputCleared bool           `json:"inputCleared"`
	Bubble       session.Bubble `json:"bubble"`
}

type TranscriptResponse struct {
	Messages []chat.Message       `json:"messages"`
	Pinned   []scenario.Character `json:"pinned"`
}

type NotesRequest struct {
	Text string `json:"text"`
}

type NotesResponse struct {
	Text string `json:"text"`
}

// SessionHandler routes everything under /v1/sessions.
// Routes:
// POST   /v1/sessions                             - Create session
// GET    /v1/sessions/{id}                        - Read session snapshot
// DELETE /v1/sessions/{id}                        - Delete session
// POST   /v1/sessions/{id}/ask                    - Dispatch a question
// GET    /v1/sessions/{id}/transcript?speaker=X   - Filtered transcript
// GET    /v1/sessions/{id}/notes                  - Read notes
// PUT    /v1/sessions/{id}/notes                  - Replace notes
// DELETE /v1/sessions/{id}/notes                  - Reset notes
// DELETE /v1/sessions/{id}/evidence/{evidenceID}  - Discard evidence
// POST   /v1/sessions/{id}/end                    - End the case
type SessionHandler struct {
	log     *slog.Logger
	manager *SessionManager
}

func NewSessionHandler(log *slog.Logger, manager *SessionManager) *SessionHandler {
	return &SessionHandler{
		log:     log,
		manager: manager,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 3)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.log.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.log, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	s, ok := h.manager.Get(id)
	if !ok {
		writeError(w, h.log, http.StatusNotFound, "Session not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, h.log, http.StatusOK, snapshot(s))
		case http.MethodDelete:
			h.manager.Delete(id)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	switch parts[1] {
	case "ask":
		if r.Method != http.MethodPost {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleAsk(w, r, s)
	case "transcript":
		if r.Method != http.MethodGet {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleTranscript(w, r, s)
	case "notes":
		h.handleNotes(w, r, s)
	case "evidence":
		if r.Method != http.MethodDelete {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: DELETE")
			return
		}
		if len(parts) < 3 || parts[2] == "" {
			writeError(w, h.log, http.StatusBadRequest, "Evidence ID is required in URL path")
			return
		}
		h.handleRemoveEvidence(w, r, s, parts[2])
	case "end":
		if r.Method != http.MethodPost {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleEnd(w, r, s)
	default:
		writeError(w, h.log, http.StatusNotFound, "Unknown session resource")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Scenario) == "" {
		writeError(w, h.log, http.StatusBadRequest, "scenario is required")
		return
	}

	carryOver, nav := -1, -1
	if req.CarryOverSeconds != nil {
		carryOver = *req.CarryOverSeconds
	}
	if req.NavSeconds != nil {
		nav = *req.NavSeconds
	}

	s, err := h.manager.Create(r.Context(), req.Scenario, carryOver, nav)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, h.log, http.StatusNotFound, "Scenario not found")
			return
		}
		h.log.Error("Failed to create session", "error", err, "scenario", req.Scenario)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, h.log, http.StatusCreated, snapshot(s))
}

func (h *SessionHandler) handleAsk(w http.ResponseWriter, r *http.Request, s *Session) {
	var req AskTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.Engine.HandleAsk(r.Context(), req.SuspectName, req.UserText)
	if err != nil {
		status, msg := askErrorStatus(err)
		writeError(w, h.log, status, msg)
		return
	}

	writeJSON(w, h.log, http.StatusOK, AskTurnResponse{
		Turns:        result.Turns,
		NewEvidence:  result.NewEvidence,
		InputCleared: result.InputCleared,
		Bubble:       s.Engine.Bubble(),
	})
}

// askErrorStatus maps dispatch failures onto HTTP statuses. Upstream
// answer-service failures surface as 502 so the client can distinguish
// them from its own bad input.
func askErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrEmptyQuestion),
		errors.Is(err, engine.ErrNoTarget),
		errors.Is(err, engine.ErrNoSession):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrAskInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, engine.ErrCaseEnded):
		return http.StatusGone, err.Error()
	default:
		return http.StatusBadGateway, err.Error()
	}
}

func (h *SessionHandler) handleTranscript(w http.ResponseWriter, r *http.Request, s *Session) {
	speaker := r.URL.Query().Get("speaker")
	if speaker == "" {
		speaker = chat.TargetAll
	}

	messages := s.Engine.Transcript(speaker)
	if messages == nil {
		messages = []chat.Message{}
	}
	pinned := s.Engine.PinnedSamples(speaker)
	if pinned == nil {
		pinned = []scenario.Character{}
	}

	writeJSON(w, h.log, http.StatusOK, TranscriptResponse{
		Messages: messages,
		Pinned:   pinned,
	})
}

func (h *SessionHandler) handleNotes(w http.ResponseWriter, r *http.Request, s *Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.log, http.StatusOK, NotesResponse{Text: s.Engine.Notes()})

	case http.MethodPut:
		var req NotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.Engine.SetNotes(r.Context(), req.Text); err != nil {
			h.log.Error("Failed to save notes", "error", err, "session_id", s.ID)
			writeError(w, h.log, http.StatusInternalServerError, "Failed to save notes")
			return
		}
		writeJSON(w, h.log, http.StatusOK, NotesResponse{Text: req.Text})

	case http.MethodDelete:
		if err := s.Engine.ResetNotes(r.Context()); err != nil {
			h.log.Error("Failed to reset notes", "error", err, "session_id", s.ID)
			writeError(w, h.log, http.StatusInternalServerError, "Failed to reset notes")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT, DELETE")
	}
}

func (h *SessionHandler) handleRemoveEvidence(w http.ResponseWriter, r *http.Request, s *Session, evidenceID string) {
	removed, err := s.Engine.RemoveEvidence(r.Context(), evidenceID)
	if err != nil {
		h.log.Error("Failed to remove evidence", "error", err, "session_id", s.ID, "evidence_id", evidenceID)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to remove evidence")
		return
	}
	if !removed {
		writeError(w, h.log, http.StatusNotFound, "Evidence not collected")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleEnd(w http.ResponseWriter, r *http.Request, s *Session) {
	report, err := s.Engine.EndCase(r.Context())
	if err != nil {
		h.log.Error("Failed to end case", "error", err, "session_id", s.ID)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to end case")
		return
	}
	writeJSON(w, h.log, http.StatusOK, report)
}

func snapshot(s *Session) SessionResponse {
	suspects := make([]string, 0)
	for _, ch := range s.Engine.Roster() {
		suspects = append(suspects, ch.Name)
	}
	elapsed := s.Engine.Elapsed()
	evidence := s.Engine.CollectedEvidence()
	if evidence == nil {
		evidence = []string{}
	}

	return SessionResponse{
		ID:             s.ID,
		SessionID:      s.GameSessionID,
		Scenario:       s.ScenarioFile,
		Title:          s.Title,
		Suspects:       suspects,
		ElapsedSeconds: elapsed,
		Elapsed:        session.FormatElapsed(elapsed),
		Evidence:       evidence,
		Notes:          s.Engine.Notes(),
		Bubble:         s.Engine.Bubble(),
		Asking:         s.Engine.Asking(),
		CreatedAt:      s.CreatedAt,
	}
}
