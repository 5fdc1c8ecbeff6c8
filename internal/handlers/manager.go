package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minsnailee/llm-detective/internal/engine"
	"github.com/minsnailee/llm-detective/internal/services"
	"github.com/minsnailee/llm-detective/internal/storage"
	"github.com/minsnailee/llm-detective/pkg/scenario"
)

// Session is one live interrogation: an engine plus the identity it was
// created with. The API id is a uuid; the game session id is the integer
// the answer service and the persistence keys are scoped by.
type Session struct {
	ID            uuid.UUID
	GameSessionID int
	ScenarioFile  string
	ScenarioID    string
	Title         string
	CreatedAt     time.Time
	Engine        *engine.Engine
}

// SessionManager owns every live session. Create builds an engine from a
// scenario file and starts its clock; Delete tears the engine down.
type SessionManager struct {
	logger    *slog.Logger
	cache     services.Cache
	asker     services.AskClient
	scenarios *storage.ScenarioStore

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	nextID   int
}

func NewSessionManager(logger *slog.Logger, cache services.Cache, asker services.AskClient, scenarios *storage.ScenarioStore) *SessionManager {
	return &SessionManager{
		logger:    logger,
		cache:     cache,
		asker:     asker,
		scenarios: scenarios,
		sessions:  make(map[uuid.UUID]*Session),
		nextID:    1,
	}
}

// Create loads the scenario, mounts an engine seeded from any persisted
// play state, and starts the interrogation clock.
func (m *SessionManager) Create(ctx context.Context, scenarioFile string, carryOverSeconds, navSeconds int) (*Session, error) {
	detail, err := m.scenarios.Get(scenarioFile)
	if err != nil {
		return nil, err
	}
	content := scenario.ParseContent(detail.ContentJSON)

	m.mu.Lock()
	gameSessionID := m.nextID
	m.nextID++
	m.mu.Unlock()

	// An absent scenario index leaves the id blank; the persistence keys
	// substitute their own sentinel.
	var scenarioID string
	if detail.Index > 0 {
		scenarioID = strconv.Itoa(detail.Index)
	}

	eng := engine.New(ctx, engine.Config{
		Logger:           m.logger,
		Cache:            m.cache,
		AskClient:        m.asker,
		ScenarioID:       scenarioID,
		SessionID:        gameSessionID,
		Content:          content,
		CarryOverSeconds: carryOverSeconds,
		NavSeconds:       navSeconds,
	})
	eng.StartClock()

	s := &Session{
		ID:            uuid.New(),
		GameSessionID: gameSessionID,
		ScenarioFile:  scenarioFile,
		ScenarioID:    scenarioID,
		Title:         detail.Title,
		CreatedAt:     time.Now().UTC(),
		Engine:        eng,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session created",
		"session_id", s.ID,
		"game_session_id", gameSessionID,
		"scenario", scenarioFile)
	return s, nil
}

func (m *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes the session and releases its engine. Returns false if
// the id is unknown.
func (m *SessionManager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Engine.Close()
	m.logger.Info("Session deleted", "session_id", id)
	return true
}

// Shutdown closes every live engine. Used on server teardown.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Engine.Close()
	}
}

func (m *SessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
