// Package storage persists the play state that must survive a reload —
// the elapsed-time counter, the notes scratchpad and the collected
// evidence set — plus the scenario documents on disk. Each store owns
// exactly one key derived from the session's composite identity.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/minsnailee/llm-detective/internal/services"
	"github.com/minsnailee/llm-detective/pkg/session"
)

// Play state has no natural expiry within a case, but abandoned sessions
// should not accumulate forever.
const playStateTTL = 0 // no expiration; cleanup is the reporting flow's job

// TimerStore persists the elapsed-seconds counter.
type TimerStore struct {
	cache services.Cache
	key   string
}

func NewTimerStore(cache services.Cache, key session.Key) *TimerStore {
	return &TimerStore{cache: cache, key: key.TimerKey()}
}

// Load returns the raw persisted value; "" when nothing is stored.
func (s *TimerStore) Load(ctx context.Context) (string, error) {
	return s.cache.Get(ctx, s.key)
}

// Save persists the current value. Called after every tick and once more
// at the end-of-case freeze.
func (s *TimerStore) Save(ctx context.Context, seconds int) error {
	if err := s.cache.Set(ctx, s.key, strconv.Itoa(seconds), playStateTTL); err != nil {
		return fmt.Errorf("failed to persist timer: %w", err)
	}
	return nil
}

// NotesStore persists the free-text scratchpad.
type NotesStore struct {
	cache services.Cache
	key   string
}

func NewNotesStore(cache services.Cache, key session.Key) *NotesStore {
	return &NotesStore{cache: cache, key: key.NoteKey()}
}

// Load returns the last persisted text, or "" when none.
func (s *NotesStore) Load(ctx context.Context) (string, error) {
	return s.cache.Get(ctx, s.key)
}

// Save persists the text. Called on every edit.
func (s *NotesStore) Save(ctx context.Context, text string) error {
	if err := s.cache.Set(ctx, s.key, text, playStateTTL); err != nil {
		return fmt.Errorf("failed to persist notes: %w", err)
	}
	return nil
}

// Reset persists the empty string. Invoked by the reporting flow after a
// successful submission; the store only makes the operation available.
func (s *NotesStore) Reset(ctx context.Context) error {
	return s.Save(ctx, "")
}

// ClueStore persists the collected-evidence id list as a JSON array.
type ClueStore struct {
	cache services.Cache
	key   string
}

func NewClueStore(cache services.Cache, key session.Key) *ClueStore {
	return &ClueStore{cache: cache, key: key.ClueKey()}
}

// Load returns the persisted ids. A missing or corrupt value degrades to
// an empty list; a broken blob must not block play.
func (s *ClueStore) Load(ctx context.Context) ([]string, error) {
	raw, err := s.cache.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, nil
	}
	return ids, nil
}

// Save persists the full id list in one batch.
func (s *ClueStore) Save(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal clue ids: %w", err)
	}
	if err := s.cache.Set(ctx, s.key, string(data), playStateTTL); err != nil {
		return fmt.Errorf("failed to persist clues: %w", err)
	}
	return nil
}
