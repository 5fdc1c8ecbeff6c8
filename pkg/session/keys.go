// Package session holds the per-session play state that is not dialogue
// content: the composite persistence key, the elapsed-time clock and the
// on-stage speech bubble.
package session

import (
	"fmt"
	"strconv"
)

// Sentinel key parts used when an identifier is missing, so persistence
// degrades to a shared fallback slot instead of erroring.
const (
	unknownScenario = "scen"
	unknownSession  = "sess"
	unknownTimer    = "unknown"
)

// Key is the composite (scenario, session) identity that namespaces all
// persisted play state. Each component owns exactly one derived key and
// never reaches into another's.
type Key struct {
	ScenarioID string
	SessionID  int
}

func (k Key) scenarioPart() string {
	if k.ScenarioID == "" {
		return unknownScenario
	}
	return k.ScenarioID
}

func (k Key) sessionPart() string {
	if k.SessionID <= 0 {
		return unknownSession
	}
	return strconv.Itoa(k.SessionID)
}

// NoteKey namespaces the notes scratchpad.
func (k Key) NoteKey() string {
	return fmt.Sprintf("note_%s_%s", k.scenarioPart(), k.sessionPart())
}

// ClueKey namespaces the collected-evidence set.
func (k Key) ClueKey() string {
	return fmt.Sprintf("clues_%s_%s", k.scenarioPart(), k.sessionPart())
}

// TimerKey namespaces the elapsed-seconds counter. The timer predates
// the composite key and stays keyed by session alone.
func (k Key) TimerKey() string {
	if k.SessionID <= 0 {
		return "timer_session_" + unknownTimer
	}
	return fmt.Sprintf("timer_session_%d", k.SessionID)
}
