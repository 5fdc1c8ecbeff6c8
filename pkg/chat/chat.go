package chat

import (
	"fmt"
	"strings"
)

const (
	// RolePlayer marks a question asked by the player.
	RolePlayer = "player"
	// RoleNPC marks an answer (or placeholder) attributed to a suspect.
	RoleNPC = "npc"
)

const (
	// TargetAll addresses a question to every suspect on stage.
	TargetAll = "ALL"
	// SpeakerBroadcast is the transcript speaker recorded for a
	// broadcast question's player turn.
	SpeakerBroadcast = "[ALL]"
)

// MaxQuestionLength bounds a single player question.
const MaxQuestionLength = 2000

// Message is a single transcript turn. Messages are append-only and are
// never mutated or reordered after creation.
type Message struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"` // epoch seconds
	Role      string `json:"role"`
	Speaker   string `json:"suspect_name"`
	Text      string `json:"text"`
}

// MessageID derives a stable id from the turn's timestamp and its
// position in the log, so ordering stays reconstructible from ids alone.
// Suffixes: "u" player turn, "a_<name>" answer, "a_err_<name>" placeholder.
func MessageID(ts int64, seq int, suffix string) string {
	return fmt.Sprintf("msg_%d_%d_%s", ts, seq, suffix)
}

// AskRequest is the payload sent to the NPC answer service.
type AskRequest struct {
	SessionID   int    `json:"sessionId"`
	SuspectName string `json:"suspectName"`
	UserText    string `json:"userText"`
}

// AskResponse is the answer service's reply.
type AskResponse struct {
	Answer string `json:"answer"`
}

func (r *AskRequest) Validate() error {
	if r.SessionID <= 0 {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(r.SuspectName) == "" {
		return fmt.Errorf("suspect name cannot be empty")
	}
	if strings.TrimSpace(r.UserText) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if len(r.UserText) > MaxQuestionLength {
		return fmt.Errorf("question exceeds maximum length of %d characters", MaxQuestionLength)
	}
	return nil
}
