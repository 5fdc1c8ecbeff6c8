package chat

import (
	"github.com/minsnailee/llm-detective/pkg/scenario"
)

// Transcript is the append-only, time-ordered dialogue log for one
// session. It lives only in memory and is lost on reload; persistence of
// play state is handled elsewhere.
//
// Append never reorders existing entries. Timestamps are non-decreasing
// in append order; an out-of-order clock reading is clamped to the tail
// so the ordering invariant holds even across clock adjustments.
type Transcript struct {
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds one turn to the end of the log and returns the stored
// message with its id and clamped timestamp filled in.
func (t *Transcript) Append(role, speaker, text string, ts int64, idSuffix string) Message {
	if n := len(t.messages); n > 0 && ts < t.messages[n-1].Timestamp {
		ts = t.messages[n-1].Timestamp
	}
	msg := Message{
		ID:        MessageID(ts, len(t.messages)+1, idSuffix),
		Timestamp: ts,
		Role:      role,
		Speaker:   speaker,
		Text:      text,
	}
	t.messages = append(t.messages, msg)
	return msg
}

// Len reports the number of turns in the log.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// All returns the full log in append order. The returned slice shares
// the transcript's backing array; callers must treat it as read-only.
func (t *Transcript) All() []Message {
	return t.messages
}

// Filter returns the turns whose speaker matches the filter value, in
// relative append order. The sentinel TargetAll returns the full log.
// The view is recomputed from the log on every call and never mutates it.
func (t *Transcript) Filter(speaker string) []Message {
	if speaker == TargetAll {
		return t.messages
	}
	var out []Message
	for _, m := range t.messages {
		if m.Speaker == speaker {
			out = append(out, m)
		}
	}
	return out
}

// PinnedSamples returns the characters whose flavor line should be
// rendered ahead of the transcript, subject to the same speaker filter.
// Sample lines are not transcript turns and are never persisted.
func PinnedSamples(characters []scenario.Character, speaker string) []scenario.Character {
	var out []scenario.Character
	for _, c := range characters {
		if c.SampleLine == "" || c.Name == "" {
			continue
		}
		if speaker != TargetAll && c.Name != speaker {
			continue
		}
		out = append(out, c)
	}
	return out
}
