package scenario

import (
	"encoding/json"
	"strings"
)

// Character represents one suspect in a case. Identity is by Name;
// dispatch and transcript filtering key off it.
type Character struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Job           string `json:"job,omitempty"`
	Personality   string `json:"personality,omitempty"`
	SpeakingStyle string `json:"speaking_style,omitempty"`
	Outfit        string `json:"outfit,omitempty"`
	SampleLine    string `json:"sample_line,omitempty"`
	Image         string `json:"image,omitempty"`
}

// Evidence is one catalog entry. Keywords are aliases/synonyms used for
// auto-detection in dialogue text.
type Evidence struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"desc,omitempty"`
	Importance  string   `json:"importance,omitempty"` // "HIGH", "MEDIUM", "LOW"
	Keywords    []string `json:"keywords,omitempty"`
}

// Map holds stage art references for the play view.
type Map struct {
	Background string `json:"background,omitempty"`
	Floorplan  string `json:"floorplan,omitempty"`
}

// Meta is the scenario-level header inside a content document.
type Meta struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
	Objective  string   `json:"objective,omitempty"`
	Rules      []string `json:"rules,omitempty"`
}

// Content is the parsed scenario content document: the character roster
// and evidence catalog the engine plays against. Immutable for a session.
type Content struct {
	Scenario   Meta        `json:"scenario,omitempty"`
	Map        Map         `json:"map,omitempty"`
	Characters []Character `json:"characters,omitempty"`
	Evidence   []Evidence  `json:"evidence,omitempty"`
}

// Detail is a stored scenario record. ContentJSON carries the content
// document, either as an embedded object or a JSON-encoded string.
type Detail struct {
	Index       int             `json:"scen_idx,omitempty"`
	Title       string          `json:"scen_title"`
	Summary     string          `json:"scen_summary,omitempty"`
	Level       int             `json:"scen_level,omitempty"`
	ContentJSON json.RawMessage `json:"content_json,omitempty"`
}

// ParseContent normalizes a loosely-typed content document. Authoring
// tools sometimes double-encode the document as a JSON string, so a
// string payload is unwrapped and parsed again. Malformed or missing
// content degrades to an empty Content; this never returns an error
// because play must start even against a broken document.
func ParseContent(raw json.RawMessage) Content {
	var c Content
	if len(raw) == 0 {
		return c
	}

	data := []byte(raw)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}
	}
	return c
}

// Roster returns the characters eligible for questioning: those with a
// non-blank name. Order is preserved; broadcast dispatch iterates it as-is.
func (c Content) Roster() []Character {
	roster := make([]Character, 0, len(c.Characters))
	for _, ch := range c.Characters {
		if strings.TrimSpace(ch.Name) != "" {
			roster = append(roster, ch)
		}
	}
	return roster
}

// EvidenceByID indexes the evidence catalog for display lookups.
func (c Content) EvidenceByID() map[string]Evidence {
	m := make(map[string]Evidence, len(c.Evidence))
	for _, ev := range c.Evidence {
		m[ev.ID] = ev
	}
	return m
}

// FindCharacter returns the roster entry with the given name, if any.
func (c Content) FindCharacter(name string) (Character, bool) {
	for _, ch := range c.Characters {
		if ch.Name == name {
			return ch, true
		}
	}
	return Character{}, false
}
