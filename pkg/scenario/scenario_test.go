package scenario

import (
	"encoding/json"
	"testing"
)

const sampleContent = `{
	"scenario": {"title": "The Gallery Murder", "difficulty": 3},
	"map": {"background": "uploads/bg.png", "floorplan": "uploads/plan.png"},
	"characters": [
		{"name": "Suspect A", "job": "curator", "sample_line": "I only hang paintings."},
		{"name": "Suspect B", "age": 41},
		{"name": "   "},
		{"name": ""}
	],
	"evidence": [
		{"id": "e1", "name": "bloody knife", "keywords": ["knife", "blade"]},
		{"id": "e2", "name": "ledger", "importance": "HIGH"}
	]
}`

func TestParseContent(t *testing.T) {
	c := ParseContent(json.RawMessage(sampleContent))

	if c.Scenario.Title != "The Gallery Murder" {
		t.Errorf("expected title 'The Gallery Murder', got %q", c.Scenario.Title)
	}
	if len(c.Characters) != 4 {
		t.Errorf("expected 4 characters, got %d", len(c.Characters))
	}
	if len(c.Evidence) != 2 {
		t.Errorf("expected 2 evidence entries, got %d", len(c.Evidence))
	}
	if c.Evidence[0].Keywords[1] != "blade" {
		t.Errorf("expected keyword 'blade', got %q", c.Evidence[0].Keywords[1])
	}
}

func TestParseContent_DoubleEncoded(t *testing.T) {
	// Authoring tools sometimes store the document as a JSON string.
	wrapped, err := json.Marshal(sampleContent)
	if err != nil {
		t.Fatalf("failed to wrap content: %v", err)
	}

	c := ParseContent(wrapped)
	if len(c.Characters) != 4 {
		t.Errorf("expected 4 characters from double-encoded content, got %d", len(c.Characters))
	}
}

func TestParseContent_Degraded(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty input", raw: ""},
		{name: "malformed json", raw: `{"characters": [`},
		{name: "wrong shape", raw: `[1, 2, 3]`},
		{name: "null", raw: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseContent(json.RawMessage(tt.raw))
			if len(c.Characters) != 0 {
				t.Errorf("expected empty roster, got %d characters", len(c.Characters))
			}
			if len(c.Evidence) != 0 {
				t.Errorf("expected empty catalog, got %d entries", len(c.Evidence))
			}
			// Roster and index helpers must still be usable.
			if len(c.Roster()) != 0 {
				t.Error("expected empty Roster()")
			}
			if len(c.EvidenceByID()) != 0 {
				t.Error("expected empty EvidenceByID()")
			}
		})
	}
}

func TestContent_Roster(t *testing.T) {
	c := ParseContent(json.RawMessage(sampleContent))
	roster := c.Roster()

	if len(roster) != 2 {
		t.Fatalf("expected 2 askable characters, got %d", len(roster))
	}
	if roster[0].Name != "Suspect A" || roster[1].Name != "Suspect B" {
		t.Errorf("roster order not preserved: %q, %q", roster[0].Name, roster[1].Name)
	}
}

func TestContent_FindCharacter(t *testing.T) {
	c := ParseContent(json.RawMessage(sampleContent))

	ch, ok := c.FindCharacter("Suspect A")
	if !ok {
		t.Fatal("expected to find Suspect A")
	}
	if ch.Job != "curator" {
		t.Errorf("expected job 'curator', got %q", ch.Job)
	}

	if _, ok := c.FindCharacter("Nobody"); ok {
		t.Error("expected FindCharacter to miss unknown name")
	}
}
