package chat

import (
	"testing"

	"github.com/minsnailee/llm-detective/pkg/scenario"
)

func TestTranscript_AppendAndFilter(t *testing.T) {
	tr := NewTranscript()

	tr.Append(RolePlayer, SpeakerBroadcast, "Where were you at nine?", 100, "u")
	tr.Append(RoleNPC, "Suspect A", "In the study.", 101, "a_Suspect A")
	tr.Append(RoleNPC, "Suspect B", "Asleep.", 102, "a_Suspect B")
	tr.Append(RolePlayer, "Suspect A", "Alone?", 103, "u")
	tr.Append(RoleNPC, "Suspect A", "Quite alone.", 104, "a_Suspect A")

	all := tr.Filter(TargetAll)
	if len(all) != 5 {
		t.Fatalf("expected full log of 5, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp < all[i-1].Timestamp {
			t.Fatalf("timestamps decreased at index %d", i)
		}
	}

	a := tr.Filter("Suspect A")
	if len(a) != 3 {
		t.Fatalf("expected 3 Suspect A turns, got %d", len(a))
	}
	if a[0].Text != "In the study." || a[1].Text != "Alone?" || a[2].Text != "Quite alone." {
		t.Errorf("filter broke relative order: %+v", a)
	}

	// Filtering must not mutate the underlying log.
	if tr.Len() != 5 {
		t.Errorf("filter mutated log, len=%d", tr.Len())
	}

	if got := tr.Filter("Nobody"); len(got) != 0 {
		t.Errorf("expected empty view for unknown speaker, got %d", len(got))
	}
}

func TestTranscript_ClampsBackwardsClock(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RolePlayer, "Suspect A", "first", 200, "u")
	msg := tr.Append(RoleNPC, "Suspect A", "second", 150, "a_Suspect A")

	if msg.Timestamp != 200 {
		t.Errorf("expected clamped timestamp 200, got %d", msg.Timestamp)
	}
}

func TestTranscript_MessageIDsEncodeSequence(t *testing.T) {
	tr := NewTranscript()
	m1 := tr.Append(RolePlayer, "Suspect A", "q", 300, "u")
	m2 := tr.Append(RoleNPC, "Suspect A", "a", 300, "a_Suspect A")

	if m1.ID != "msg_300_1_u" {
		t.Errorf("unexpected first id %q", m1.ID)
	}
	if m2.ID != "msg_300_2_a_Suspect A" {
		t.Errorf("unexpected second id %q", m2.ID)
	}
}

func TestPinnedSamples(t *testing.T) {
	chars := []scenario.Character{
		{Name: "Suspect A", SampleLine: "I only hang paintings."},
		{Name: "Suspect B"},
		{Name: "Suspect C", SampleLine: "Hmph."},
		{SampleLine: "orphan line"},
	}

	all := PinnedSamples(chars, TargetAll)
	if len(all) != 2 {
		t.Fatalf("expected 2 pinned samples, got %d", len(all))
	}

	only := PinnedSamples(chars, "Suspect C")
	if len(only) != 1 || only[0].Name != "Suspect C" {
		t.Errorf("expected only Suspect C, got %+v", only)
	}
}
