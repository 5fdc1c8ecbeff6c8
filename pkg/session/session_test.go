package session

import (
	"testing"
	"time"
)

func TestKey_Derivation(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		noteKey  string
		clueKey  string
		timerKey string
	}{
		{
			name:     "full identity",
			key:      Key{ScenarioID: "12", SessionID: 34},
			noteKey:  "note_12_34",
			clueKey:  "clues_12_34",
			timerKey: "timer_session_34",
		},
		{
			name:     "missing scenario",
			key:      Key{SessionID: 34},
			noteKey:  "note_scen_34",
			clueKey:  "clues_scen_34",
			timerKey: "timer_session_34",
		},
		{
			name:     "missing session",
			key:      Key{ScenarioID: "12"},
			noteKey:  "note_12_sess",
			clueKey:  "clues_12_sess",
			timerKey: "timer_session_unknown",
		},
		{
			name:     "missing both",
			key:      Key{},
			noteKey:  "note_scen_sess",
			clueKey:  "clues_scen_sess",
			timerKey: "timer_session_unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.NoteKey(); got != tt.noteKey {
				t.Errorf("NoteKey() = %q, want %q", got, tt.noteKey)
			}
			if got := tt.key.ClueKey(); got != tt.clueKey {
				t.Errorf("ClueKey() = %q, want %q", got, tt.clueKey)
			}
			if got := tt.key.TimerKey(); got != tt.timerKey {
				t.Errorf("TimerKey() = %q, want %q", got, tt.timerKey)
			}
		})
	}
}

func TestTimer_TickAndStop(t *testing.T) {
	tm := NewTimer(10)
	if !tm.Running() {
		t.Fatal("new timer should be running")
	}

	v, ticked := tm.Tick()
	if !ticked || v != 11 {
		t.Errorf("Tick() = (%d, %v), want (11, true)", v, ticked)
	}

	final := tm.Stop()
	if final != 11 {
		t.Errorf("Stop() = %d, want 11", final)
	}
	if tm.Running() {
		t.Error("timer should be stopped")
	}

	// A stray interval callback after the freeze must not move the value
	// or request another persist.
	v, ticked = tm.Tick()
	if ticked || v != 11 {
		t.Errorf("Tick() after Stop = (%d, %v), want (11, false)", v, ticked)
	}

	if again := tm.Stop(); again != 11 {
		t.Errorf("second Stop() = %d, want 11", again)
	}
}

func TestNewTimer_NegativeSeed(t *testing.T) {
	if got := NewTimer(-5).Elapsed(); got != 0 {
		t.Errorf("Elapsed() = %d, want 0", got)
	}
}

func TestSeedElapsed(t *testing.T) {
	tests := []struct {
		name      string
		carryOver int
		navValue  int
		persisted string
		want      int
	}{
		{name: "carry-over wins", carryOver: 90, navValue: 50, persisted: "30", want: 90},
		{name: "carry-over zero is a value", carryOver: 0, navValue: 50, persisted: "30", want: 0},
		{name: "nav value next", carryOver: -1, navValue: 50, persisted: "30", want: 50},
		{name: "persisted next", carryOver: -1, navValue: -1, persisted: "30", want: 30},
		{name: "unparseable persisted", carryOver: -1, navValue: -1, persisted: "junk", want: 0},
		{name: "negative persisted", carryOver: -1, navValue: -1, persisted: "-4", want: 0},
		{name: "nothing available", carryOver: -1, navValue: -1, persisted: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedElapsed(tt.carryOver, tt.navValue, tt.persisted); got != tt.want {
				t.Errorf("SeedElapsed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{754, "12:34"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.seconds); got != tt.want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestBubbleScheduler_ShowReplaces(t *testing.T) {
	b := NewBubbleScheduler(time.Hour) // never auto-hides during the test

	b.Show("Suspect A", "Hello")
	b.Show("Suspect B", "Hi")

	got := b.Current()
	if got.Speaker != "Suspect B" || got.Text != "Hi" || !got.Visible {
		t.Errorf("expected Suspect B bubble showing, got %+v", got)
	}
	b.Stop()
}

func TestBubbleScheduler_AutoHideRetainsText(t *testing.T) {
	b := NewBubbleScheduler(20 * time.Millisecond)
	b.Show("Suspect A", "I was home.")

	deadline := time.Now().Add(2 * time.Second)
	for {
		cur := b.Current()
		if !cur.Visible {
			if cur.Speaker != "Suspect A" || cur.Text != "I was home." {
				t.Errorf("hide dropped speaker/text: %+v", cur)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("bubble never hid")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBubbleScheduler_ShowRestartsWindow(t *testing.T) {
	b := NewBubbleScheduler(60 * time.Millisecond)
	b.Show("Suspect A", "first")
	time.Sleep(40 * time.Millisecond)
	b.Show("Suspect A", "second")
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first show, but only 40ms after the second: the
	// restarted window keeps the bubble up.
	if cur := b.Current(); !cur.Visible || cur.Text != "second" {
		t.Errorf("expected restarted window to keep bubble visible, got %+v", cur)
	}
	b.Stop()
}
