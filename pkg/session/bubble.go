package session

import (
	"sync"
	"time"
)

// BubbleDuration is how long an answer stays visible above a suspect.
const BubbleDuration = 5 * time.Second

// Bubble is the transient on-stage speech bubble. On hide the last
// speaker and text are retained so a fade-out can still reference them;
// the next Show overwrites both.
type Bubble struct {
	Speaker string `json:"suspect_name"`
	Text    string `json:"text"`
	Visible bool   `json:"showing"`
}

// BubbleScheduler drives the single system-wide bubble. Each Show
// cancels any pending auto-hide and restarts the window, so a later
// answer replaces the current bubble rather than queuing behind it.
type BubbleScheduler struct {
	mu       sync.Mutex
	current  Bubble
	hide     *time.Timer
	duration time.Duration
}

// NewBubbleScheduler returns a scheduler with the given hide window;
// d <= 0 selects BubbleDuration. Tests pass a short window.
func NewBubbleScheduler(d time.Duration) *BubbleScheduler {
	if d <= 0 {
		d = BubbleDuration
	}
	return &BubbleScheduler{duration: d}
}

// Show makes the bubble visible for speaker with text and schedules the
// auto-hide, pre-empting any pending one.
func (b *BubbleScheduler) Show(speaker, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hide != nil {
		b.hide.Stop()
	}
	b.current = Bubble{Speaker: speaker, Text: text, Visible: true}
	b.hide = time.AfterFunc(b.duration, b.hideNow)
}

func (b *BubbleScheduler) hideNow() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Visible = false
	b.hide = nil
}

// Current returns a snapshot of the bubble state.
func (b *BubbleScheduler) Current() Bubble {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Stop cancels any pending auto-hide. Used at session-view teardown.
func (b *BubbleScheduler) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hide != nil {
		b.hide.Stop()
		b.hide = nil
	}
}
