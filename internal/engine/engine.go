// Package engine orchestrates one playing session: it resolves who is
// being asked a question, dispatches answer requests, maintains the
// transcript, grows the collected-evidence set, and runs the session
// clock and speech bubble. Exactly one session is active per Engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/minsnailee/llm-detective/internal/services"
	"github.com/minsnailee/llm-detective/internal/storage"
	"github.com/minsnailee/llm-detective/pkg/chat"
	"github.com/minsnailee/llm-detective/pkg/evidence"
	"github.com/minsnailee/llm-detective/pkg/scenario"
	"github.com/minsnailee/llm-detective/pkg/session"
)

// Precondition violations. Rejected before any request is sent and never
// retried automatically.
var (
	ErrNoSession     = errors.New("no session: restart from scenario select")
	ErrNoTarget      = errors.New("no question target selected")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrAskInFlight   = errors.New("a question is already being asked")
	ErrCaseEnded     = errors.New("the case has ended")
)

// Placeholder turns recorded when one suspect fails to answer during a
// broadcast. The failure class picks the text.
const (
	placeholderDenied = "(access denied or session expired)"
	placeholderFailed = "(response failed)"
)

// Config wires a session engine at play-view mount.
type Config struct {
	Logger     *slog.Logger
	Cache      services.Cache
	AskClient  services.AskClient
	ScenarioID string
	SessionID  int
	Content    scenario.Content

	// Timer seeding, highest precedence first. Use -1 for "absent".
	CarryOverSeconds int
	NavSeconds       int

	// Overrides for tests; zero selects the defaults.
	BubbleDuration time.Duration
	TickInterval   time.Duration
	Now            func() time.Time
}

// AskResult is what one dispatch produced.
type AskResult struct {
	// Turns are the transcript entries appended by this dispatch: the
	// player turn plus one NPC turn per answering (or failing) suspect.
	Turns []chat.Message
	// InputCleared tells the view to clear the question input. Set when
	// a request was actually attempted and the dispatch ran to the end.
	InputCleared bool
	// NewEvidence lists evidence ids first detected during this dispatch.
	NewEvidence []string
}

// Report is the read-only hand-off to the reporting flow at end-of-case.
type Report struct {
	SessionID      int      `json:"session_id"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	Evidence       []string `json:"evidence"`
	Notes          string   `json:"notes"`
}

// Engine runs one interrogation session.
type Engine struct {
	logger *slog.Logger
	asker  services.AskClient

	key     session.Key
	content scenario.Content
	roster  []scenario.Character

	mu         sync.Mutex
	transcript *chat.Transcript
	detector   *evidence.Detector
	collected  *evidence.Set
	notes      string
	timer      *session.Timer
	asking     bool
	ended      bool

	bubble *session.BubbleScheduler

	timerStore *storage.TimerStore
	notesStore *storage.NotesStore
	clueStore  *storage.ClueStore

	now      func() time.Time
	tickEach time.Duration
	stopTick chan struct{}
	tickDone chan struct{}
}

// New mounts a session engine, restoring notes, collected evidence and
// the timer seed from persisted state. Restore failures degrade to empty
// state; a flaky store must not block play.
func New(ctx context.Context, cfg Config) *Engine {
	key := session.Key{ScenarioID: cfg.ScenarioID, SessionID: cfg.SessionID}

	e := &Engine{
		logger:     cfg.Logger,
		asker:      cfg.AskClient,
		key:        key,
		content:    cfg.Content,
		roster:     cfg.Content.Roster(),
		transcript: chat.NewTranscript(),
		detector:   evidence.NewDetector(cfg.Content.Evidence),
		bubble:     session.NewBubbleScheduler(cfg.BubbleDuration),
		timerStore: storage.NewTimerStore(cfg.Cache, key),
		notesStore: storage.NewNotesStore(cfg.Cache, key),
		clueStore:  storage.NewClueStore(cfg.Cache, key),
		now:        cfg.Now,
		tickEach:   cfg.TickInterval,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.tickEach <= 0 {
		e.tickEach = time.Second
	}

	ids, err := e.clueStore.Load(ctx)
	if err != nil {
		e.logger.Warn("Failed to restore collected evidence", "error", err)
	}
	e.collected = evidence.NewSet(ids...)

	notes, err := e.notesStore.Load(ctx)
	if err != nil {
		e.logger.Warn("Failed to restore notes", "error", err)
	}
	e.notes = notes

	persisted, err := e.timerStore.Load(ctx)
	if err != nil {
		e.logger.Warn("Failed to restore timer", "error", err)
	}
	e.timer = session.NewTimer(session.SeedElapsed(cfg.CarryOverSeconds, cfg.NavSeconds, persisted))

	return e
}

// StartClock launches the 1-second tick loop, persisting after every
// tick. It runs until EndCase or Close.
func (e *Engine) StartClock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopTick != nil || e.ended {
		return
	}
	e.stopTick = make(chan struct{})
	e.tickDone = make(chan struct{})
	go e.runClock(e.stopTick, e.tickDone)
}

func (e *Engine) runClock(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tickEach)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			seconds, ticked := e.timer.Tick()
			e.mu.Unlock()
			if !ticked {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := e.timerStore.Save(ctx, seconds); err != nil {
				e.logger.Warn("Failed to persist timer tick", "seconds", seconds, "error", err)
			}
			cancel()
		}
	}
}

func (e *Engine) stopClockLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// HandleAsk runs one dispatch: precondition checks, the player turn,
// then the answer request(s). target is chat.TargetAll or a suspect
// name. At most one dispatch is in flight at a time; a second call while
// one runs fails with ErrAskInFlight.
func (e *Engine) HandleAsk(ctx context.Context, target, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if e.key.SessionID <= 0 {
		return nil, ErrNoSession
	}
	if target != chat.TargetAll {
		if strings.TrimSpace(target) == "" {
			return nil, ErrNoTarget
		}
		if _, ok := e.content.FindCharacter(target); !ok {
			return nil, fmt.Errorf("%w: unknown suspect %q", ErrNoTarget, target)
		}
	}

	e.mu.Lock()
	if e.ended {
		e.mu.Unlock()
		return nil, ErrCaseEnded
	}
	if e.asking {
		e.mu.Unlock()
		return nil, ErrAskInFlight
	}
	e.asking = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.asking = false
		e.mu.Unlock()
	}()

	result := &AskResult{}

	speaker := target
	idSuffix := "u"
	if target == chat.TargetAll {
		speaker = chat.SpeakerBroadcast
	}
	e.mu.Lock()
	playerTurn := e.transcript.Append(chat.RolePlayer, speaker, question, e.now().Unix(), idSuffix)
	e.mu.Unlock()
	result.Turns = append(result.Turns, playerTurn)
	result.NewEvidence = append(result.NewEvidence, e.scanText(ctx, question)...)

	if target == chat.TargetAll {
		if err := e.broadcast(ctx, question, result); err != nil {
			return nil, err
		}
	} else {
		if err := e.askOne(ctx, target, question, result); err != nil {
			return nil, err
		}
	}

	result.InputCleared = true
	return result, nil
}

// askOne is the single-target path: one request through the fallback
// chain. A failure leaves the player turn in the transcript and is
// surfaced to the caller.
func (e *Engine) askOne(ctx context.Context, name, question string, result *AskResult) error {
	answer, err := e.asker.Ask(ctx, chat.AskRequest{
		SessionID:   e.key.SessionID,
		SuspectName: name,
		UserText:    question,
	})
	if err != nil {
		e.logger.Error("Ask dispatch failed", "suspect", name, "error", err)
		return fmt.Errorf("failed to get an answer from %s: %w", name, err)
	}

	e.mu.Lock()
	turn := e.transcript.Append(chat.RoleNPC, name, answer, e.now().Unix(), "a_"+name)
	e.mu.Unlock()
	result.Turns = append(result.Turns, turn)

	if answer != "" {
		e.bubble.Show(name, answer)
	}
	result.NewEvidence = append(result.NewEvidence, e.scanText(ctx, answer)...)
	return nil
}

// broadcast asks every suspect in roster order, one at a time. Each
// request is completed and captured before the next begins; requests are
// deliberately not concurrent to avoid tripping the answer service's
// rate limiting. A per-suspect failure becomes a placeholder turn and
// the remaining suspects are still asked.
func (e *Engine) broadcast(ctx context.Context, question string, result *AskResult) error {
	if len(e.roster) == 0 {
		return fmt.Errorf("%w: the stage is empty", ErrNoTarget)
	}

	type outcome struct {
		name   string
		answer string
		err    error
	}

	outcomes := make([]outcome, 0, len(e.roster))
	for _, ch := range e.roster {
		answer, err := e.asker.Ask(ctx, chat.AskRequest{
			SessionID:   e.key.SessionID,
			SuspectName: ch.Name,
			UserText:    question,
		})
		outcomes = append(outcomes, outcome{name: ch.Name, answer: answer, err: err})
	}

	for _, o := range outcomes {
		if o.err != nil {
			e.logger.Warn("Broadcast ask failed for suspect", "suspect", o.name, "error", o.err)
			text := placeholderFailed
			if errors.Is(o.err, services.ErrAccessDenied) {
				text = placeholderDenied
			}
			e.mu.Lock()
			turn := e.transcript.Append(chat.RoleNPC, o.name, text, e.now().Unix(), "a_err_"+o.name)
			e.mu.Unlock()
			result.Turns = append(result.Turns, turn)
			continue
		}

		e.mu.Lock()
		turn := e.transcript.Append(chat.RoleNPC, o.name, o.answer, e.now().Unix(), "a_"+o.name)
		e.mu.Unlock()
		result.Turns = append(result.Turns, turn)

		if o.answer != "" {
			e.bubble.Show(o.name, o.answer)
		}
		result.NewEvidence = append(result.NewEvidence, e.scanText(ctx, o.answer)...)
	}
	return nil
}

// scanText runs evidence detection over one block of dialogue text and
// persists the grown set in a single batch. Returns the newly found ids.
func (e *Engine) scanText(ctx context.Context, text string) []string {
	e.mu.Lock()
	found := e.detector.Scan(text, e.collected)
	if len(found) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.collected.Add(found...)
	ids := e.collected.IDs()
	e.mu.Unlock()

	if err := e.clueStore.Save(ctx, ids); err != nil {
		e.logger.Warn("Failed to persist collected evidence", "error", err)
	}
	return found
}

// RemoveEvidence drops one collected id, the only way the set shrinks.
func (e *Engine) RemoveEvidence(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	removed := e.collected.Remove(id)
	ids := e.collected.IDs()
	e.mu.Unlock()

	if !removed {
		return false, nil
	}
	if err := e.clueStore.Save(ctx, ids); err != nil {
		return true, fmt.Errorf("evidence removed but not persisted: %w", err)
	}
	return true, nil
}

// SetNotes persists the scratchpad text. Called on every edit.
func (e *Engine) SetNotes(ctx context.Context, text string) error {
	e.mu.Lock()
	e.notes = text
	e.mu.Unlock()
	return e.notesStore.Save(ctx, text)
}

// ResetNotes clears the scratchpad. The reporting flow calls this after
// a successful submission.
func (e *Engine) ResetNotes(ctx context.Context) error {
	return e.SetNotes(ctx, "")
}

// Notes returns the current scratchpad text.
func (e *Engine) Notes() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notes
}

// Transcript returns a filtered view of the dialogue log.
func (e *Engine) Transcript(speaker string) []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcript.Filter(speaker)
}

// PinnedSamples returns the flavor lines rendered ahead of the log for
// the given speaker filter.
func (e *Engine) PinnedSamples(speaker string) []scenario.Character {
	return chat.PinnedSamples(e.roster, speaker)
}

// Roster returns the askable characters in stage order.
func (e *Engine) Roster() []scenario.Character {
	return e.roster
}

// Content returns the scenario content the session plays against.
func (e *Engine) Content() scenario.Content {
	return e.content
}

// CollectedEvidence returns the collected ids in collection order.
func (e *Engine) CollectedEvidence() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collected.IDs()
}

// Elapsed returns the current timer value in seconds.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer.Elapsed()
}

// Bubble returns the current speech-bubble snapshot.
func (e *Engine) Bubble() session.Bubble {
	return e.bubble.Current()
}

// Asking reports whether a dispatch is in flight.
func (e *Engine) Asking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.asking
}

// EndCase freezes the timer exactly once and hands the frozen seconds,
// the collected evidence and the notes to the reporting flow. The engine
// itself submits nothing. Calling it again returns the same report.
func (e *Engine) EndCase(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	first := !e.ended
	e.ended = true
	e.stopClockLocked()
	final := e.timer.Stop()
	report := &Report{
		SessionID:      e.key.SessionID,
		ElapsedSeconds: final,
		Evidence:       e.collected.IDs(),
		Notes:          e.notes,
	}
	done := e.tickDone
	e.mu.Unlock()

	if done != nil {
		<-done
	}

	if first {
		if err := e.timerStore.Save(ctx, final); err != nil {
			return report, fmt.Errorf("failed to persist final time: %w", err)
		}
	}
	return report, nil
}

// Close tears the session view down: clock and bubble timers are
// cleared. Persisted state stays for the next mount.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopClockLocked()
	done := e.tickDone
	e.mu.Unlock()
	if done != nil {
		<-done
	}
	e.bubble.Stop()
}

