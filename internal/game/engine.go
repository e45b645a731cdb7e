// internal/game/engine.go
//
// Guess engine for a single game session.
// Responsibilities:
//   - Start a session from a Strategy and pend its first proposal.
//   - Apply exactly one validated answer per turn through the Strategy.
//   - Track state transitions: awaiting_answer → solved | exhausted.
//
// Notes:
//   - The engine does no I/O; adapters render proposals and parse answers.
//   - Degenerate configurations (e.g. a one-value number range) resolve
//     during Start without asking anything.
package game

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Strategy narrows the search space for one game kind.
//
// Propose is only called while Outcome reports StatusAwaiting and must return
// the same proposal until Apply is called.
type Strategy interface {
	Kind() Kind
	Propose() Proposal
	Apply(a Answer)
	Outcome() Outcome
}

// Session holds the state of one game from selection to its terminal outcome.
type Session struct {
	ID        string    // Handle used by adapters (uuid).
	Kind      Kind      // Game being played.
	Attempts  int       // Answered proposals so far.
	StartedAt time.Time // Creation time (UTC).

	strategy Strategy
	outcome  Outcome
	pending  *Proposal
}

// Start creates a session driven by s.
func Start(s Strategy) *Session {
	g := &Session{
		ID:        uuid.NewString(),
		Kind:      s.Kind(),
		StartedAt: time.Now().UTC(),
		strategy:  s,
	}
	g.advance()
	return g
}

// Answer applies a to the pending proposal and returns the next step.
// A finished session is left untouched and ErrFinished is returned along
// with its terminal result.
func (g *Session) Answer(a Answer) (StepResult, error) {
	if g.outcome.Terminal() {
		return g.Step(), ErrFinished
	}
	g.strategy.Apply(a)
	g.Attempts++
	g.advance()
	return g.Step(), nil
}

// Step reports the current result without consuming an answer.
func (g *Session) Step() StepResult {
	res := StepResult{
		SessionID: g.ID,
		Game:      g.Kind,
		Status:    g.outcome.Status,
		Value:     g.outcome.Value,
		Attempts:  g.Attempts,
	}
	if g.pending != nil {
		p := *g.pending
		p.Options = slices.Clone(p.Options)
		res.Proposal = &p
	}
	return res
}

// Outcome is the current outcome (StatusAwaiting while in play).
func (g *Session) Outcome() Outcome { return g.outcome }

// Finished reports whether the session reached a terminal state.
func (g *Session) Finished() bool { return g.outcome.Terminal() }

// Strategy exposes the underlying strategy (read-only use: tests, debug views).
func (g *Session) Strategy() Strategy { return g.strategy }

// advance refreshes the outcome and the pending proposal after a change.
func (g *Session) advance() {
	g.outcome = g.strategy.Outcome()
	if g.outcome.Terminal() {
		g.pending = nil
		return
	}
	p := g.strategy.Propose()
	g.pending = &p
}
