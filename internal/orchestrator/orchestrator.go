// Package orchestrator sequences game sessions turn by turn.
//
// Adapters (console, HTTP, WebSocket) call SelectGame once to obtain a
// session handle and then SubmitAnswer once per validated user answer.
// Sessions live in a store.Store keyed by handle; there is no ambient
// global game state.
package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/game"
	"github.com/robalobadob/gamezone/internal/store"
	"github.com/robalobadob/gamezone/internal/words"
)

// Config describes how new sessions are built.
type Config struct {
	NumberRange   *game.NumberRange    // nil means game.DefaultNumberRange
	Catalog       *words.Catalog
	NewSelector   func() game.Selector // nil means game.Lexical
	QuestionLimit int                  // word game; 0 = unlimited
	Interleave    bool                 // word game; guess after every category answer
}

// Hooks are optional callbacks for adapters that persist progress.
// They run synchronously after the store has been updated.
type Hooks struct {
	Started  func(ctx context.Context, s *game.Session)
	Answered func(ctx context.Context, s *game.Session)
}

// Orchestrator owns every live session.
type Orchestrator struct {
	store   store.Store
	cfg     Config
	numbers game.NumberRange
	hooks   Hooks
	mu    sync.Mutex // serializes turns; the engine itself is single-threaded
}

// New builds an Orchestrator. Nil config fields fall back to the default
// number range and the embedded catalog.
func New(st store.Store, cfg Config, hooks Hooks) *Orchestrator {
	numbers := game.DefaultNumberRange
	if cfg.NumberRange != nil {
		numbers = *cfg.NumberRange
	}
	if cfg.Catalog == nil {
		cfg.Catalog = words.Default()
	}
	return &Orchestrator{store: st, cfg: cfg, numbers: numbers, hooks: hooks}
}

// Catalog is the catalog word games are played with.
func (o *Orchestrator) Catalog() *words.Catalog { return o.cfg.Catalog }

// NumberRange is the range number games are played over.
func (o *Orchestrator) NumberRange() game.NumberRange { return o.numbers }

// SelectGame starts a new session for choice and returns its first step.
// Unrecognized choices return game.ErrInvalidSelection and store nothing.
func (o *Orchestrator) SelectGame(ctx context.Context, choice string) (game.StepResult, error) {
	kind, err := game.ParseKind(choice)
	if err != nil {
		return game.StepResult{}, err
	}
	return o.start(ctx, kind)
}

func (o *Orchestrator) start(ctx context.Context, kind game.Kind) (game.StepResult, error) {
	s := game.Start(o.strategy(kind))
	if err := o.store.Save(ctx, s); err != nil {
		return game.StepResult{}, err
	}
	log.Debug().Str("session", s.ID).Str("game", string(kind)).Msg("session started")
	if o.hooks.Started != nil {
		o.hooks.Started(ctx, s)
	}
	return s.Step(), nil
}

func (o *Orchestrator) strategy(kind game.Kind) game.Strategy {
	if kind == game.KindNumber {
		return game.NewNumberStrategy(o.numbers)
	}
	opts := []game.WordOption{game.WithQuestionLimit(o.cfg.QuestionLimit)}
	if o.cfg.NewSelector != nil {
		opts = append(opts, game.WithSelector(o.cfg.NewSelector()))
	}
	if o.cfg.Interleave {
		opts = append(opts, game.WithInterleavedGuesses())
	}
	return game.NewWordStrategy(o.cfg.Catalog, opts...)
}

// SubmitAnswer applies one answer to the session behind handle. A finished
// session yields game.ErrFinished and its unchanged terminal step; a new
// session is never started implicitly.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, handle string, a game.Answer) (game.StepResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.store.Get(ctx, handle)
	if err != nil {
		return game.StepResult{}, err
	}
	step, err := s.Answer(a)
	if err != nil {
		return step, err
	}
	if err := o.store.Save(ctx, s); err != nil {
		return game.StepResult{}, err
	}
	if step.Terminal() {
		log.Info().
			Str("session", s.ID).
			Str("game", string(s.Kind)).
			Str("status", string(step.Status)).
			Int("attempts", step.Attempts).
			Msg("session finished")
	}
	if o.hooks.Answered != nil {
		o.hooks.Answered(ctx, s)
	}
	return step, nil
}

// Current returns the pending step of a session without changing it.
func (o *Orchestrator) Current(ctx context.Context, handle string) (game.StepResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, err := o.store.Get(ctx, handle)
	if err != nil {
		return game.StepResult{}, err
	}
	return s.Step(), nil
}

// Replay discards the session behind handle and starts a fresh one of the
// same kind under a new handle.
func (o *Orchestrator) Replay(ctx context.Context, handle string) (game.StepResult, error) {
	o.mu.Lock()
	s, err := o.store.Get(ctx, handle)
	if err == nil {
		err = o.store.Delete(ctx, handle)
	}
	o.mu.Unlock()
	if err != nil {
		return game.StepResult{}, err
	}
	return o.start(ctx, s.Kind)
}

// Reset discards the session behind handle. It is safe at any point,
// including mid-game, and resetting an unknown handle is a no-op.
func (o *Orchestrator) Reset(ctx context.Context, handle string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Delete(ctx, handle); err != nil {
		return err
	}
	log.Debug().Str("session", handle).Msg("session reset")
	return nil
}
