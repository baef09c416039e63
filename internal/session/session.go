// Package session owns one player's game: their ledger, the active run and
// its generator, and the store both are persisted to.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/rng"
)

var (
	// ErrNoRun is returned by actions when no run is in progress.
	ErrNoRun = errors.New("no run in progress")
	// ErrRunActive is returned when a finished run is expected.
	ErrRunActive = errors.New("run is still in progress")
	// ErrBiomeLocked is returned when starting a run in a locked biome.
	ErrBiomeLocked = errors.New("biome is locked")
)

// Session is not safe for concurrent use. Each SSH connection and each
// simulated run gets its own.
type Session struct {
	svc    *game.Service
	store  registry.Store
	logger *log.Logger

	meta     *meta.State
	run      *game.Run
	rng      *rng.Rng
	journal  []game.Action
	recorded bool
	last     game.CallResult
}

// New loads and migrates the ledger and resumes any saved run. A corrupt
// saved run is dropped with a warning rather than failing the session.
func New(svc *game.Service, store registry.Store, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{svc: svc, store: store, logger: logger}

	m, err := store.LoadMeta()
	if err != nil {
		return nil, fmt.Errorf("session: load meta: %w", err)
	}
	s.meta = meta.Migrate(m, svc.Tables().Balance.Progression)

	data, err := store.LoadRun()
	if err != nil {
		return nil, fmt.Errorf("session: load run: %w", err)
	}
	if data != nil {
		run, r, err := svc.Deserialize(data, s.meta)
		if err != nil {
			logger.Warn("discarding unreadable saved run", "err", err)
			if err := store.DeleteRun(); err != nil {
				return nil, fmt.Errorf("session: %w", err)
			}
		} else {
			s.run, s.rng = run, r
			// A run is only persisted after its summary was folded in.
			s.recorded = run.Terminal()
			logger.Info("resumed run", "id", run.ID, "floor", run.FloorIndex+1)
		}
	}
	return s, nil
}

// Service returns the game service the session plays with.
func (s *Session) Service() *game.Service { return s.svc }

// Meta returns the live ledger. Callers must not modify it.
func (s *Session) Meta() *meta.State { return s.meta }

// Run returns the current run, or nil.
func (s *Session) Run() *game.Run { return s.run }

// Journal returns the actions applied since the run was started in this
// session.
func (s *Session) Journal() []game.Action { return s.journal }

// LastCall returns the outcome of the most recent call action.
func (s *Session) LastCall() game.CallResult { return s.last }

// Start begins a new run, replacing any unfinished one.
func (s *Session) Start(opts game.Options) (*game.Run, error) {
	if !s.meta.BiomeUnlocked(opts.BiomeID) {
		if _, ok := s.svc.Tables().Biome(opts.BiomeID); ok {
			return nil, fmt.Errorf("session: %w: %s", ErrBiomeLocked, opts.BiomeID)
		}
	}
	r := rng.New(opts.Seed)
	run, err := s.svc.CreateRun(s.meta, r, opts)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.run, s.rng = run, r
	s.journal = nil
	s.recorded = false
	s.last = game.CallResult{}
	s.logger.Info("run started", "id", run.ID, "seed", opts.Seed, "biome", opts.BiomeID, "difficulty", opts.DifficultyID)

	if err := s.persist(); err != nil {
		return run, err
	}
	return run, nil
}

// Do applies one action to the current run and persists the result.
func (s *Session) Do(a game.Action) (*game.Run, error) {
	if s.run == nil {
		return nil, fmt.Errorf("session: %w", ErrNoRun)
	}
	if a.Kind == game.KindCall {
		s.last = s.svc.CallNext(s.meta, s.run, s.rng)
		s.run = s.last.State
	} else {
		s.run = s.svc.Apply(s.meta, s.run, s.rng, a)
	}
	s.journal = append(s.journal, a)

	if s.run.Summary != nil && !s.recorded {
		s.fold()
	}
	if err := s.persist(); err != nil {
		return s.run, err
	}
	return s.run, nil
}

// fold records a finished run in the ledger and the history exactly once.
func (s *Session) fold() {
	sum := s.run.Summary
	prog := s.svc.Tables().Balance.Progression
	before := len(s.meta.Unlocks.Biomes) + len(s.meta.Unlocks.Items)
	xp := s.meta.RecordRun(prog, sum.Victory, sum.FloorsCleared)
	s.recorded = true

	s.logger.Info("run finished",
		"id", s.run.ID,
		"victory", sum.Victory,
		"floors", sum.FloorsCleared,
		"xp", xp,
		"unlocked", len(s.meta.Unlocks.Biomes)+len(s.meta.Unlocks.Items)-before,
	)

	hr, ok := s.store.(registry.HistoryRecorder)
	if !ok {
		return
	}
	err := hr.RecordRun(registry.Record{
		RunID:         s.run.ID,
		Seed:          s.run.Seed,
		BiomeID:       s.run.BiomeID,
		DifficultyID:  s.run.DifficultyID,
		Victory:       sum.Victory,
		FloorsCleared: sum.FloorsCleared,
		DamageDealt:   sum.DamageDealt,
		CallsMade:     sum.CallsMade,
		CoinsEarned:   sum.CoinsEarned,
	})
	if err != nil {
		s.logger.Error("failed to record run history", "err", err)
	}
}

// Acknowledge dismisses a finished run so a new one can start.
func (s *Session) Acknowledge() error {
	if s.run == nil {
		return nil
	}
	if !s.run.Terminal() {
		return fmt.Errorf("session: %w", ErrRunActive)
	}
	s.run, s.rng, s.journal = nil, nil, nil
	s.last = game.CallResult{}
	if err := s.store.DeleteRun(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// Export returns the current run as a portable save.
func (s *Session) Export() ([]byte, error) {
	if s.run == nil {
		return nil, fmt.Errorf("session: %w", ErrNoRun)
	}
	data, err := s.svc.Serialize(s.run, s.rng)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return data, nil
}

// Import replaces the current run with a save produced by Export.
func (s *Session) Import(data []byte) (*game.Run, error) {
	run, r, err := s.svc.Deserialize(data, s.meta)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.run, s.rng = run, r
	s.journal = nil
	s.recorded = run.Terminal()
	s.last = game.CallResult{}
	s.logger.Info("run imported", "id", run.ID, "floor", run.FloorIndex+1)
	if err := s.persist(); err != nil {
		return run, err
	}
	return run, nil
}

// UnlockAll grants every biome and item. Used by the content debug command.
func (s *Session) UnlockAll() error {
	s.meta.UnlockAll(s.svc.Tables())
	if err := s.store.SaveMeta(s.meta); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

func (s *Session) persist() error {
	if err := s.store.SaveMeta(s.meta); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if s.run == nil {
		return nil
	}
	data, err := s.svc.Serialize(s.run, s.rng)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := s.store.SaveRun(data); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
