package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// SnapshotVersion is the current save format version.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned for saves from an unknown format version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is the persisted form of a run: the whole run plus the generator
// state needed to continue it.
type Snapshot struct {
	Version int    `json:"version"`
	Run     *Run   `json:"run"`
	RNG     uint32 `json:"rng"`
}

// Serialize encodes a run and its generator into an opaque save.
func (s *Service) Serialize(run *Run, r *rng.Rng) ([]byte, error) {
	data, err := json.Marshal(Snapshot{Version: SnapshotVersion, Run: run, RNG: r.State()})
	if err != nil {
		return nil, fmt.Errorf("game: encode snapshot: %w", err)
	}
	return data, nil
}

// Deserialize restores a save. Content references are re-linked, transient
// encounter fields are re-derived, and the codex is updated.
func (s *Service) Deserialize(data []byte, m *meta.State) (*Run, *rng.Rng, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("game: decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, nil, fmt.Errorf("game: %w %d", ErrSnapshotVersion, snap.Version)
	}
	if snap.Run == nil {
		return nil, nil, fmt.Errorf("game: snapshot has no run")
	}
	run := snap.Run

	biome, ok := s.tables.Biome(run.BiomeID)
	if !ok {
		return nil, nil, fmt.Errorf("game: %w %q", ErrUnknownBiome, run.BiomeID)
	}
	diff, ok := s.tables.Difficulty(run.DifficultyID)
	if !ok {
		return nil, nil, fmt.Errorf("game: %w %q", ErrUnknownDifficulty, run.DifficultyID)
	}
	run.Biome = biome
	run.Difficulty = diff
	if run.BoardSize == 0 {
		run.BoardSize = diff.BoardSize
	}

	if enc := run.EncounterModifier; enc != nil {
		bc := enc.Def.Effect.BlockedColumns
		if bc != nil && !enc.BlockSpent && enc.BlockRemaining == 0 {
			enc.BlockedColumns = slices.Clone(bc.Columns)
			enc.BlockRemaining = bc.Calls
		}
		if enc.Def.Effect.SequenceOffset == nil {
			enc.SequenceStarted = false
			enc.SequenceRemaining = 0
		}
	}

	s.updateCodex(m, run)
	return run, rng.New(snap.RNG), nil
}
