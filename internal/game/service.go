package game

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

var (
	// ErrUnknownBiome is returned when a run names a biome the tables lack.
	ErrUnknownBiome = errors.New("unknown biome")
	// ErrUnknownDifficulty is returned when a run names an undefined difficulty.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// runNamespace scopes the deterministic run ids.
var runNamespace = uuid.MustParse("6f1c2a8e-93d4-4b7a-9a35-0f5e2d7c41b9")

// Service runs the state machine over a fixed set of content tables.
// It holds no per-run state and is safe for concurrent use.
type Service struct {
	tables *content.Tables
}

// NewService creates a service over validated tables.
func NewService(tables *content.Tables) *Service {
	return &Service{tables: tables}
}

// Tables returns the content the service plays with.
func (s *Service) Tables() *content.Tables {
	return s.tables
}

// Options select a new run.
type Options struct {
	Seed         uint32
	BiomeID      string
	DifficultyID string
}

// CreateRun starts a run on floor 0. Unknown biome or difficulty ids are
// configuration errors.
func (s *Service) CreateRun(m *meta.State, r *rng.Rng, opts Options) (*Run, error) {
	biome, ok := s.tables.Biome(opts.BiomeID)
	if !ok {
		return nil, fmt.Errorf("game: %w %q", ErrUnknownBiome, opts.BiomeID)
	}
	diff, ok := s.tables.Difficulty(opts.DifficultyID)
	if !ok {
		return nil, fmt.Errorf("game: %w %q", ErrUnknownDifficulty, opts.DifficultyID)
	}
	prog := s.tables.Balance.Progression

	run := &Run{
		Seed:         opts.Seed,
		BiomeID:      biome.ID,
		DifficultyID: diff.ID,
		Biome:        biome,
		Difficulty:   diff,
		BoardSize:    diff.BoardSize,
		Player: PlayerState{
			Hearts:      diff.StartingHearts + m.HeartBonus(prog),
			Coins:       diff.StartingCoins,
			FreeDaubers: diff.StartingFreeDaubers,
			BombReady:   true,
			Statuses:    []Status{},
		},
		Inventory:      []InventoryItem{},
		Shop:           []ShopOffer{},
		DefeatedBosses: []string{},
		AdaptiveThreat: s.tables.Balance.Adaptive.ThreatStart,
	}
	run.ID = uuid.NewSHA1(runNamespace, fmt.Appendf(nil, "%d:%d", opts.Seed, r.Int(1_000_000))).String()
	run.logf("You enter the %s.", biome.Name)
	s.enterFloor(m, run, r, 0)
	return run, nil
}

// AdvanceFloor moves from the post-victory shop to the next floor.
func (s *Service) AdvanceFloor(m *meta.State, run *Run, r *rng.Rng) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if !next.AwaitingAdvance {
		next.logf("Defeat %s before moving on.", next.Boss.Def.Name)
		return next
	}
	next.AwaitingAdvance = false
	next.ShopAvailable = false
	next.Shop = []ShopOffer{}
	next.Player.FreeDaubers++
	next.Player.BombReady = true
	next.Player.Statuses = tickStatus(next.Player.Statuses, content.StatusVision)
	s.enterFloor(m, next, r, next.FloorIndex+1)
	return next
}

// enterFloor builds the boss, deck and board for floor and rolls modifiers.
// Draw order: deck, board, floor modifier, encounter modifier, events.
func (s *Service) enterFloor(m *meta.State, run *Run, r *rng.Rng, floor int) {
	bal := &s.tables.Balance
	diff := run.Difficulty
	def := run.Biome.Floors[floor]

	run.FloorIndex = floor
	run.Boss = s.createBoss(def, floor, run.AdaptiveThreat)
	for _, id := range def.Statuses {
		run.addStatus(Status{ID: id, Stacks: 1, Target: content.TargetBoss})
	}

	run.Deck = board.ShuffleDeck(r, diff.BoardSize, bal.Board.NumbersPerColumn)
	run.Board = board.Build(r, board.Params{
		Size:      diff.BoardSize,
		PerColumn: bal.Board.NumbersPerColumn,
		Distinct:  board.DistinctFor(diff.DistinctNumbers, diff.BoardSize, floor),
		Columns:   bal.Board.Columns,
	})
	s.charmCenter(run)
	run.CallCap = diff.CallCapBase + diff.CallCapPerFloor*floor
	run.CallsMade = 0
	run.LastCall = 0
	run.Player.Combo = 0

	run.FloorModifier = nil
	if len(s.tables.FloorModifiers) > 0 && r.Next() >= bal.FloorModifierSkip {
		fm := rng.Pick(r, s.tables.FloorModifiers)
		run.FloorModifier = &fm
	}

	run.EncounterModifier = nil
	if diff.IsNegativeFloor(floor) && len(s.tables.EncounterModifiers) > 0 && r.Next() < bal.EncounterChance {
		run.EncounterModifier = newEncounter(rng.Pick(r, s.tables.EncounterModifiers))
	}

	if enc := run.EncounterModifier; enc != nil {
		run.CallCap = max(1, run.CallCap+enc.Def.Effect.CallCapModifier)
		if g := enc.Def.Effect.StartingStatus; g != nil {
			run.grant(*g)
		}
	}
	if fm := run.FloorModifier; fm != nil {
		run.Player.Hearts += fm.Effect.Heal
		run.Player.Combo = min(bal.Combo.Max, fm.Effect.ComboStart)
	}

	run.Events = s.generateEvents(run.Biome, r)

	run.logf("Floor %d: %s approaches.", floor+1, def.Name)
	if fm := run.FloorModifier; fm != nil {
		run.logf("%s: %s", fm.Label, fm.Description)
	}
	if enc := run.EncounterModifier; enc != nil {
		run.logf("Encounter - %s: %s", enc.Def.Name, enc.Def.Description)
	}
	s.refreshPreview(m, run)
	s.updateCodex(m, run)
}

// charmCenter marks and charms the center cell while the center relic is owned.
func (s *Service) charmCenter(run *Run) {
	id := s.tables.Balance.Relics.CenterMark
	if id == "" || !run.Owns(id) {
		return
	}
	c := &run.Board[board.Center(run.BoardSize)]
	c.Marked = true
	c.Status = CellCharm
}

// charmedLine reports whether the cells in hits completed a line through a
// charmed cell.
func charmedLine(run *Run, hits []int) bool {
	for _, line := range board.Lines(run.BoardSize) {
		charmed, fresh, complete := false, false, true
		for _, i := range line {
			c := run.Board[i]
			if !c.Marked {
				complete = false
				break
			}
			charmed = charmed || c.Status == CellCharm
			fresh = fresh || slices.Contains(hits, i)
		}
		if complete && charmed && fresh {
			return true
		}
	}
	return false
}

// newEncounter snapshots a modifier into run state and primes its countdowns.
func newEncounter(def content.EncounterModifier) *EncounterState {
	enc := &EncounterState{Def: cloneEncounter(def)}
	if bc := enc.Def.Effect.BlockedColumns; bc != nil {
		enc.BlockedColumns = slices.Clone(bc.Columns)
		enc.BlockRemaining = bc.Calls
	}
	return enc
}

func cloneEncounter(def content.EncounterModifier) content.EncounterModifier {
	out := def
	if so := def.Effect.SequenceOffset; so != nil {
		c := *so
		out.Effect.SequenceOffset = &c
	}
	if bc := def.Effect.BlockedColumns; bc != nil {
		c := *bc
		c.Columns = slices.Clone(bc.Columns)
		out.Effect.BlockedColumns = &c
	}
	if st := def.Effect.StartingStatus; st != nil {
		c := *st
		out.Effect.StartingStatus = &c
	}
	return out
}

func (s *Service) createBoss(def content.Boss, floor int, threat float64) BossState {
	hp := int(math.Round(float64(def.BaseHP) * (1 + float64(floor)*0.18) * threat))
	hp = max(hp, 1)
	return BossState{Def: def, HP: hp, MaxHP: hp, Statuses: []Status{}}
}

func (s *Service) generateEvents(biome *content.Biome, r *rng.Rng) []ActiveEvent {
	pool := rng.Shuffle(r, slices.Clone(biome.Events))
	events := make([]ActiveEvent, 0, 2)
	for _, id := range pool[:min(2, len(pool))] {
		events = append(events, ActiveEvent{ID: id})
	}
	return events
}

// PreviewLength returns how many upcoming draws the player can see.
func (s *Service) PreviewLength(m *meta.State, run *Run) int {
	bal := &s.tables.Balance
	n := bal.PreviewBase + m.VisionBonus(bal.Progression)
	n += s.passivePower(run, content.TagVision)
	if fm := run.FloorModifier; fm != nil {
		n += fm.Effect.PreviewDelta
	}
	if enc := run.EncounterModifier; enc != nil {
		n -= enc.Def.Effect.PreviewPenalty
	}
	n += stacksOf(run.Player.Statuses, content.StatusVision)
	return max(0, n)
}

func (s *Service) refreshPreview(m *meta.State, run *Run) {
	n := min(s.PreviewLength(m, run), len(run.Deck))
	run.Preview = slices.Clone(run.Deck[:n])
}

// passivePower sums rarity power × quantity over equipped passives with tag.
func (s *Service) passivePower(run *Run, tag string) int {
	total := 0
	for _, it := range run.Inventory {
		if it.Def.Passive() && it.Def.HasTag(tag) {
			total += it.Def.Rarity.Power() * it.Quantity
		}
	}
	return total
}

func (s *Service) hasPassiveTag(run *Run, tag string) bool {
	for _, it := range run.Inventory {
		if it.Quantity > 0 && it.Def.Passive() && it.Def.HasTag(tag) {
			return true
		}
	}
	return false
}

func (s *Service) cursed(run *Run) bool {
	for _, it := range run.Inventory {
		if it.Quantity > 0 && it.Def.Type == content.ItemCurse {
			return true
		}
	}
	return false
}

// updateCodex records everything the run has shown the player.
func (s *Service) updateCodex(m *meta.State, run *Run) {
	for _, it := range run.Inventory {
		m.DiscoverItem(it.Def.ID)
	}
	m.DiscoverBoss(run.Boss.Def.ID)
	for _, st := range run.Boss.Statuses {
		m.DiscoverStatus(st.ID)
	}
	for _, st := range run.Player.Statuses {
		m.DiscoverStatus(st.ID)
	}
}

func (s *Service) finish(run *Run, victory bool) {
	if run.Summary != nil {
		return
	}
	run.Summary = &Summary{
		Victory:         victory,
		FloorsCleared:   len(run.DefeatedBosses),
		DamageDealt:     run.Metrics.DamageDealt,
		CallsMade:       run.Metrics.CallsMade,
		ItemsCollected:  run.Metrics.ItemsCollected,
		StatusesApplied: run.Metrics.StatusesApplied,
		CoinsEarned:     run.Metrics.CoinsEarned,
	}
	run.AwaitingAdvance = false
	run.ShopAvailable = false
	if victory {
		run.logf("Victory! The %s is cleared.", run.Biome.Name)
	} else {
		run.logf("You have fallen on floor %d.", run.FloorIndex+1)
	}
}
