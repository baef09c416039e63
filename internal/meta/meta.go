// Package meta is the persistent progression ledger that outlives single
// runs: XP, unlocks, lifetime stats and the codex of things discovered.
package meta

import (
	"slices"

	"github.com/vovakirdan/wingo/internal/content"
)

// Version is the current meta schema version.
const Version = 1

// Unlocks are the biome and item ids available to new runs.
type Unlocks struct {
	Biomes []string `json:"biomes"`
	Items  []string `json:"items"`
}

// Stats are lifetime counters.
type Stats struct {
	Runs      int `json:"runs"`
	Victories int `json:"victories"`
	BestFloor int `json:"bestFloor"`
}

// Codex records every item, boss and status the player has encountered.
type Codex struct {
	Items    []string `json:"items"`
	Bosses   []string `json:"bosses"`
	Statuses []string `json:"statuses"`
}

// Settings are player preferences carried with the ledger.
type Settings struct {
	ReducedMotion bool   `json:"reducedMotion"`
	ColorPalette  string `json:"colorPalette"`
}

// State is the whole progression ledger.
type State struct {
	Version  int      `json:"version"`
	XP       int      `json:"xp"`
	Unlocks  Unlocks  `json:"unlocks"`
	Stats    Stats    `json:"stats"`
	Codex    Codex    `json:"codex"`
	Settings Settings `json:"settings"`
}

// Default returns a fresh ledger with the starting unlocks.
func Default(p content.Progression) *State {
	return &State{
		Version: Version,
		Unlocks: Unlocks{
			Biomes: slices.Clone(p.StartingBiomes),
			Items:  slices.Clone(p.StartingItems),
		},
		Codex:    Codex{Items: []string{}, Bosses: []string{}, Statuses: []string{}},
		Settings: Settings{ColorPalette: "default"},
	}
}

// Migrate brings a loaded ledger up to date: it stamps the current version
// and guarantees the starting unlocks are present. A nil ledger yields Default.
func Migrate(m *State, p content.Progression) *State {
	if m == nil {
		return Default(p)
	}
	out := m.Clone()
	out.Version = Version
	for _, id := range p.StartingBiomes {
		out.UnlockBiome(id)
	}
	for _, id := range p.StartingItems {
		out.UnlockItem(id)
	}
	if out.Codex.Items == nil {
		out.Codex.Items = []string{}
	}
	if out.Codex.Bosses == nil {
		out.Codex.Bosses = []string{}
	}
	if out.Codex.Statuses == nil {
		out.Codex.Statuses = []string{}
	}
	if out.Settings.ColorPalette == "" {
		out.Settings.ColorPalette = "default"
	}
	return out
}

// Clone returns a deep copy.
func (m *State) Clone() *State {
	out := *m
	out.Unlocks.Biomes = slices.Clone(m.Unlocks.Biomes)
	out.Unlocks.Items = slices.Clone(m.Unlocks.Items)
	out.Codex.Items = slices.Clone(m.Codex.Items)
	out.Codex.Bosses = slices.Clone(m.Codex.Bosses)
	out.Codex.Statuses = slices.Clone(m.Codex.Statuses)
	return &out
}

// HeartBonus returns the extra starting hearts earned through XP.
func (m *State) HeartBonus(p content.Progression) int {
	return content.BonusFor(p.HeartBonus, m.XP)
}

// VisionBonus returns the extra preview slots earned through XP.
func (m *State) VisionBonus(p content.Progression) int {
	return content.BonusFor(p.VisionBonus, m.XP)
}

// BiomeUnlocked reports whether a biome may be chosen for a new run.
func (m *State) BiomeUnlocked(id string) bool {
	return slices.Contains(m.Unlocks.Biomes, id)
}

// ItemUnlocked reports whether an item may appear in and be bought from shops.
func (m *State) ItemUnlocked(id string) bool {
	return slices.Contains(m.Unlocks.Items, id)
}

// UnlockBiome adds a biome to the unlocked set. It reports whether it was new.
func (m *State) UnlockBiome(id string) bool {
	return appendUnique(&m.Unlocks.Biomes, id)
}

// UnlockItem adds an item to the unlocked set. It reports whether it was new.
func (m *State) UnlockItem(id string) bool {
	return appendUnique(&m.Unlocks.Items, id)
}

// DiscoverItem records an item in the codex.
func (m *State) DiscoverItem(id string) { appendUnique(&m.Codex.Items, id) }

// DiscoverBoss records a boss in the codex.
func (m *State) DiscoverBoss(id string) { appendUnique(&m.Codex.Bosses, id) }

// DiscoverStatus records a status effect in the codex.
func (m *State) DiscoverStatus(id string) { appendUnique(&m.Codex.Statuses, id) }

// RecordRun folds a finished run into the ledger: stats, XP, and any
// biome or item unlocks whose XP threshold is now reached. It returns the XP
// gained.
func (m *State) RecordRun(p content.Progression, victory bool, floorsCleared int) int {
	m.Stats.Runs++
	if victory {
		m.Stats.Victories++
	}
	m.Stats.BestFloor = max(m.Stats.BestFloor, floorsCleared)

	gained := floorsCleared * p.XPPerFloor
	if victory {
		gained += p.VictoryXP
	}
	m.XP += gained

	for _, u := range p.BiomeUnlocks {
		if m.XP >= u.XP {
			m.UnlockBiome(u.ID)
		}
	}
	for _, u := range p.ItemUnlocks {
		if m.XP >= u.XP {
			m.UnlockItem(u.ID)
		}
	}
	return gained
}

// UnlockAll marks every biome and item in the tables as unlocked.
// Simulations use it to explore the full content pool.
func (m *State) UnlockAll(t *content.Tables) {
	for _, b := range t.Biomes {
		m.UnlockBiome(b.ID)
	}
	for _, it := range t.Items {
		m.UnlockItem(it.ID)
	}
}

func appendUnique(s *[]string, id string) bool {
	if slices.Contains(*s, id) {
		return false
	}
	*s = append(*s, id)
	return true
}
