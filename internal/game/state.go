// Package game is the run state machine. Every operation takes the current
// run and returns a new one; the input run is never modified. All randomness
// comes from the caller's *rng.Rng, so a run is reproducible from its seed and
// the sequence of actions applied to it.
package game

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
)

// CellCharm is the cell status left by the center relic.
const CellCharm = "charm"

// Status is a status effect on the boss or the player.
// A nil Duration means the status lasts until consumed.
type Status struct {
	ID       string         `json:"id"`
	Stacks   int            `json:"stacks"`
	Duration *int           `json:"duration,omitempty"`
	Target   content.Target `json:"target"`
}

// BossState is the current floor's enemy.
type BossState struct {
	Def      content.Boss `json:"def"`
	HP       int          `json:"hp"`
	MaxHP    int          `json:"maxHp"`
	Statuses []Status     `json:"statuses"`
}

// PlayerState holds the player's resources.
// Hearts may dip to zero or below on the transition that ends the run.
type PlayerState struct {
	Hearts      int      `json:"hearts"`
	Coins       int      `json:"coins"`
	Combo       int      `json:"combo"`
	FreeDaubers int      `json:"freeDaubers"`
	BombReady   bool     `json:"bombReady"`
	Statuses    []Status `json:"statuses"`
}

// InventoryItem is a stack of one owned item.
type InventoryItem struct {
	Def      content.Item `json:"def"`
	Quantity int          `json:"quantity"`
}

// ShopOffer is one item for sale.
type ShopOffer struct {
	Item   content.Item `json:"item"`
	Price  int          `json:"price"`
	Sold   bool         `json:"sold"`
	Locked bool         `json:"locked"`
}

// ActiveEvent is an event offered on the current floor.
type ActiveEvent struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
}

// EncounterState is a rolled encounter modifier plus its runtime countdowns.
type EncounterState struct {
	Def content.EncounterModifier `json:"def"`

	BlockedColumns []string `json:"blockedColumns,omitempty"`
	BlockRemaining int      `json:"blockRemaining,omitempty"`
	BlockSpent     bool     `json:"blockSpent,omitempty"`

	SequenceStarted   bool `json:"sequenceStarted,omitempty"`
	SequenceAnchor    int  `json:"sequenceAnchor,omitempty"`
	SequenceRemaining int  `json:"sequenceRemaining,omitempty"`
}

// Blocking reports whether matches in column are currently hidden.
func (e *EncounterState) Blocking(column string) bool {
	return e.BlockRemaining > 0 && slices.Contains(e.BlockedColumns, column)
}

// Metrics accumulate over the whole run.
type Metrics struct {
	DamageDealt     int `json:"damageDealt"`
	StatusesApplied int `json:"statusesApplied"`
	ItemsCollected  int `json:"itemsCollected"`
	CoinsEarned     int `json:"coinsEarned"`
	CallsMade       int `json:"callsMade"`
}

// Summary is the terminal record of a run. Once set it never changes.
type Summary struct {
	Victory         bool `json:"victory"`
	FloorsCleared   int  `json:"floorsCleared"`
	DamageDealt     int  `json:"damageDealt"`
	CallsMade       int  `json:"callsMade"`
	ItemsCollected  int  `json:"itemsCollected"`
	StatusesApplied int  `json:"statusesApplied"`
	CoinsEarned     int  `json:"coinsEarned"`
}

// Run is the aggregate root of one playthrough.
type Run struct {
	ID           string `json:"id"`
	Seed         uint32 `json:"seed"`
	BiomeID      string `json:"biomeId"`
	DifficultyID string `json:"difficultyId"`

	// Re-linked from the content tables on load.
	Biome      *content.Biome      `json:"-"`
	Difficulty *content.Difficulty `json:"-"`

	BoardSize  int          `json:"boardSize"`
	FloorIndex int          `json:"floorIndex"`
	CallCap    int          `json:"callCap"`
	CallsMade  int          `json:"callsMade"` // resets on floor entry and enrage
	Deck       []int        `json:"deck"`
	Preview    []int        `json:"preview"`
	LastCall   int          `json:"lastCall"`
	Board      []board.Cell `json:"board"`
	Boss       BossState    `json:"boss"`
	Player     PlayerState  `json:"player"`

	Inventory       []InventoryItem `json:"inventory"`
	Shop            []ShopOffer     `json:"shop"`
	ShopAvailable   bool            `json:"shopAvailable"`
	AwaitingAdvance bool            `json:"awaitingAdvance"`
	Events          []ActiveEvent   `json:"events"`

	Log            []string `json:"log"`
	DefeatedBosses []string `json:"defeatedBosses"`
	AdaptiveThreat float64  `json:"adaptiveThreat"`

	FloorModifier     *content.FloorModifier `json:"floorModifier,omitempty"`
	EncounterModifier *EncounterState        `json:"encounterModifier,omitempty"`

	Summary *Summary `json:"summary,omitempty"`
	Metrics Metrics  `json:"metrics"`
}

// Terminal reports whether the run has ended.
func (r *Run) Terminal() bool {
	return r.Summary != nil
}

// Quantity returns how many of an item the player owns.
func (r *Run) Quantity(itemID string) int {
	for _, it := range r.Inventory {
		if it.Def.ID == itemID {
			return it.Quantity
		}
	}
	return 0
}

// Owns reports whether the player holds at least one of an item.
func (r *Run) Owns(itemID string) bool {
	return r.Quantity(itemID) > 0
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	out := *r
	out.Deck = slices.Clone(r.Deck)
	out.Preview = slices.Clone(r.Preview)
	out.Board = slices.Clone(r.Board)
	out.Boss.Statuses = cloneStatuses(r.Boss.Statuses)
	out.Player.Statuses = cloneStatuses(r.Player.Statuses)
	out.Inventory = slices.Clone(r.Inventory)
	out.Shop = slices.Clone(r.Shop)
	out.Events = slices.Clone(r.Events)
	out.Log = slices.Clone(r.Log)
	out.DefeatedBosses = slices.Clone(r.DefeatedBosses)
	if r.FloorModifier != nil {
		fm := *r.FloorModifier
		out.FloorModifier = &fm
	}
	if r.EncounterModifier != nil {
		em := *r.EncounterModifier
		em.BlockedColumns = slices.Clone(r.EncounterModifier.BlockedColumns)
		out.EncounterModifier = &em
	}
	if r.Summary != nil {
		s := *r.Summary
		out.Summary = &s
	}
	return &out
}

func cloneStatuses(in []Status) []Status {
	if in == nil {
		return nil
	}
	out := make([]Status, len(in))
	for i, s := range in {
		out[i] = s
		if s.Duration != nil {
			d := *s.Duration
			out[i].Duration = &d
		}
	}
	return out
}

func (r *Run) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}
