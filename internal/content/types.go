// Package content holds the static definitions a run is built from:
// difficulty presets, biome boss ladders, items, events and modifiers.
// Tables are loaded once from YAML, validated, and never mutated afterwards.
package content

import (
	"fmt"
	"slices"
)

// ItemType classifies how an item behaves once owned.
type ItemType string

const (
	ItemModifier   ItemType = "modifier"
	ItemConsumable ItemType = "consumable"
	ItemRelic      ItemType = "relic"
	ItemCurse      ItemType = "curse"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemModifier, ItemConsumable, ItemRelic, ItemCurse:
		return true
	}
	return false
}

// Rarity is an item's rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Power returns the rarity-derived strength used to scale item effects.
func (r Rarity) Power() int {
	switch r {
	case RarityCommon:
		return 1
	case RarityUncommon:
		return 2
	case RarityRare:
		return 3
	case RarityLegendary:
		return 4
	}
	return 0
}

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	return r.Power() > 0
}

// Target selects who a status effect applies to.
type Target string

const (
	TargetPlayer Target = "player"
	TargetBoss   Target = "boss"
)

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t == TargetPlayer || t == TargetBoss
}

// Status ids the engine gives behavior to. Content may name others; they are
// tracked and shown but have no mechanical effect.
const (
	StatusBurn       = "burn"
	StatusChill      = "chill"
	StatusOoze       = "ooze"
	StatusCurse      = "curse"
	StatusVulnerable = "vulnerable"
	StatusRebirth    = "rebirth"
	StatusShield     = "shield"
	StatusFury       = "fury"
	StatusVision     = "vision"
)

// Item tags the engine reads.
const (
	TagDamage     = "damage"
	TagCombo      = "combo"
	TagBurn       = "burn"
	TagChill      = "chill"
	TagShield     = "shield"
	TagVision     = "vision"
	TagEconomy    = "economy"
	TagLuck       = "luck"
	TagHeal       = "heal"
	TagCoins      = "coins"
	TagDauber     = "dauber"
	TagVulnerable = "vulnerable"
)

// RewardRange is an inclusive coin range.
type RewardRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Difficulty is a named preset controlling board size and run economy.
type Difficulty struct {
	ID                     string      `yaml:"id" json:"id"`
	Label                  string      `yaml:"label" json:"label"`
	BoardSize              int         `yaml:"board_size" json:"boardSize"`
	StartingHearts         int         `yaml:"starting_hearts" json:"startingHearts"`
	StartingCoins          int         `yaml:"starting_coins" json:"startingCoins"`
	StartingFreeDaubers    int         `yaml:"starting_free_daubers" json:"startingFreeDaubers"`
	CallCapBase            int         `yaml:"call_cap_base" json:"callCapBase"`
	CallCapPerFloor        int         `yaml:"call_cap_per_floor" json:"callCapPerFloor"`
	DistinctNumbers        int         `yaml:"distinct_numbers" json:"distinctNumbers"`
	RewardCoins            RewardRange `yaml:"reward_coins" json:"rewardCoins"`
	NegativeModifierFloors []int       `yaml:"negative_modifier_floors" json:"negativeModifierFloors"`
	CommonDiscount         bool        `yaml:"common_discount" json:"commonDiscount"`
}

// IsNegativeFloor reports whether encounter modifiers may roll on floor.
func (d *Difficulty) IsNegativeFloor(floor int) bool {
	return slices.Contains(d.NegativeModifierFloors, floor)
}

// Boss is one floor's enemy.
type Boss struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	BaseHP   int      `yaml:"base_hp" json:"baseHp"`
	Damage   int      `yaml:"damage" json:"damage"`
	Elite    bool     `yaml:"elite" json:"elite"`
	Statuses []string `yaml:"statuses" json:"statuses,omitempty"`
}

// Biome is a themed ladder of bosses with its own shop affinity and events.
type Biome struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Note     string   `yaml:"note" json:"note"`
	Floors   []Boss   `yaml:"floors" json:"floors"`
	ShopTags []string `yaml:"shop_tags" json:"shopTags"`
	Events   []string `yaml:"events" json:"events"`
}

// Item is a purchasable or grantable item definition.
type Item struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Type    ItemType `yaml:"type" json:"type"`
	Rarity  Rarity   `yaml:"rarity" json:"rarity"`
	Cost    int      `yaml:"cost" json:"cost"`
	Tags    []string `yaml:"tags" json:"tags"`
	Effect  string   `yaml:"effect" json:"effect"`
	Synergy string   `yaml:"synergy" json:"synergy,omitempty"`
}

// HasTag reports whether the item carries tag.
func (i *Item) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// Passive reports whether the item stays equipped instead of being used up.
func (i *Item) Passive() bool {
	return i.Type != ItemConsumable
}

// StatusGrant describes a status applied by an event, modifier or item.
type StatusGrant struct {
	Target   Target `yaml:"target" json:"target"`
	ID       string `yaml:"id" json:"id"`
	Stacks   int    `yaml:"stacks" json:"stacks"`
	Duration int    `yaml:"duration" json:"duration,omitempty"`
}

// EventEffect is one step of an event option. Zero fields are ignored.
type EventEffect struct {
	Coins       int          `yaml:"coins" json:"coins,omitempty"`
	Hearts      int          `yaml:"hearts" json:"hearts,omitempty"`
	Combo       int          `yaml:"combo" json:"combo,omitempty"`
	FreeDaubers int          `yaml:"free_daubers" json:"freeDaubers,omitempty"`
	Item        string       `yaml:"item" json:"item,omitempty"`
	Status      *StatusGrant `yaml:"status" json:"status,omitempty"`
	UnlockBiome string       `yaml:"unlock_biome" json:"unlockBiome,omitempty"`
	UnlockItem  string       `yaml:"unlock_item" json:"unlockItem,omitempty"`
	RerollShop  bool         `yaml:"reroll_shop" json:"rerollShop,omitempty"`
}

// Requirement gates an event option.
type Requirement struct {
	Coins int    `yaml:"coins" json:"coins,omitempty"`
	Item  string `yaml:"item" json:"item,omitempty"`
}

// EventOption is one choice of an event.
type EventOption struct {
	ID          string        `yaml:"id" json:"id"`
	Label       string        `yaml:"label" json:"label"`
	Description string        `yaml:"description" json:"description"`
	Requires    Requirement   `yaml:"requires" json:"requires"`
	Effects     []EventEffect `yaml:"effects" json:"effects"`
}

// Event is an inter-call choice offered on a floor.
type Event struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Options     []EventOption `yaml:"options" json:"options"`
}

// Option finds an option by id.
func (e *Event) Option(id string) (*EventOption, bool) {
	for i := range e.Options {
		if e.Options[i].ID == id {
			return &e.Options[i], true
		}
	}
	return nil, false
}

// FloorEffect lists the effects of a floor modifier.
type FloorEffect struct {
	PreviewDelta int     `yaml:"preview_delta" json:"previewDelta,omitempty"`
	WildMagic    float64 `yaml:"wild_magic" json:"wildMagic,omitempty"` // chance per hit
	ComboStart   int     `yaml:"combo_start" json:"comboStart,omitempty"`
	Heal         int     `yaml:"heal" json:"heal,omitempty"`
}

// FloorModifier is a light per-floor buff or debuff.
type FloorModifier struct {
	ID          string      `yaml:"id" json:"id"`
	Label       string      `yaml:"label" json:"label"`
	Description string      `yaml:"description" json:"description"`
	Effect      FloorEffect `yaml:"effect" json:"effect"`
}

// SequenceOffset overrides draws with previous+offset for count calls.
type SequenceOffset struct {
	Offset int `yaml:"offset" json:"offset"`
	Count  int `yaml:"count" json:"count"`
}

// BlockedColumns hides matches in columns for a number of calls.
type BlockedColumns struct {
	Columns []string `yaml:"columns" json:"columns"`
	Calls   int      `yaml:"calls" json:"calls"`
}

// EncounterEffect lists the effects of an encounter modifier.
type EncounterEffect struct {
	SequenceOffset  *SequenceOffset `yaml:"sequence_offset" json:"sequenceOffset,omitempty"`
	BlockedColumns  *BlockedColumns `yaml:"blocked_columns" json:"blockedColumns,omitempty"`
	PreviewPenalty  int             `yaml:"preview_penalty" json:"previewPenalty,omitempty"`
	CallCapModifier int             `yaml:"call_cap_modifier" json:"callCapModifier,omitempty"`
	BossDamageBonus int             `yaml:"boss_damage_bonus" json:"bossDamageBonus,omitempty"`
	StartingStatus  *StatusGrant    `yaml:"starting_status" json:"startingStatus,omitempty"`
}

// EncounterModifier is a negative modifier rolled on designated floors.
type EncounterModifier struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Effect      EncounterEffect `yaml:"effect" json:"effect"`
}

// ValidationError describes malformed content.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
