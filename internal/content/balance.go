package content

// Balance holds the tuning numbers shared by every biome and difficulty.
type Balance struct {
	PreviewBase       int             `yaml:"preview_base"`
	Board             BoardBalance    `yaml:"board"`
	Combo             ComboBalance    `yaml:"combo"`
	Damage            DamageBalance   `yaml:"damage"`
	Adaptive          AdaptiveBalance `yaml:"adaptive"`
	FloorModifierSkip float64         `yaml:"floor_modifier_skip"` // chance of no floor modifier
	EncounterChance   float64         `yaml:"encounter_chance"`
	Shop              ShopBalance     `yaml:"shop"`
	Relics            RelicBalance    `yaml:"relics"`
	Progression       Progression     `yaml:"progression"`
}

// BoardBalance configures board generation.
type BoardBalance struct {
	Columns          []string `yaml:"columns"`
	NumbersPerColumn int      `yaml:"numbers_per_column"`
}

// ComboBalance configures the combo counter.
type ComboBalance struct {
	HitBonus int `yaml:"hit_bonus"`
	Max      int `yaml:"max"`
}

// DamageBalance holds per-hit and per-line damage values. Line bonuses are
// cumulative: completing three lines at once earns single+double+triple.
type DamageBalance struct {
	Hit        int `yaml:"hit"`
	LineSingle int `yaml:"line_single"`
	LineDouble int `yaml:"line_double"`
	LineTriple int `yaml:"line_triple"`
	Bingo      int `yaml:"bingo"`
}

// AdaptiveBalance configures the threat adjustment after each boss kill.
type AdaptiveBalance struct {
	ThreatStart   float64 `yaml:"threat_start"`
	LowThreshold  float64 `yaml:"low_threshold"`
	HighThreshold float64 `yaml:"high_threshold"`
	BossStep      float64 `yaml:"boss_step"`
	PlayerReward  float64 `yaml:"player_reward"`
}

// ShopBalance configures shop generation and rerolls.
type ShopBalance struct {
	RerollCost int `yaml:"reroll_cost"`
	Offers     int `yaml:"offers"`
	LateOffers int `yaml:"late_offers"`
	LateFloor  int `yaml:"late_floor"`
}

// OfferCount returns how many offers the shop shows on floor.
func (s ShopBalance) OfferCount(floor int) int {
	if floor >= s.LateFloor {
		return s.LateOffers
	}
	return s.Offers
}

// RelicBalance names the relics with hard-wired behavior.
type RelicBalance struct {
	ComboScaler string `yaml:"combo_scaler"`
	Seer        string `yaml:"seer"`
	CenterMark  string `yaml:"center_mark"`
}

// Threshold grants Bonus once XP reaches XP.
type Threshold struct {
	XP    int `yaml:"xp"`
	Bonus int `yaml:"bonus"`
}

// Unlock makes ID available once XP reaches XP.
type Unlock struct {
	XP int    `yaml:"xp"`
	ID string `yaml:"id"`
}

// Progression configures meta-progression rewards.
type Progression struct {
	XPPerFloor     int         `yaml:"xp_per_floor"`
	VictoryXP      int         `yaml:"victory_xp"`
	HeartBonus     []Threshold `yaml:"heart_bonus"`
	VisionBonus    []Threshold `yaml:"vision_bonus"`
	StartingBiomes []string    `yaml:"starting_biomes"`
	StartingItems  []string    `yaml:"starting_items"`
	BiomeUnlocks   []Unlock    `yaml:"biome_unlocks"`
	ItemUnlocks    []Unlock    `yaml:"item_unlocks"`
}

// BonusFor returns the bonus of the highest threshold reached by xp.
func BonusFor(thresholds []Threshold, xp int) int {
	bonus := 0
	best := -1
	for _, t := range thresholds {
		if xp >= t.XP && t.XP > best {
			best = t.XP
			bonus = t.Bonus
		}
	}
	return bonus
}
