package content

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the tables for malformed or dangling content and builds
// the lookup indexes. It returns every problem found, joined.
func (t *Tables) Validate() error {
	var errs []error
	fail := func(code, format string, args ...any) {
		errs = append(errs, ValidationError{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	b := &t.Balance
	if len(b.Board.Columns) == 0 {
		fail("BALANCE_COLUMNS", "board column labels are empty")
	}
	if b.Board.NumbersPerColumn < 1 {
		fail("BALANCE_NUMBERS", "numbers_per_column must be positive, got %d", b.Board.NumbersPerColumn)
	}
	if b.Combo.Max < 0 {
		fail("BALANCE_COMBO", "combo max must not be negative")
	}
	if b.Adaptive.ThreatStart < 1 {
		fail("BALANCE_THREAT", "threat_start must be at least 1, got %v", b.Adaptive.ThreatStart)
	}
	if b.Adaptive.LowThreshold > b.Adaptive.HighThreshold {
		fail("BALANCE_THRESHOLDS", "low threshold %v above high threshold %v", b.Adaptive.LowThreshold, b.Adaptive.HighThreshold)
	}
	if b.Shop.Offers < 1 || b.Shop.LateOffers < 1 {
		fail("BALANCE_SHOP", "shop offer counts must be positive")
	}

	t.difficulties = make(map[string]*Difficulty, len(t.Difficulties))
	for i := range t.Difficulties {
		d := &t.Difficulties[i]
		if _, dup := t.difficulties[d.ID]; dup || d.ID == "" {
			fail("DIFFICULTY_ID", "duplicate or empty difficulty id %q", d.ID)
			continue
		}
		t.difficulties[d.ID] = d
		if d.BoardSize < 3 || d.BoardSize%2 == 0 {
			fail("DIFFICULTY_BOARD", "difficulty %s: board size %d must be odd and at least 3", d.ID, d.BoardSize)
		}
		if d.BoardSize > len(b.Board.Columns) {
			fail("DIFFICULTY_BOARD", "difficulty %s: board size %d exceeds %d column labels", d.ID, d.BoardSize, len(b.Board.Columns))
		}
		if d.StartingHearts < 1 {
			fail("DIFFICULTY_HEARTS", "difficulty %s: starting hearts must be positive", d.ID)
		}
		if d.CallCapBase < 1 {
			fail("DIFFICULTY_CALLCAP", "difficulty %s: call cap must be positive", d.ID)
		}
		if d.DistinctNumbers < 1 {
			fail("DIFFICULTY_DISTINCT", "difficulty %s: distinct numbers must be positive", d.ID)
		}
		if d.RewardCoins.Min > d.RewardCoins.Max || d.RewardCoins.Min < 0 {
			fail("DIFFICULTY_REWARD", "difficulty %s: invalid reward range %d..%d", d.ID, d.RewardCoins.Min, d.RewardCoins.Max)
		}
	}

	t.items = make(map[string]*Item, len(t.Items))
	for i := range t.Items {
		it := &t.Items[i]
		if _, dup := t.items[it.ID]; dup || it.ID == "" {
			fail("ITEM_ID", "duplicate or empty item id %q", it.ID)
			continue
		}
		t.items[it.ID] = it
		if !it.Type.Valid() {
			fail("ITEM_TYPE", "item %s: unknown type %q", it.ID, it.Type)
		}
		if !it.Rarity.Valid() {
			fail("ITEM_RARITY", "item %s: unknown rarity %q", it.ID, it.Rarity)
		}
		if it.Cost < 0 {
			fail("ITEM_COST", "item %s: negative cost", it.ID)
		}
	}

	t.events = make(map[string]*Event, len(t.Events))
	for i := range t.Events {
		e := &t.Events[i]
		if _, dup := t.events[e.ID]; dup || e.ID == "" {
			fail("EVENT_ID", "duplicate or empty event id %q", e.ID)
			continue
		}
		t.events[e.ID] = e
		if len(e.Options) == 0 {
			fail("EVENT_OPTIONS", "event %s has no options", e.ID)
		}
	}

	t.biomes = make(map[string]*Biome, len(t.Biomes))
	for i := range t.Biomes {
		bm := &t.Biomes[i]
		if _, dup := t.biomes[bm.ID]; dup || bm.ID == "" {
			fail("BIOME_ID", "duplicate or empty biome id %q", bm.ID)
			continue
		}
		t.biomes[bm.ID] = bm
		if len(bm.Floors) == 0 {
			fail("BIOME_FLOORS", "biome %s has no floors", bm.ID)
		}
		for _, boss := range bm.Floors {
			if boss.BaseHP < 1 {
				fail("BOSS_HP", "biome %s: boss %s needs positive base hp", bm.ID, boss.ID)
			}
			if boss.Damage < 0 {
				fail("BOSS_DAMAGE", "biome %s: boss %s has negative damage", bm.ID, boss.ID)
			}
		}
		for _, ev := range bm.Events {
			if _, ok := t.events[ev]; !ok {
				fail("BIOME_EVENT", "biome %s references unknown event %q", bm.ID, ev)
			}
		}
	}

	// Cross references need every index built first.
	for _, e := range t.Events {
		for _, opt := range e.Options {
			if opt.Requires.Item != "" {
				if _, ok := t.items[opt.Requires.Item]; !ok {
					fail("EVENT_REQUIRES", "event %s/%s requires unknown item %q", e.ID, opt.ID, opt.Requires.Item)
				}
			}
			for _, eff := range opt.Effects {
				t.checkEffect(e.ID+"/"+opt.ID, eff, fail)
			}
		}
	}

	for _, m := range t.EncounterModifiers {
		if s := m.Effect.StartingStatus; s != nil && !s.Target.Valid() {
			fail("ENCOUNTER_STATUS", "encounter %s: unknown status target %q", m.ID, s.Target)
		}
		if bc := m.Effect.BlockedColumns; bc != nil {
			for _, col := range bc.Columns {
				if !slices.Contains(b.Board.Columns, col) {
					fail("ENCOUNTER_COLUMNS", "encounter %s blocks unknown column %q", m.ID, col)
				}
			}
		}
	}

	for _, id := range []string{b.Relics.ComboScaler, b.Relics.Seer, b.Relics.CenterMark} {
		if _, ok := t.items[id]; id != "" && !ok {
			fail("RELIC_REF", "balance names unknown relic %q", id)
		}
	}
	for _, id := range b.Progression.StartingBiomes {
		if _, ok := t.biomes[id]; !ok {
			fail("UNLOCK_BIOME", "starting biome %q is not defined", id)
		}
	}
	for _, id := range b.Progression.StartingItems {
		if _, ok := t.items[id]; !ok {
			fail("UNLOCK_ITEM", "starting item %q is not defined", id)
		}
	}
	for _, u := range b.Progression.BiomeUnlocks {
		if _, ok := t.biomes[u.ID]; !ok {
			fail("UNLOCK_BIOME", "biome unlock %q is not defined", u.ID)
		}
	}
	for _, u := range b.Progression.ItemUnlocks {
		if _, ok := t.items[u.ID]; !ok {
			fail("UNLOCK_ITEM", "item unlock %q is not defined", u.ID)
		}
	}

	return errors.Join(errs...)
}

func (t *Tables) checkEffect(where string, eff EventEffect, fail func(code, format string, args ...any)) {
	if eff.Item != "" {
		if _, ok := t.items[eff.Item]; !ok {
			fail("EVENT_ITEM", "event %s grants unknown item %q", where, eff.Item)
		}
	}
	if eff.UnlockItem != "" {
		if _, ok := t.items[eff.UnlockItem]; !ok {
			fail("EVENT_UNLOCK", "event %s unlocks unknown item %q", where, eff.UnlockItem)
		}
	}
	if eff.UnlockBiome != "" {
		if _, ok := t.biomes[eff.UnlockBiome]; !ok {
			fail("EVENT_UNLOCK", "event %s unlocks unknown biome %q", where, eff.UnlockBiome)
		}
	}
	if eff.Status != nil && !eff.Status.Target.Valid() {
		fail("EVENT_STATUS", "event %s: unknown status target %q", where, eff.Status.Target)
	}
}
