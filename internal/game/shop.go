package game

import (
	"slices"

	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// generateShop rolls offers for the run's current floor from the unlocked
// items matching the biome's shop tags (commons always qualify). Curses are
// held back on the first floor.
func (s *Service) generateShop(m *meta.State, r *rng.Rng, run *Run) []ShopOffer {
	floor := run.FloorIndex
	tags := run.Biome.ShopTags

	var pool []content.Item
	for _, it := range s.tables.Items {
		if !m.ItemUnlocked(it.ID) {
			continue
		}
		if it.Type == content.ItemCurse && floor == 0 {
			continue
		}
		if len(tags) > 0 && it.Rarity != content.RarityCommon && !slices.ContainsFunc(it.Tags, func(t string) bool {
			return slices.Contains(tags, t)
		}) {
			continue
		}
		pool = append(pool, it)
	}
	rng.Shuffle(r, pool)

	n := min(s.tables.Balance.Shop.OfferCount(floor), len(pool))
	offers := make([]ShopOffer, 0, n)
	for _, it := range pool[:n] {
		offers = append(offers, ShopOffer{Item: it, Price: s.Price(run, &it)})
	}
	return offers
}

// Price returns what item costs for this run after stacking discounts.
func (s *Service) Price(run *Run, item *content.Item) int {
	discount := 0
	if item.HasTag(content.TagVision) && s.ownsOtherVision(run, item.ID) {
		discount++
	}
	if run.Difficulty.CommonDiscount && item.Rarity == content.RarityCommon {
		discount++
	}
	if item.ID == s.tables.Balance.Relics.Seer {
		discount++
	}
	return max(1, item.Cost-discount)
}

func (s *Service) ownsOtherVision(run *Run, itemID string) bool {
	for _, it := range run.Inventory {
		if it.Def.ID != itemID && it.Quantity > 0 && it.Def.Passive() && it.Def.HasTag(content.TagVision) {
			return true
		}
	}
	return false
}

// RerollCost returns the coin cost of rerolling the shop.
func (s *Service) RerollCost(run *Run) int {
	cost := s.tables.Balance.Shop.RerollCost
	if seer := s.tables.Balance.Relics.Seer; seer != "" && run.Owns(seer) {
		cost--
	}
	return max(0, cost)
}

func (s *Service) addItem(m *meta.State, run *Run, def content.Item) {
	for i := range run.Inventory {
		if run.Inventory[i].Def.ID == def.ID {
			run.Inventory[i].Quantity++
			run.Metrics.ItemsCollected++
			m.DiscoverItem(def.ID)
			return
		}
	}
	run.Inventory = append(run.Inventory, InventoryItem{Def: def, Quantity: 1})
	run.Metrics.ItemsCollected++
	m.DiscoverItem(def.ID)
}
