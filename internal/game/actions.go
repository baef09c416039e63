package game

import (
	"math"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// Player actions. Each one refuses to touch a finished run and turns any
// invalid request into a log line on an otherwise unchanged copy.

// FreeMark spends a free dauber to mark any unmarked cell.
func (s *Service) FreeMark(run *Run, cellID string) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if next.AwaitingAdvance {
		next.logf("The floor is already cleared.")
		return next
	}
	if next.Player.FreeDaubers <= 0 {
		next.logf("No free daubers left.")
		return next
	}
	i := board.Find(next.Board, cellID)
	if i < 0 || next.Board[i].Marked {
		next.logf("That cell cannot be daubed.")
		return next
	}
	next.Board[i].Marked = true
	next.Player.FreeDaubers--
	next.logf("Free dauber used.")
	return next
}

// UseBomb deals a quarter of the boss's max hp once per floor.
func (s *Service) UseBomb(m *meta.State, run *Run, r *rng.Rng) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if next.AwaitingAdvance {
		next.logf("There is nothing left to bomb.")
		return next
	}
	if !next.Player.BombReady {
		next.logf("The bomb is spent for this floor.")
		return next
	}
	next.Player.BombReady = false
	dmg := int(math.Round(float64(next.Boss.MaxHP) * 0.25))
	dealt := min(dmg, next.Boss.HP)
	next.Boss.HP -= dealt
	next.Metrics.DamageDealt += dealt
	next.logf("Bomb deals %d damage!", dmg)
	if next.Boss.HP == 0 {
		s.bossDefeated(m, next, r)
	}
	s.refreshPreview(m, next)
	s.updateCodex(m, next)
	return next
}

// BuyItem purchases a shop offer. The item must be unlocked, affordable and
// not already sold; owned items stack.
func (s *Service) BuyItem(m *meta.State, run *Run, itemID string) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if !next.ShopAvailable {
		next.logf("The shop is closed.")
		return next
	}
	idx := -1
	for i, o := range next.Shop {
		if o.Item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		next.logf("That item is not for sale.")
		return next
	}
	offer := &next.Shop[idx]
	switch {
	case offer.Locked:
		next.logf("The shop is closed.")
		return next
	case offer.Sold:
		next.logf("%s is already sold.", offer.Item.Name)
		return next
	case !m.ItemUnlocked(itemID):
		next.logf("Item is still locked. Progress further to unlock it.")
		return next
	case next.Player.Coins < offer.Price:
		next.logf("Not enough coins.")
		return next
	}

	next.Player.Coins -= offer.Price
	offer.Sold = true
	s.addItem(m, next, offer.Item)
	next.logf("Purchased %s.", offer.Item.Name)

	if itemID == s.tables.Balance.Relics.CenterMark {
		s.charmCenter(next)
		next.logf("The center cell glows with a permanent charm.")
	}
	s.refreshPreview(m, next)
	s.updateCodex(m, next)
	return next
}

// UseItem activates a consumable. Passive items stay equipped and only log.
func (s *Service) UseItem(m *meta.State, run *Run, itemID string, r *rng.Rng) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	idx := -1
	for i, it := range next.Inventory {
		if it.Def.ID == itemID && it.Quantity > 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		next.logf("You don't have that item.")
		return next
	}
	def := next.Inventory[idx].Def
	if def.Passive() {
		next.logf("%s is a passive relic and stays equipped.", def.Name)
		return next
	}

	power := def.Rarity.Power()
	bossAlive := !next.AwaitingAdvance && next.Boss.HP > 0
	for _, tag := range def.Tags {
		switch tag {
		case content.TagHeal:
			next.Player.Hearts += power
			next.logf("%s restores %d heart%s.", def.Name, power, plural(power))
		case content.TagCoins:
			next.Player.Coins += 2 * power
			next.Metrics.CoinsEarned += 2 * power
			next.logf("%s yields %d coins.", def.Name, 2*power)
		case content.TagDamage:
			if !bossAlive {
				continue
			}
			dealt := min(5*power, next.Boss.HP)
			next.Boss.HP -= dealt
			next.Metrics.DamageDealt += dealt
			next.logf("%s blasts %s for %d.", def.Name, next.Boss.Def.Name, 5*power)
		case content.TagDauber:
			next.Player.FreeDaubers += power
			next.logf("%s grants %d free dauber%s.", def.Name, power, plural(power))
		case content.TagCombo:
			next.Player.Combo = min(s.tables.Balance.Combo.Max, next.Player.Combo+power)
		case content.TagVulnerable:
			next.addStatus(Status{ID: content.StatusVulnerable, Stacks: power, Duration: ptr(2), Target: content.TargetBoss})
			next.logf("%s leaves %s vulnerable.", def.Name, next.Boss.Def.Name)
		}
	}

	next.Inventory[idx].Quantity--
	if next.Inventory[idx].Quantity <= 0 {
		next.Inventory = append(next.Inventory[:idx], next.Inventory[idx+1:]...)
	}
	if bossAlive && next.Boss.HP == 0 {
		s.bossDefeated(m, next, r)
	}
	s.refreshPreview(m, next)
	s.updateCodex(m, next)
	return next
}

// RerollShop pays to regenerate the shop's offers.
func (s *Service) RerollShop(m *meta.State, run *Run, r *rng.Rng) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if !next.ShopAvailable {
		next.logf("The shop is closed.")
		return next
	}
	cost := s.RerollCost(next)
	if next.Player.Coins < cost {
		next.logf("Not enough coins to reroll.")
		return next
	}
	next.Player.Coins -= cost
	next.Shop = s.generateShop(m, r, next)
	next.logf("Shop rerolled.")
	return next
}

// SkipShop closes the shop for the rest of the floor.
func (s *Service) SkipShop(run *Run) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	if !next.ShopAvailable {
		next.logf("The shop is closed.")
		return next
	}
	for i := range next.Shop {
		next.Shop[i].Locked = true
	}
	next.ShopAvailable = false
	next.logf("You ignore the shop for now.")
	return next
}

// ResolveEvent picks an option of one of the floor's events. Each event can
// be resolved once.
func (s *Service) ResolveEvent(m *meta.State, run *Run, eventID, optionID string, r *rng.Rng) *Run {
	if run.Terminal() {
		return run
	}
	next := run.Clone()
	idx := -1
	for i, e := range next.Events {
		if e.ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 || next.Events[idx].Resolved {
		next.logf("That event has already passed.")
		return next
	}
	def, ok := s.tables.Event(eventID)
	if !ok {
		next.logf("That event has already passed.")
		return next
	}
	opt, ok := def.Option(optionID)
	if !ok {
		next.logf("%s offers no such choice.", def.Name)
		return next
	}
	if opt.Requires.Coins > 0 && next.Player.Coins < opt.Requires.Coins {
		next.logf("You cannot afford that choice.")
		return next
	}
	if opt.Requires.Item != "" && !next.Owns(opt.Requires.Item) {
		next.logf("You lack the required item.")
		return next
	}

	for _, eff := range opt.Effects {
		s.applyEventEffect(m, next, eff, r)
	}
	next.Events[idx].Resolved = true
	next.logf("%s: %s.", def.Name, opt.Label)

	if next.Player.Hearts <= 0 {
		s.finish(next, false)
	}
	s.refreshPreview(m, next)
	s.updateCodex(m, next)
	return next
}

func (s *Service) applyEventEffect(m *meta.State, run *Run, eff content.EventEffect, r *rng.Rng) {
	if eff.Coins != 0 {
		run.Player.Coins = max(0, run.Player.Coins+eff.Coins)
		run.Metrics.CoinsEarned += max(0, eff.Coins)
	}
	run.Player.Hearts += eff.Hearts
	if eff.Combo != 0 {
		run.Player.Combo = min(s.tables.Balance.Combo.Max, max(0, run.Player.Combo+eff.Combo))
	}
	run.Player.FreeDaubers += eff.FreeDaubers
	if eff.Item != "" {
		if def, ok := s.tables.Item(eff.Item); ok {
			s.addItem(m, run, *def)
			run.logf("You receive %s.", def.Name)
		}
	}
	if eff.Status != nil {
		run.grant(*eff.Status)
	}
	if eff.UnlockBiome != "" && m.UnlockBiome(eff.UnlockBiome) {
		run.logf("A new biome is unlocked: %s.", eff.UnlockBiome)
	}
	if eff.UnlockItem != "" && m.UnlockItem(eff.UnlockItem) {
		run.logf("A new item is unlocked: %s.", eff.UnlockItem)
	}
	if eff.RerollShop && run.ShopAvailable {
		run.Shop = s.generateShop(m, r, run)
		run.logf("The shop restocks.")
	}
}
