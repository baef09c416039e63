package game

import (
	"math"
	"slices"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

// CallResult is the outcome of one call.
type CallResult struct {
	Draw    int
	Damage  int
	Matched int
	State   *Run
}

// wildStatuses are the statuses wild magic can inflict.
var wildStatuses = []string{content.StatusBurn, content.StatusChill, content.StatusVulnerable, content.StatusOoze}

// CallNext draws the next number and resolves it against the board.
// It refuses to act on a finished run or while the floor's shop is pending.
func (s *Service) CallNext(m *meta.State, run *Run, r *rng.Rng) CallResult {
	if run.Terminal() || run.AwaitingAdvance {
		return CallResult{State: run}
	}
	bal := &s.tables.Balance
	next := run.Clone()

	if len(next.Deck) == 0 {
		next.Deck = board.ShuffleDeck(r, next.BoardSize, bal.Board.NumbersPerColumn)
	}
	draw := next.Deck[0]
	next.Deck = next.Deck[1:]
	draw = s.applySequence(next, draw)
	next.LastCall = draw
	next.CallsMade++
	next.Metrics.CallsMade++

	var hits []int
	blocked := 0
	for i, c := range next.Board {
		if c.Marked || c.Number != draw {
			continue
		}
		if enc := next.EncounterModifier; enc != nil && enc.Blocking(c.Column) {
			blocked++
			continue
		}
		hits = append(hits, i)
	}
	if enc := next.EncounterModifier; enc != nil && enc.BlockRemaining > 0 {
		enc.BlockRemaining--
		if blocked > 0 {
			next.logf("Call %d is sealed away in a blocked column.", draw)
		}
		if enc.BlockRemaining == 0 {
			enc.BlockedColumns = nil
			enc.BlockSpent = true
			next.logf("The sealed columns open.")
		}
	}

	damage := 0
	if len(hits) > 0 {
		for _, i := range hits {
			next.Board[i].Marked = true
		}
		lines := board.CountLines(next.Board, next.BoardSize)
		damage = s.computeDamage(next, len(hits), lines)
		gain := 1
		if charmedLine(next, hits) {
			gain++
			next.logf("The charmed center flares and feeds your combo.")
		}
		next.Player.Combo = min(bal.Combo.Max, next.Player.Combo+gain)
		dealt := min(damage, next.Boss.HP)
		next.Boss.HP -= dealt
		next.Metrics.DamageDealt += dealt
		next.logf("Call %d hits %d cell%s for %d damage.", draw, len(hits), plural(len(hits)), damage)
		s.applyCallStatuses(next, r)
		if next.Boss.HP == 0 {
			s.bossDefeated(m, next, r)
		}
	} else {
		next.logf("Call %d misses.", draw)
		s.whiff(next)
	}

	s.refreshPreview(m, next)

	if !next.Terminal() && !next.AwaitingAdvance && next.CallsMade >= next.CallCap {
		s.enrage(next)
	}
	s.updateCodex(m, next)
	return CallResult{Draw: draw, Damage: damage, Matched: len(hits), State: next}
}

// applySequence rewrites the natural draw while a sequence-offset encounter
// is active. The first call anchors on the natural draw; each of the next
// Count calls yields the previous draw plus Offset, wrapped into the deck range.
func (s *Service) applySequence(run *Run, draw int) int {
	enc := run.EncounterModifier
	if enc == nil || enc.Def.Effect.SequenceOffset == nil {
		return draw
	}
	so := enc.Def.Effect.SequenceOffset
	if !enc.SequenceStarted {
		enc.SequenceStarted = true
		enc.SequenceAnchor = draw
		enc.SequenceRemaining = so.Count
		return draw
	}
	if enc.SequenceRemaining <= 0 {
		return draw
	}
	top := run.BoardSize * s.tables.Balance.Board.NumbersPerColumn
	v := ((enc.SequenceAnchor+so.Offset-1)%top+top)%top + 1
	enc.SequenceAnchor = v
	enc.SequenceRemaining--
	return v
}

// computeDamage returns the damage of a hit on matched cells completing lines
// lines. It uses the combo from before this hit and may inflict statuses on
// the boss or consume the player's fury.
func (s *Service) computeDamage(run *Run, matched, lines int) int {
	bal := &s.tables.Balance
	combo := run.Player.Combo

	dmg := float64(matched*bal.Damage.Hit + combo*bal.Combo.HitBonus)
	if lines >= 1 {
		dmg += float64(bal.Damage.LineSingle)
	}
	if lines >= 2 {
		dmg += float64(bal.Damage.LineDouble)
	}
	if lines >= 3 {
		dmg += float64(bal.Damage.LineTriple)
	}
	if lines >= 4 {
		dmg += float64(bal.Damage.Bingo)
	}

	dmg += float64(s.passivePower(run, content.TagDamage))
	dmg += float64(matched * s.passivePower(run, content.TagCombo))
	if id := bal.Relics.ComboScaler; id != "" && run.Owns(id) {
		dmg += float64(combo * 2)
	}
	dmg += float64(2 * stacksOf(run.Boss.Statuses, content.StatusVulnerable))

	if lines >= 1 {
		if i, fury := findStatus(run.Player.Statuses, content.StatusFury); fury != nil {
			dmg += float64(5 * fury.Stacks)
			run.Player.Statuses = removeStatus(run.Player.Statuses, i)
		}
		if s.hasPassiveTag(run, content.TagBurn) {
			run.addStatus(Status{ID: content.StatusBurn, Stacks: 3, Duration: ptr(3), Target: content.TargetBoss})
		}
		if s.hasPassiveTag(run, content.TagChill) {
			run.addStatus(Status{ID: content.StatusChill, Stacks: 1, Duration: ptr(2), Target: content.TargetBoss})
		}
	}

	if s.cursed(run) {
		dmg = math.Round(dmg * 1.2)
		run.addStatus(Status{ID: content.StatusVulnerable, Stacks: 1, Duration: ptr(2), Target: content.TargetBoss})
	}
	return max(0, int(math.Round(dmg)))
}

// applyCallStatuses ticks boss damage-over-time after a hit and rolls wild magic.
func (s *Service) applyCallStatuses(run *Run, r *rng.Rng) {
	if _, burn := findStatus(run.Boss.Statuses, content.StatusBurn); burn != nil {
		dealt := min(burn.Stacks, run.Boss.HP)
		run.Boss.HP -= dealt
		run.Metrics.DamageDealt += dealt
		run.logf("Burn sears %s for %d.", run.Boss.Def.Name, dealt)
		run.Boss.Statuses = tickStatus(run.Boss.Statuses, content.StatusBurn)
	}
	run.Boss.Statuses = tickStatus(run.Boss.Statuses, content.StatusVulnerable)

	fm := run.FloorModifier
	if fm == nil || fm.Effect.WildMagic <= 0 || !r.Chance(fm.Effect.WildMagic) {
		return
	}
	id := rng.Pick(r, wildStatuses)
	if r.Next() > 0.5 {
		run.addStatus(Status{ID: id, Stacks: 1, Target: content.TargetBoss})
		run.logf("Wild magic inflicts %s on the boss.", id)
	} else {
		run.addStatus(Status{ID: id, Stacks: 1, Target: content.TargetPlayer})
		run.logf("Wild magic afflicts you with %s.", id)
	}
}

// bossDefeated handles a boss reaching 0 hp: rebirth, reward, threat and
// either victory or the inter-floor shop.
func (s *Service) bossDefeated(m *meta.State, run *Run, r *rng.Rng) {
	if i, reb := findStatus(run.Boss.Statuses, content.StatusRebirth); reb != nil {
		if reb.Stacks > 1 {
			reb.Stacks--
		} else {
			run.Boss.Statuses = removeStatus(run.Boss.Statuses, i)
		}
		run.Boss.HP = max(1, int(math.Round(float64(run.Boss.MaxHP)*0.25)))
		run.logf("%s rises again!", run.Boss.Def.Name)
		return
	}

	run.logf("%s is defeated!", run.Boss.Def.Name)
	run.DefeatedBosses = append(run.DefeatedBosses, run.Boss.Def.ID)

	reward := run.Difficulty.RewardCoins
	coins := reward.Min + r.Int(reward.Max-reward.Min+1)
	coins += s.passivePower(run, content.TagEconomy) + s.passivePower(run, content.TagLuck)
	run.Player.Coins += coins
	run.Metrics.CoinsEarned += coins
	run.logf("You loot %d coins.", coins)

	run.AdaptiveThreat = s.adjustThreat(run)

	if run.FloorIndex+1 >= len(run.Biome.Floors) {
		s.finish(run, true)
		return
	}
	run.AwaitingAdvance = true
	run.ShopAvailable = true
	run.Shop = s.generateShop(m, r, run)
	run.Events = []ActiveEvent{}
	run.logf("A shop opens before the next floor.")
}

// adjustThreat moves adaptive threat by how much of the call budget was used.
func (s *Service) adjustThreat(run *Run) float64 {
	a := &s.tables.Balance.Adaptive
	ratio := float64(run.CallsMade) / float64(max(1, run.CallCap))
	switch {
	case ratio < a.LowThreshold:
		return math.Max(1, run.AdaptiveThreat-a.PlayerReward)
	case ratio > a.HighThreshold:
		return run.AdaptiveThreat + a.BossStep
	}
	return run.AdaptiveThreat
}

// whiff resolves a call that marked nothing. Order: combo reset, curse
// self-damage, defeat check, chill negation, counter damage.
func (s *Service) whiff(run *Run) {
	run.Player.Combo = 0

	self := 0
	if s.cursed(run) {
		self++
	}
	if _, c := findStatus(run.Player.Statuses, content.StatusCurse); c != nil {
		self++
		run.Player.Statuses = tickStatus(run.Player.Statuses, content.StatusCurse)
	}
	if self > 0 {
		run.Player.Hearts -= self
		run.logf("The curse lashes out for %d.", self)
		if run.Player.Hearts <= 0 {
			s.finish(run, false)
			return
		}
	}

	if _, chill := findStatus(run.Boss.Statuses, content.StatusChill); chill != nil && remaining(chill) > 0 {
		run.Boss.Statuses = tickStatus(run.Boss.Statuses, content.StatusChill)
		run.logf("%s is chilled and misses a counter attack.", run.Boss.Def.Name)
		return
	}

	dmg := s.CounterDamage(run)
	run.Player.Hearts -= dmg
	run.logf("%s counters for %d damage.", run.Boss.Def.Name, dmg)
	if run.Player.Hearts <= 0 {
		s.finish(run, false)
	}
}

// enrage punishes running out of calls. It ignores chill.
func (s *Service) enrage(run *Run) {
	dmg := s.CounterDamage(run)
	run.Player.Hearts -= dmg
	run.logf("%s enrages as calls run out and deals %d damage!", run.Boss.Def.Name, dmg)
	if run.Player.Hearts <= 0 {
		s.finish(run, false)
		return
	}
	run.CallsMade = 0
	run.Player.Combo = 0
}

// CounterDamage returns what the boss deals on a whiff or enrage.
func (s *Service) CounterDamage(run *Run) int {
	dmg := run.Boss.Def.Damage
	if enc := run.EncounterModifier; enc != nil {
		dmg += enc.Def.Effect.BossDamageBonus
	}
	dmg -= s.passivePower(run, content.TagShield)
	dmg -= stacksOf(run.Boss.Statuses, content.StatusOoze)
	return max(1, dmg)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// BlockedColumns returns the columns currently sealed, if any.
func (r *Run) BlockedColumns() []string {
	if enc := r.EncounterModifier; enc != nil && enc.BlockRemaining > 0 {
		return slices.Clone(enc.BlockedColumns)
	}
	return nil
}
