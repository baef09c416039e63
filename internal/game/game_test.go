package game

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/rng"
)

func newService(t *testing.T) (*Service, *meta.State) {
	t.Helper()
	tables, err := content.Embedded()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	return NewService(tables), meta.Default(tables.Balance.Progression)
}

// newRun creates a run and strips the rolled modifiers so tests control
// every source of damage and healing.
func newRun(t *testing.T, svc *Service, m *meta.State, seed uint32, diff string) (*Run, *rng.Rng) {
	t.Helper()
	r := rng.New(seed)
	run, err := svc.CreateRun(m, r, Options{Seed: seed, BiomeID: "crypt", DifficultyID: diff})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	run.FloorModifier = nil
	run.EncounterModifier = nil
	run.Player.Combo = 0
	return run, r
}

// fillBoard sets every non-free cell to n and clears the marks.
func fillBoard(run *Run, n int) {
	for i := range run.Board {
		if run.Board[i].Free {
			continue
		}
		run.Board[i].Number = n
		run.Board[i].Marked = false
	}
}

func item(t *testing.T, svc *Service, id string) content.Item {
	t.Helper()
	it, ok := svc.Tables().Item(id)
	if !ok {
		t.Fatalf("no item %q", id)
	}
	return *it
}

func lastLog(run *Run) string {
	if len(run.Log) == 0 {
		return ""
	}
	return run.Log[len(run.Log)-1]
}

func logContains(run *Run, sub string) bool {
	return slices.ContainsFunc(run.Log, func(l string) bool { return strings.Contains(l, sub) })
}

func snapshot(t *testing.T, svc *Service, run *Run, r *rng.Rng) []byte {
	t.Helper()
	data, err := svc.Serialize(run, r)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return data
}

func TestCreateRunUnknownIDs(t *testing.T) {
	svc, m := newService(t)
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"biome", Options{Seed: 1, BiomeID: "moon", DifficultyID: "easy"}, ErrUnknownBiome},
		{"difficulty", Options{Seed: 1, BiomeID: "crypt", DifficultyID: "nightmare"}, ErrUnknownDifficulty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRun(m, rng.New(1), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateRun(t *testing.T) {
	svc, m := newService(t)
	r := rng.New(99)
	run, err := svc.CreateRun(m, r, Options{Seed: 99, BiomeID: "crypt", DifficultyID: "less-easy"})
	if err != nil {
		t.Fatal(err)
	}

	if len(run.Board) != 25 {
		t.Errorf("board has %d cells", len(run.Board))
	}
	if c := run.Board[board.Center(5)]; !c.Free || !c.Marked {
		t.Errorf("center cell = %+v", c)
	}
	if run.Boss.Def.ID != "bone-warden" || run.Boss.HP != 30 || run.Boss.MaxHP != 30 {
		t.Errorf("boss = %s %d/%d", run.Boss.Def.ID, run.Boss.HP, run.Boss.MaxHP)
	}
	if run.Player.Coins != 3 || run.Player.FreeDaubers != 1 || !run.Player.BombReady {
		t.Errorf("player = %+v", run.Player)
	}
	if run.ShopAvailable || run.AwaitingAdvance || len(run.Shop) != 0 {
		t.Error("shop should be closed on floor 1")
	}
	if len(run.Events) != 2 {
		t.Errorf("events = %v", run.Events)
	}
	if run.CallCap != 40 {
		t.Errorf("call cap = %d, want 40", run.CallCap)
	}
	if run.AdaptiveThreat != 1 {
		t.Errorf("threat = %v", run.AdaptiveThreat)
	}
	if run.ID == "" {
		t.Error("run id is empty")
	}
	if got, want := len(run.Preview), svc.PreviewLength(m, run); got != want {
		t.Errorf("preview length = %d, want %d", got, want)
	}
	if !slices.Contains(m.Codex.Bosses, "bone-warden") {
		t.Error("codex did not record the first boss")
	}
}

func TestCreateRunDeterministic(t *testing.T) {
	svc, _ := newService(t)
	build := func(seed uint32) []byte {
		m := meta.Default(svc.Tables().Balance.Progression)
		r := rng.New(seed)
		run, err := svc.CreateRun(m, r, Options{Seed: seed, BiomeID: "crypt", DifficultyID: "hard"})
		if err != nil {
			t.Fatal(err)
		}
		return snapshot(t, svc, run, r)
	}
	if !bytes.Equal(build(7), build(7)) {
		t.Error("same seed produced different runs")
	}
	if bytes.Equal(build(7), build(8)) {
		t.Error("different seeds produced identical runs")
	}
}

func TestHeartBonusFromMeta(t *testing.T) {
	svc, m := newService(t)
	m.XP = 60
	run, _ := newRun(t, svc, m, 3, "less-easy")
	if run.Player.Hearts < 7 {
		t.Errorf("hearts = %d, want at least 5+2", run.Player.Hearts)
	}
}

func TestLineDamageEndToEnd(t *testing.T) {
	svc, m := newService(t)
	run, r := newRun(t, svc, m, 99, "less-easy")
	bal := svc.Tables().Balance

	fillBoard(run, 2)
	for i := range 5 {
		run.Board[i].Number = 1
	}
	run.Deck = append([]int{1}, run.Deck...)
	before := run.Boss.HP

	res := svc.CallNext(m, run, r)
	if res.Draw != 1 || res.Matched != 5 {
		t.Fatalf("draw %d matched %d, want 1 and 5", res.Draw, res.Matched)
	}
	if res.Damage < bal.Damage.LineSingle {
		t.Errorf("damage %d below single-line bonus %d", res.Damage, bal.Damage.LineSingle)
	}
	if want := 5*bal.Damage.Hit + bal.Damage.LineSingle; res.Damage != want {
		t.Errorf("damage = %d, want %d", res.Damage, want)
	}
	if res.State.Boss.HP >= before {
		t.Errorf("boss hp %d not below %d", res.State.Boss.HP, before)
	}
	if res.State.Player.Combo != 1 {
		t.Errorf("combo = %d, want 1", res.State.Player.Combo)
	}
	if run.Boss.HP != before || run.Board[0].Marked {
		t.Error("CallNext modified its input run")
	}
}

func TestLineTiersAreCumulative(t *testing.T) {
	svc, m := newService(t)
	bal := svc.Tables().Balance
	run, _ := newRun(t, svc, m, 5, "less-easy")

	tests := []struct {
		lines int
		want  int
	}{
		{0, 0},
		{1, bal.Damage.LineSingle},
		{2, bal.Damage.LineSingle + bal.Damage.LineDouble},
		{3, bal.Damage.LineSingle + bal.Damage.LineDouble + bal.Damage.LineTriple},
		{4, bal.Damage.LineSingle + bal.Damage.LineDouble + bal.Damage.LineTriple + bal.Damage.Bingo},
		{7, bal.Damage.LineSingle + bal.Damage.LineDouble + bal.Damage.LineTriple + bal.Damage.Bingo},
	}
	for _, tt := range tests {
		got := svc.computeDamage(run.Clone(), 1, tt.lines)
		if want := bal.Damage.Hit + tt.want; got != want {
			t.Errorf("%d lines: damage = %d, want %d", tt.lines, got, want)
		}
	}
}

func TestComboRelicAddsDamage(t *testing.T) {
	svc, m := newService(t)
	base, _ := newRun(t, svc, m, 11, "less-easy")
	base.Player.Combo = 3

	with := base.Clone()
	with.Inventory = []InventoryItem{{Def: item(t, svc, "arcane-dauber"), Quantity: 1}}

	plain := svc.computeDamage(base.Clone(), 2, 0)
	boosted := svc.computeDamage(with, 2, 0)
	if boosted <= plain {
		t.Errorf("combo relic damage %d not above %d", boosted, plain)
	}
	// rare combo relic: +2 matches × power 3, plus combo × 2
	if want := plain + 2*3 + 3*2; boosted != want {
		t.Errorf("damage = %d, want %d", boosted, want)
	}
}

func TestCurseAmplifiesAndMarksVulnerable(t *testing.T) {
	svc, m := newService(t)
	run, _ := newRun(t, svc, m, 12, "less-easy")
	run.Inventory = []InventoryItem{{Def: item(t, svc, "cursed-brand"), Quantity: 1}}

	got := svc.computeDamage(run, 5, 1)
	// (5×3 + 8 + legendary damage tag 4) × 1.2 = 32.4
	if got != 32 {
		t.Errorf("damage = %d, want 32", got)
	}
	if _, v := findStatus(run.Boss.Statuses, content.StatusVulnerable); v == nil {
		t.Error("cursed hit should leave the boss vulnerable")
	}
}

func TestStatusMerge(t *testing.T) {
	run := &Run{}
	run.addStatus(Status{ID: "burn", Stacks: 3, Duration: ptr(3), Target: content.TargetBoss})
	run.addStatus(Status{ID: "burn", Stacks: 2, Duration: ptr(1), Target: content.TargetBoss})
	run.addStatus(Status{ID: "ooze", Stacks: 1, Target: content.TargetBoss})
	run.addStatus(Status{ID: "ooze", Stacks: 1, Duration: ptr(2), Target: content.TargetBoss})

	if len(run.Boss.Statuses) != 2 {
		t.Fatalf("statuses = %+v", run.Boss.Statuses)
	}
	burn := run.Boss.Statuses[0]
	if burn.Stacks != 5 || *burn.Duration != 4 {
		t.Errorf("burn = %d stacks / %d turns, want 5 / 4", burn.Stacks, *burn.Duration)
	}
	ooze := run.Boss.Statuses[1]
	if ooze.Stacks != 2 || ooze.Duration == nil || *ooze.Duration != 2 {
		t.Errorf("ooze = %+v", ooze)
	}
	if run.Metrics.StatusesApplied != 7 {
		t.Errorf("statuses applied = %d, want 7", run.Metrics.StatusesApplied)
	}
	if len(run.Player.Statuses) != 0 {
		t.Error("boss statuses leaked to the player")
	}
}

func TestBurnTicksAfterHit(t *testing.T) {
	svc, m := newService(t)
	run, r := newRun(t, svc, m, 13, "less-easy")
	run.Boss.HP, run.Boss.MaxHP = 500, 500
	run.addStatus(Status{ID: content.StatusBurn, Stacks: 3, Duration: ptr(1), Target: content.TargetBoss})
	fillBoard(run, 2)
	run.Board[0].Number = 1
	run.Deck = []int{1, 3}

	res := svc.CallNext(m, run, r)
	if want := 500 - res.Damage - 3; res.State.Boss.HP != want {
		t.Errorf("boss hp = %d, want %d", res.State.Boss.HP, want)
	}
	if _, b := findStatus(res.State.Boss.Statuses, content.StatusBurn); b != nil {
		t.Error("burn with one turn left should expire")
	}
}
