package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/session"
	"github.com/vovakirdan/wingo/internal/storage"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
	up    = tea.KeyMsg{Type: tea.KeyUp}
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	tables, err := content.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	sess, err := session.New(game.NewService(tables), storage.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func newModel(t *testing.T, opts Options) (Model, *session.Session) {
	t.Helper()
	sess := newSession(t)
	return NewModel(sess, opts), sess
}

// send feeds msgs through Update and returns the resulting model.
func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		if m, ok = next.(Model); !ok {
			t.Fatalf("Update returned %T", next)
		}
	}
	return m
}

func TestKeyMap(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{"space calls", space, keys.Call},
		{"c calls", runes("c"), keys.Call},
		{"x bombs", runes("x"), keys.Bomb},
		{"enter selects", enter, keys.Select},
		{"tab switches pane", tab, keys.Pane},
		{"vim up", runes("k"), keys.Up},
		{"arrow left", left, keys.Left},
		{"n advances", runes("n"), keys.Advance},
		{"shift h opens history", runes("H"), keys.History},
		{"esc goes back", esc, keys.Back},
		{"q quits", runes("q"), keys.Quit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !key.Matches(tt.msg, tt.binding) {
				t.Errorf("%q does not match %v", tt.msg.String(), tt.binding.Keys())
			}
		})
	}

	if key.Matches(runes("h"), keys.History) {
		t.Error("lowercase h must move, not open history")
	}
	if len(keys.ShortHelp()) == 0 || len(keys.FullHelp()) == 0 {
		t.Error("help is empty")
	}
}

func TestStartScreen(t *testing.T) {
	m, _ := newModel(t, Options{Biome: "aurora", Difficulty: "hard"})
	if m.screen != screenStart {
		t.Fatalf("screen = %v, want start", m.screen)
	}
	if m.biomes[m.biomeCursor] != "aurora" || m.diffs[m.diffCursor] != "hard" {
		t.Errorf("cursor on %s/%s", m.biomes[m.biomeCursor], m.diffs[m.diffCursor])
	}

	view := m.View()
	for _, want := range []string{"W I N G O", "Crypt", "(locked)"} {
		if !strings.Contains(view, want) {
			t.Errorf("start view lacks %q", want)
		}
	}

	// up from the first biome wraps to the last
	m = send(t, m, up, up, up)
	if m.biomes[m.biomeCursor] != "swamp" {
		t.Errorf("biome = %s, want swamp", m.biomes[m.biomeCursor])
	}
}

func TestStartLockedBiome(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "aurora", Difficulty: "easy", Seed: 5})
	m = send(t, m, enter)
	if m.screen != screenStart || sess.Run() != nil {
		t.Fatal("a locked biome started a run")
	}
	if !strings.Contains(m.status, "locked") {
		t.Errorf("status = %q", m.status)
	}
}

func TestStartAndPlay(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "crypt", Difficulty: "easy", Seed: 7})
	m = send(t, m, enter)
	run := sess.Run()
	if m.screen != screenPlay || run == nil {
		t.Fatal("enter did not start a run")
	}
	if run.Seed != 7 || run.BiomeID != "crypt" || run.DifficultyID != "easy" {
		t.Errorf("run = %d %s %s", run.Seed, run.BiomeID, run.DifficultyID)
	}
	if m.opts.Seed != 0 {
		t.Error("the configured seed is reused for the next run")
	}
	if m.cursor != board.Center(run.BoardSize) {
		t.Errorf("cursor = %d, want center", m.cursor)
	}

	m = send(t, m, space)
	if got := sess.Run().Metrics.CallsMade; got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if len(sess.Journal()) != 1 {
		t.Errorf("journal = %v", sess.Journal())
	}

	view := m.View()
	for _, want := range []string{"WINGO", "floor 1/", "seed 7", "Shop", "Items", "Events", "next"} {
		if !strings.Contains(view, want) {
			t.Errorf("play view lacks %q", want)
		}
	}
}

func TestResumedRunOpensPlay(t *testing.T) {
	sess := newSession(t)
	if _, err := sess.Start(game.Options{Seed: 1, BiomeID: "crypt", DifficultyID: "easy"}); err != nil {
		t.Fatal(err)
	}
	m := NewModel(sess, Options{})
	if m.screen != screenPlay {
		t.Fatalf("screen = %v, want play", m.screen)
	}
	if m.opts.Autoplay != DefaultAutoplayInterval {
		t.Errorf("autoplay interval = %v", m.opts.Autoplay)
	}

	m = send(t, m, esc)
	if m.screen != screenStart || !strings.Contains(m.View(), "esc resumes") {
		t.Error("esc did not return to the start screen")
	}
	m = send(t, m, esc)
	if m.screen != screenPlay {
		t.Error("esc did not resume the run")
	}
}

func TestBoardCursor(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "crypt", Difficulty: "easy", Seed: 3})
	m = send(t, m, enter)
	n := sess.Run().BoardSize
	center := board.Center(n)

	m = send(t, m, left)
	if m.cursor != center-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, center-1)
	}

	m.cursor = 0
	m = send(t, m, left, up)
	if want := n*n - 1; m.cursor != want {
		t.Errorf("cursor = %d, want %d", m.cursor, want)
	}
}

func TestPaneSelection(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "crypt", Difficulty: "easy", Seed: 11})
	m = send(t, m, enter)
	run := sess.Run()

	m.cursor = 0
	a, ok := m.selection(run)
	if !ok || a.Kind != game.KindFreeMark || a.CellID != run.Board[0].ID {
		t.Errorf("board selection = %+v", a)
	}

	m = send(t, m, tab)
	if m.pane != paneShop {
		t.Fatalf("pane = %s", paneNames[m.pane])
	}
	if _, ok := m.selection(run); ok != (len(run.Shop) > 0) {
		t.Errorf("shop selection ok = %v with %d offers", ok, len(run.Shop))
	}

	m = send(t, m, tab, tab)
	cs := m.choices(run)
	if len(cs) == 0 {
		t.Fatal("a fresh floor offers no event choices")
	}
	a, ok = m.selection(run)
	if !ok || a.Kind != game.KindResolveEvent || a.EventID != cs[0].EventID || a.OptionID != cs[0].OptionID {
		t.Errorf("event selection = %+v", a)
	}

	m = send(t, m, tab)
	if m.pane != paneBoard {
		t.Errorf("pane did not cycle back to the board")
	}
}

func TestAutoplayFinishesRun(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "crypt", Difficulty: "easy", Seed: 21})
	m = send(t, m, enter, runes("a"))
	if !m.autoplay {
		t.Fatal("autoplay did not start")
	}

	for range 5000 {
		if !m.autoplay {
			break
		}
		m = send(t, m, AutoplayMsg{gen: m.autoGen})
	}
	if m.autoplay || !sess.Run().Terminal() {
		t.Fatal("autoplay did not finish the run")
	}
	if sess.Meta().Stats.Runs != 1 {
		t.Errorf("runs = %d, want 1", sess.Meta().Stats.Runs)
	}
	if view := m.View(); !strings.Contains(view, "VICTORY") && !strings.Contains(view, "DEFEAT") {
		t.Error("finished run shows no summary")
	}

	m = send(t, m, enter)
	if m.screen != screenStart || sess.Run() != nil {
		t.Error("enter did not acknowledge the finished run")
	}
}

func TestStaleAutoplayIgnored(t *testing.T) {
	m, sess := newModel(t, Options{Biome: "crypt", Difficulty: "easy", Seed: 4})
	m = send(t, m, enter, runes("a"), runes("a"), runes("a"))
	stale := m.autoGen - 1

	m = send(t, m, AutoplayMsg{gen: stale})
	if got := len(sess.Journal()); got != 0 {
		t.Errorf("stale tick acted: journal has %d actions", got)
	}
	m = send(t, m, AutoplayMsg{gen: m.autoGen})
	if got := len(sess.Journal()); got != 1 {
		t.Errorf("journal has %d actions, want 1", got)
	}
}

type fakeHistory struct {
	biomes []string
}

func (f *fakeHistory) TopRuns(biomeID string, limit int) ([]registry.Record, error) {
	f.biomes = append(f.biomes, biomeID)
	return []registry.Record{
		{BiomeID: "crypt", DifficultyID: "easy", Victory: true, FloorsCleared: 4, DamageDealt: 321},
	}, nil
}

func (f *fakeHistory) Stats() (registry.Stats, error) {
	return registry.Stats{Runs: 3, Victories: 1, BestFloors: 4, AvgDamage: 120}, nil
}

func TestHistoryScreen(t *testing.T) {
	reader := &fakeHistory{}
	m, _ := newModel(t, Options{Biome: "crypt", Difficulty: "easy", History: reader})
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}, runes("H"))
	if m.screen != screenHistory {
		t.Fatalf("screen = %v, want history", m.screen)
	}

	view := m.View()
	for _, want := range []string{"RUN HISTORY - All biomes", "victory", "321", "runs 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("history view lacks %q", want)
		}
	}

	m = send(t, m, tab)
	if got := reader.biomes[len(reader.biomes)-1]; got != "crypt" {
		t.Errorf("filter = %q, want crypt", got)
	}

	m = send(t, m, esc)
	if m.screen != screenStart {
		t.Errorf("screen = %v, want start", m.screen)
	}
}

func TestHistoryWithoutReader(t *testing.T) {
	m, _ := newModel(t, Options{Biome: "crypt", Difficulty: "easy"})
	m = send(t, m, runes("H"))
	if !strings.Contains(m.View(), "keeps no run history") {
		t.Error("missing history notice")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, Options{})
	next, cmd := m.Update(runes("q"))
	if cmd == nil || !next.(Model).quitting {
		t.Error("q did not quit")
	}
	if next.View() != "" {
		t.Error("quitting model still renders")
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-1, 5, 4},
		{5, 5, 0},
		{7, 5, 2},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := wrap(tt.i, tt.n); got != tt.want {
			t.Errorf("wrap(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}

	if got := centerText("ab", 6); got != "  ab" {
		t.Errorf("centerText = %q", got)
	}
	if got := centerText("abcdef", 3); got != "abcdef" {
		t.Errorf("centerText = %q", got)
	}
}

func TestPlayerDir(t *testing.T) {
	s := &SSHServer{dataDir: "/srv/wingo"}
	tests := []struct {
		user string
		want string
		ok   bool
	}{
		{"alice", "/srv/wingo/alice", true},
		{"", "", false},
		{"..", "", false},
		{"../etc", "", false},
		{`a\b`, "", false},
	}
	for _, tt := range tests {
		got, err := s.playerDir(tt.user)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("playerDir(%q) = %q, %v", tt.user, got, err)
		}
	}

	s.active = map[string]bool{}
	if !s.acquire("alice") || s.acquire("alice") {
		t.Error("a user may hold only one connection")
	}
	s.release("alice")
	if !s.acquire("alice") {
		t.Error("release did not free the user")
	}
}
