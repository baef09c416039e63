package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/wingo/internal/board"
	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/session"
	"github.com/vovakirdan/wingo/internal/sim"
)

type screen int

const (
	screenStart screen = iota
	screenPlay
	screenHistory
)

// pane is the play-screen panel that owns the cursor.
type pane int

const (
	paneBoard pane = iota
	paneShop
	paneItems
	paneEvents
	paneCount
)

var paneNames = [...]string{
	paneBoard:  "board",
	paneShop:   "shop",
	paneItems:  "items",
	paneEvents: "events",
}

// Options configure a Model.
type Options struct {
	Biome      string
	Difficulty string
	// Seed is used for the first run started; zero picks a time-based seed.
	Seed     uint32
	Autoplay time.Duration
	// History backs the history screen. It may be nil.
	History registry.HistoryReader
	User    string
}

// choice is one selectable event option.
type choice struct {
	EventID  string
	OptionID string
	Label    string
}

// Model is the Bubble Tea model for playing wingo over one session.
type Model struct {
	sess    *session.Session
	opts    Options
	keys    KeyMap
	help    help.Model
	history HistoryModel

	screen screen
	pane   pane
	cursor int // board cell index
	row    int // list row in the shop, items and events panes

	biomes      []string
	biomeCursor int
	diffs       []string
	diffCursor  int

	autoplay bool
	autoGen  int

	status   string
	width    int
	height   int
	quitting bool
}

// NewModel creates a model over sess. A resumed run opens on the play screen.
func NewModel(sess *session.Session, opts Options) Model {
	if opts.Autoplay <= 0 {
		opts.Autoplay = DefaultAutoplayInterval
	}
	tables := sess.Service().Tables()

	m := Model{
		sess:    sess,
		opts:    opts,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		history: NewHistoryModel(opts.History, tables, 80, 24),
		width:   80,
		height:  24,
	}
	for i, b := range tables.Biomes {
		m.biomes = append(m.biomes, b.ID)
		if b.ID == opts.Biome {
			m.biomeCursor = i
		}
	}
	for i, d := range tables.Difficulties {
		m.diffs = append(m.diffs, d.ID)
		if d.ID == opts.Difficulty {
			m.diffCursor = i
		}
	}
	if run := sess.Run(); run != nil {
		m.screen = screenPlay
		m.cursor = board.Center(run.BoardSize)
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history = m.history.Resize(msg.Width, msg.Height)
		return m, nil

	case AutoplayMsg:
		return m.handleAutoplay(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenStart:
			return m.handleStartKey(msg)
		case screenPlay:
			return m.handlePlayKey(msg)
		case screenHistory:
			return m.handleHistoryKey(msg)
		}
	}
	return m, nil
}

// handleStartKey processes input on the start screen.
func (m Model) handleStartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.biomeCursor = wrap(m.biomeCursor-1, len(m.biomes))
	case key.Matches(msg, m.keys.Down):
		m.biomeCursor = wrap(m.biomeCursor+1, len(m.biomes))
	case key.Matches(msg, m.keys.Left):
		m.diffCursor = wrap(m.diffCursor-1, len(m.diffs))
	case key.Matches(msg, m.keys.Right):
		m.diffCursor = wrap(m.diffCursor+1, len(m.diffs))
	case key.Matches(msg, m.keys.Select):
		return m.startRun(), nil
	case key.Matches(msg, m.keys.Back):
		if m.sess.Run() != nil {
			m.screen = screenPlay
		}
	case key.Matches(msg, m.keys.History):
		return m.openHistory(), nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) startRun() Model {
	if len(m.biomes) == 0 || len(m.diffs) == 0 {
		return m
	}
	seed := m.opts.Seed
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	run, err := m.sess.Start(game.Options{
		Seed:         seed,
		BiomeID:      m.biomes[m.biomeCursor],
		DifficultyID: m.diffs[m.diffCursor],
	})
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.opts.Seed = 0
	m.screen = screenPlay
	m.pane = paneBoard
	m.row = 0
	m.cursor = board.Center(run.BoardSize)
	m.status = ""
	return m
}

// handlePlayKey processes input on the play screen.
func (m Model) handlePlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	run := m.sess.Run()
	if run == nil {
		m.screen = screenStart
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.History):
		return m.openHistory(), nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.autoplay = false
		m.screen = screenStart
		return m, nil
	}

	if run.Terminal() {
		if key.Matches(msg, m.keys.Select) {
			if err := m.sess.Acknowledge(); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.autoplay = false
			m.screen = screenStart
			m.status = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Pane):
		m.pane = (m.pane + 1) % paneCount
		m.row = 0
	case key.Matches(msg, m.keys.Up):
		m = m.move(run, -1, 0)
	case key.Matches(msg, m.keys.Down):
		m = m.move(run, 1, 0)
	case key.Matches(msg, m.keys.Left):
		m = m.move(run, 0, -1)
	case key.Matches(msg, m.keys.Right):
		m = m.move(run, 0, 1)
	case key.Matches(msg, m.keys.Select):
		if a, ok := m.selection(run); ok {
			m = m.do(a)
		}
	case key.Matches(msg, m.keys.Call):
		m = m.do(game.Action{Kind: game.KindCall})
	case key.Matches(msg, m.keys.Bomb):
		m = m.do(game.Action{Kind: game.KindBomb})
	case key.Matches(msg, m.keys.Reroll):
		m = m.do(game.Action{Kind: game.KindReroll})
	case key.Matches(msg, m.keys.Skip):
		m = m.do(game.Action{Kind: game.KindSkipShop})
	case key.Matches(msg, m.keys.Advance):
		m = m.do(game.Action{Kind: game.KindAdvance})
	case key.Matches(msg, m.keys.Auto):
		m.autoplay = !m.autoplay
		if m.autoplay {
			m.autoGen++
			return m, autoplayCmd(m.opts.Autoplay, m.autoGen)
		}
	}
	return m, nil
}

// move shifts the cursor of the focused pane.
func (m Model) move(run *game.Run, dRow, dCol int) Model {
	if m.pane == paneBoard {
		n := run.BoardSize
		if n == 0 {
			return m
		}
		r := wrap(m.cursor/n+dRow, n)
		c := wrap(m.cursor%n+dCol, n)
		m.cursor = r*n + c
		return m
	}
	m.row = wrap(m.row+dRow, m.rows(run))
	return m
}

// rows returns how many selectable rows the focused list pane has.
func (m Model) rows(run *game.Run) int {
	switch m.pane {
	case paneShop:
		return len(run.Shop)
	case paneItems:
		return len(run.Inventory)
	case paneEvents:
		return len(m.choices(run))
	}
	return 0
}

// selection maps the cursor to the action Select performs.
func (m Model) selection(run *game.Run) (game.Action, bool) {
	switch m.pane {
	case paneBoard:
		if m.cursor < len(run.Board) {
			return game.Action{Kind: game.KindFreeMark, CellID: run.Board[m.cursor].ID}, true
		}
	case paneShop:
		if m.row < len(run.Shop) {
			return game.Action{Kind: game.KindBuy, ItemID: run.Shop[m.row].Item.ID}, true
		}
	case paneItems:
		if m.row < len(run.Inventory) {
			return game.Action{Kind: game.KindUseItem, ItemID: run.Inventory[m.row].Def.ID}, true
		}
	case paneEvents:
		if cs := m.choices(run); m.row < len(cs) {
			return game.Action{Kind: game.KindResolveEvent, EventID: cs[m.row].EventID, OptionID: cs[m.row].OptionID}, true
		}
	}
	return game.Action{}, false
}

// choices lists the options of every unresolved event on the floor.
func (m Model) choices(run *game.Run) []choice {
	var out []choice
	for _, ev := range run.Events {
		if ev.Resolved {
			continue
		}
		def, ok := m.sess.Service().Tables().Event(ev.ID)
		if !ok {
			continue
		}
		for _, opt := range def.Options {
			out = append(out, choice{EventID: def.ID, OptionID: opt.ID, Label: def.Name + ": " + opt.Label})
		}
	}
	return out
}

// do applies an action through the session.
func (m Model) do(a game.Action) Model {
	run, err := m.sess.Do(a)
	if err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
	if run != nil {
		if n := m.rows(run); m.row >= n {
			m.row = max(n-1, 0)
		}
	}
	return m
}

// handleAutoplay lets the greedy policy take one action.
func (m Model) handleAutoplay(msg AutoplayMsg) (tea.Model, tea.Cmd) {
	if !m.autoplay || msg.gen != m.autoGen || m.screen != screenPlay {
		return m, nil
	}
	run := m.sess.Run()
	if run == nil || run.Terminal() {
		m.autoplay = false
		return m, nil
	}
	m = m.do(sim.Policy(m.sess.Service(), m.sess.Meta(), run))
	if m.status != "" || m.sess.Run().Terminal() {
		m.autoplay = false
		return m, nil
	}
	return m, autoplayCmd(m.opts.Autoplay, m.autoGen)
}

func (m Model) openHistory() Model {
	m.autoplay = false
	m.history = m.history.Reload(m.biomeFilter())
	m.screen = screenHistory
	return m
}

// biomeFilter is the biome the history screen opens on.
func (m Model) biomeFilter() string {
	if run := m.sess.Run(); run != nil {
		return run.BiomeID
	}
	return ""
}

// handleHistoryKey forwards input to the history screen.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.screen = screenStart
		if m.sess.Run() != nil {
			m.screen = screenPlay
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenPlay:
		if run := m.sess.Run(); run != nil {
			return m.renderPlay(run)
		}
	case screenHistory:
		return m.history.View()
	}
	return m.renderStart()
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// Run starts the Bubble Tea program over sess.
func Run(sess *session.Session, opts Options) error {
	p := tea.NewProgram(
		NewModel(sess, opts),
		tea.WithAltScreen(), // Use alternate screen buffer
	)
	_, err := p.Run()
	return err
}
