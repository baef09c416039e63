package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/registry"
)

// maxHistory is how many runs the history table loads.
const maxHistory = 100

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextBiome key.Binding
	PrevBiome key.Binding
	Back      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextBiome, k.PrevBiome, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextBiome, k.PrevBiome},
		{k.Back, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextBiome: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next biome"),
		),
		PrevBiome: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev biome"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel shows the best finished runs, filtered by biome.
// The first filter entry is "" and means every biome.
type HistoryModel struct {
	reader  registry.HistoryReader
	filters []string
	names   map[string]string
	cursor  int
	records []registry.Record
	stats   registry.Stats
	err     error
	table   table.Model
	help    help.Model
	keys    HistoryKeyMap
	width   int
	height  int
}

// NewHistoryModel creates a history screen. reader may be nil when the store
// keeps no history.
func NewHistoryModel(reader registry.HistoryReader, tables *content.Tables, width, height int) HistoryModel {
	m := HistoryModel{
		reader:  reader,
		filters: []string{""},
		names:   map[string]string{"": "All biomes"},
		help:    help.New(),
		keys:    DefaultHistoryKeyMap(),
		width:   width,
		height:  height,
	}
	for _, b := range tables.Biomes {
		m.filters = append(m.filters, b.ID)
		m.names[b.ID] = b.Name
	}
	m.table = m.createTable()
	return m
}

// createTable creates a new table sized to the screen.
func (m HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Biome", Width: 12},
		{Title: "Difficulty", Width: 10},
		{Title: "Result", Width: 8},
		{Title: "Floors", Width: 6},
		{Title: "Damage", Width: 7},
		{Title: "Calls", Width: 6},
		{Title: "Date", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)), // Leave room for title, stats and help
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// Resize rebuilds the table for a new screen size.
func (m HistoryModel) Resize(width, height int) HistoryModel {
	m.width = width
	m.height = height
	m.help.Width = width
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

// Reload selects the filter for biomeID and reloads records and stats.
func (m HistoryModel) Reload(biomeID string) HistoryModel {
	m.cursor = 0
	for i, f := range m.filters {
		if f == biomeID {
			m.cursor = i
		}
	}
	m.load()
	return m
}

// load fetches the records of the current filter.
func (m *HistoryModel) load() {
	m.records, m.stats, m.err = nil, registry.Stats{}, nil
	if m.reader != nil {
		m.records, m.err = m.reader.TopRuns(m.filters[m.cursor], maxHistory)
		if m.err == nil {
			m.stats, m.err = m.reader.Stats()
		}
	}
	m.updateTableRows()
}

func (m *HistoryModel) updateTableRows() {
	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		result := "defeat"
		if r.Victory {
			result = "victory"
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			m.biomeName(r.BiomeID),
			r.DifficultyID,
			result,
			fmt.Sprintf("%d", r.FloorsCleared),
			fmt.Sprintf("%d", r.DamageDealt),
			fmt.Sprintf("%d", r.CallsMade),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m HistoryModel) biomeName(id string) string {
	if name, ok := m.names[id]; ok {
		return name
	}
	return id
}

// Update handles input for the history screen. Back and quit are handled by
// the parent model.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.NextBiome):
			m.cursor = wrap(m.cursor+1, len(m.filters))
			m.load()
			return m, nil
		case key.Matches(msg, m.keys.PrevBiome):
			m.cursor = wrap(m.cursor-1, len(m.filters))
			m.load()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(centerText("RUN HISTORY - "+m.names[m.filters[m.cursor]], m.width)))
	b.WriteString("\n\n")

	switch {
	case m.reader == nil:
		b.WriteString(emptyStyle.Render("This storage backend keeps no run history."))
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case len(m.records) == 0:
		b.WriteString(emptyStyle.Render("No finished runs yet.\nClear a floor or two and come back!"))
	default:
		b.WriteString(panelStyle.Render(m.table.View()))
	}
	b.WriteString("\n")

	if m.reader != nil && m.err == nil {
		s := m.stats
		line := fmt.Sprintf("runs %d  victories %d  best floors %d  avg damage %.1f", s.Runs, s.Victories, s.BestFloors, s.AvgDamage)
		if !s.LastPlayed.IsZero() {
			line += "  last played " + s.LastPlayed.Format("Jan 02 15:04")
		}
		b.WriteString(dimStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
