package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/game"
)

// logTail is how many log lines the play screen shows.
const logTail = 6

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).Padding(1, 4)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	heartStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	coinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	markedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2"))
	freeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	charmStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle    = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusStyle = panelStyle.BorderForeground(lipgloss.Color("57"))
)

// statusStyles colors status effects by id.
var statusStyles = map[string]lipgloss.Style{
	content.StatusBurn:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	content.StatusChill:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	content.StatusOoze:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	content.StatusCurse:      lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	content.StatusVulnerable: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	content.StatusRebirth:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	content.StatusShield:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	content.StatusFury:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	content.StatusVision:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
}

// rarityStyles colors item names by rarity.
var rarityStyles = map[content.Rarity]lipgloss.Style{
	content.RarityCommon:    lipgloss.NewStyle(),
	content.RarityUncommon:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	content.RarityRare:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	content.RarityLegendary: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

// renderStart draws the biome and difficulty picker.
func (m Model) renderStart() string {
	var b strings.Builder
	tables := m.sess.Service().Tables()
	meta := m.sess.Meta()

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("W I N G O", m.width)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerText("a bingo battler", m.width)))
	b.WriteString("\n\n")

	var list strings.Builder
	list.WriteString("Biome\n")
	for i, bm := range tables.Biomes {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.biomeCursor {
			cursor = "> "
			style = selectStyle
		}
		name := bm.Name
		if !meta.BiomeUnlocked(bm.ID) {
			name += " (locked)"
			style = blockedStyle
		}
		list.WriteString(style.Render(cursor + name))
		list.WriteString("\n")
	}
	if m.biomeCursor < len(tables.Biomes) {
		list.WriteString(dimStyle.Render(tables.Biomes[m.biomeCursor].Note))
		list.WriteString("\n")
	}
	list.WriteString("\nDifficulty\n")
	if m.diffCursor < len(tables.Difficulties) {
		d := tables.Difficulties[m.diffCursor]
		list.WriteString(selectStyle.Render("< " + d.Label + " >"))
		list.WriteString(dimStyle.Render(fmt.Sprintf("  %dx%d board, %d hearts", d.BoardSize, d.BoardSize, d.StartingHearts)))
	}
	b.WriteString(panelStyle.Render(list.String()))
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("XP %d  runs %d  victories %d  best floor %d",
		meta.XP, meta.Stats.Runs, meta.Stats.Victories, meta.Stats.BestFloor)))
	b.WriteString("\n")
	if m.sess.Run() != nil {
		b.WriteString(dimStyle.Render("esc resumes the current run; enter abandons it"))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderPlay draws the play screen.
func (m Model) renderPlay(run *game.Run) string {
	var b strings.Builder

	b.WriteString(m.renderHeader(run))
	b.WriteString("\n")

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderBoss(run),
		m.renderBoard(run),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPlayer(run),
		m.renderShop(run),
		m.renderItems(run),
		m.renderEvents(run),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	if run.Terminal() {
		b.WriteString(renderSummary(run.Summary))
		b.WriteString("\n")
	}
	b.WriteString(renderLog(run.Log))
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderHeader(run *game.Run) string {
	biome, diff := run.BiomeID, run.DifficultyID
	floors := 0
	if run.Biome != nil {
		biome = run.Biome.Name
		floors = len(run.Biome.Floors)
	}
	if run.Difficulty != nil {
		diff = run.Difficulty.Label
	}
	line := fmt.Sprintf("WINGO  %s  floor %d/%d  %s  seed %d", biome, run.FloorIndex+1, floors, diff, run.Seed)
	if m.autoplay {
		line += "  [autoplay]"
	}
	out := titleStyle.Render(line)

	var mods []string
	if fm := run.FloorModifier; fm != nil {
		mods = append(mods, fm.Label+": "+fm.Description)
	}
	if enc := run.EncounterModifier; enc != nil {
		mods = append(mods, enc.Def.Name+": "+enc.Def.Description)
	}
	if len(mods) > 0 {
		out += "\n" + dimStyle.Render(strings.Join(mods, "  |  "))
	}
	return out
}

func (m Model) renderBoss(run *game.Run) string {
	boss := run.Boss
	name := boss.Def.Name
	if boss.Def.Elite {
		name += " (elite)"
	}
	var b strings.Builder
	b.WriteString(heartStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(hpBar(boss.HP, boss.MaxHP, 20))
	fmt.Fprintf(&b, " %d/%d\n", max(boss.HP, 0), boss.MaxHP)
	fmt.Fprintf(&b, "counter %d  calls %d/%d", m.sess.Service().CounterDamage(run), run.CallsMade, run.CallCap)
	if s := renderStatuses(boss.Statuses); s != "" {
		b.WriteString("\n" + s)
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderPlayer(run *game.Run) string {
	p := run.Player
	var b strings.Builder
	b.WriteString(heartStyle.Render(fmt.Sprintf("hearts %d", p.Hearts)))
	b.WriteString("  ")
	b.WriteString(coinStyle.Render(fmt.Sprintf("coins %d", p.Coins)))
	fmt.Fprintf(&b, "  combo %d", p.Combo)
	fmt.Fprintf(&b, "\ndaubers %d  bomb ", p.FreeDaubers)
	if p.BombReady {
		b.WriteString(goodStyle.Render("ready"))
	} else {
		b.WriteString(dimStyle.Render("spent"))
	}
	if s := renderStatuses(p.Statuses); s != "" {
		b.WriteString("\n" + s)
	}
	return panelStyle.Render(b.String())
}

// renderBoard draws the grid with its column headers, the preview and the
// last call.
func (m Model) renderBoard(run *game.Run) string {
	n := run.BoardSize
	var b strings.Builder

	if n > 0 && len(run.Board) >= n {
		headers := make([]string, n)
		for c := range n {
			headers[c] = cellStyle.Bold(true).Render(run.Board[c].Column)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
		b.WriteString("\n")
	}

	focused := m.pane == paneBoard && !run.Terminal()
	for r := range n {
		row := make([]string, n)
		for c := range n {
			i := r*n + c
			if i >= len(run.Board) {
				continue
			}
			row[c] = m.renderCell(run, i, focused && i == m.cursor)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}

	b.WriteString("next ")
	nums := make([]string, len(run.Preview))
	for i, v := range run.Preview {
		nums[i] = fmt.Sprintf("%d", v)
	}
	b.WriteString(strings.Join(nums, " "))
	if run.LastCall != 0 {
		fmt.Fprintf(&b, "\nlast %d", run.LastCall)
		if last := m.sess.LastCall(); last.State == run && last.Draw == run.LastCall {
			fmt.Fprintf(&b, "  matched %d  damage %d", last.Matched, last.Damage)
		}
	}
	return m.panel(paneBoard).Render(b.String())
}

func (m Model) renderCell(run *game.Run, i int, cursor bool) string {
	cell := run.Board[i]
	text := fmt.Sprintf("%d", cell.Number)
	style := cellStyle
	switch {
	case cell.Status == game.CellCharm:
		text = "<*>"
		style = style.Inherit(charmStyle)
	case cell.Free:
		text = "*"
		style = style.Inherit(freeStyle)
	case run.EncounterModifier != nil && run.EncounterModifier.Blocking(cell.Column) && !cell.Marked:
		text = "##"
		style = style.Inherit(blockedStyle)
	case cell.Marked:
		style = style.Inherit(markedStyle)
	}
	if cursor {
		style = cellStyle.Inherit(cursorStyle)
	}
	return style.Render(text)
}

func (m Model) renderShop(run *game.Run) string {
	var b strings.Builder
	b.WriteString("Shop")
	if !run.ShopAvailable {
		b.WriteString(dimStyle.Render("  closed"))
		return m.panel(paneShop).Render(b.String())
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  reroll %d", m.sess.Service().RerollCost(run))))
	for i, o := range run.Shop {
		line := fmt.Sprintf("%s  %d", rarityStyles[o.Item.Rarity].Render(o.Item.Name), o.Price)
		switch {
		case o.Sold:
			line = dimStyle.Render(o.Item.Name + "  sold")
		case o.Locked || !m.sess.Meta().ItemUnlocked(o.Item.ID):
			line = blockedStyle.Render(o.Item.Name + "  locked")
		}
		b.WriteString("\n" + m.listCursor(paneShop, i) + line)
	}
	return m.panel(paneShop).Render(b.String())
}

func (m Model) renderItems(run *game.Run) string {
	var b strings.Builder
	b.WriteString("Items")
	if len(run.Inventory) == 0 {
		b.WriteString(dimStyle.Render("  none"))
	}
	for i, it := range run.Inventory {
		line := rarityStyles[it.Def.Rarity].Render(it.Def.Name)
		if it.Quantity > 1 {
			line += fmt.Sprintf(" x%d", it.Quantity)
		}
		if it.Def.Passive() {
			line += dimStyle.Render(" (" + string(it.Def.Type) + ")")
		}
		b.WriteString("\n" + m.listCursor(paneItems, i) + line)
	}
	return m.panel(paneItems).Render(b.String())
}

func (m Model) renderEvents(run *game.Run) string {
	var b strings.Builder
	b.WriteString("Events")
	cs := m.choices(run)
	if len(cs) == 0 {
		b.WriteString(dimStyle.Render("  none"))
	}
	for i, c := range cs {
		b.WriteString("\n" + m.listCursor(paneEvents, i) + c.Label)
	}
	return m.panel(paneEvents).Render(b.String())
}

// panel returns the border style for p, highlighted when focused.
func (m Model) panel(p pane) lipgloss.Style {
	if m.pane == p {
		return focusStyle
	}
	return panelStyle
}

func (m Model) listCursor(p pane, row int) string {
	if m.pane == p && m.row == row {
		return "> "
	}
	return "  "
}

func renderStatuses(list []game.Status) string {
	parts := make([]string, 0, len(list))
	for _, s := range list {
		text := fmt.Sprintf("%s %d", s.ID, s.Stacks)
		if s.Duration != nil {
			text += fmt.Sprintf(" (%dt)", *s.Duration)
		}
		style, ok := statusStyles[s.ID]
		if !ok {
			style = lipgloss.NewStyle()
		}
		parts = append(parts, style.Render(text))
	}
	return strings.Join(parts, "  ")
}

func renderSummary(s *game.Summary) string {
	title := errorStyle.Bold(true).Render("DEFEAT")
	if s.Victory {
		title = goodStyle.Bold(true).Render("VICTORY")
	}
	body := fmt.Sprintf("%s\nfloors %d  damage %d  calls %d  items %d  statuses %d  coins %d\nenter to continue",
		title, s.FloorsCleared, s.DamageDealt, s.CallsMade, s.ItemsCollected, s.StatusesApplied, s.CoinsEarned)
	return focusStyle.Render(body)
}

func renderLog(lines []string) string {
	start := max(len(lines)-logTail, 0)
	var b strings.Builder
	for _, l := range lines[start:] {
		b.WriteString(dimStyle.Render(l))
		b.WriteString("\n")
	}
	return b.String()
}

// hpBar draws a filled bar of width cells.
func hpBar(hp, maxHP, width int) string {
	filled := 0
	if maxHP > 0 {
		filled = min(max(hp, 0)*width/maxHP, width)
	}
	return heartStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}
