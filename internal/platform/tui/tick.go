// Package tui is the Bubble Tea front-end for wingo: the start screen, the
// play screen, run history and the Wish SSH server that serves them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultAutoplayInterval is used when no interval is configured.
const DefaultAutoplayInterval = 400 * time.Millisecond

// AutoplayMsg asks the autoplayer to take its next action. Messages from a
// previous autoplay session carry a stale generation and are dropped.
type AutoplayMsg struct {
	gen int
}

// autoplayCmd schedules the next autoplay step after interval.
func autoplayCmd(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return AutoplayMsg{gen: gen}
	})
}
