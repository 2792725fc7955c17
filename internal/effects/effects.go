// Package effects is a minimal effect subsystem for sagas: commands that
// feed messages straight back into the update loop, and a headless loop that
// executes them synchronously.
package effects

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Echo returns a command that immediately dispatches msg.
func Echo(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// Delay returns a command that dispatches msg after d. Non-positive delays
// behave like Echo.
func Delay(d time.Duration, msg tea.Msg) tea.Cmd {
	if d <= 0 {
		return Echo(msg)
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}
