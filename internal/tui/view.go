package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/teasaga/internal/demos"
)

var (
	accentColor = lipgloss.Color("#5B8DEF")
	alertColor  = lipgloss.Color("#FF6B6B")
	borderColor = lipgloss.Color("#444444")
	mutedColor  = lipgloss.Color("#888888")
	bodyColor   = lipgloss.Color("#AAAAAA")
)

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch a.state {
	case stateMainMenu:
		a.mainMenu.SetSize(max(20, width-8), max(10, a.height-14))
		content = a.mainMenu.View()
	case stateRunning:
		if a.running != nil {
			content = a.running.View()
		} else {
			content = "Starting..."
		}
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(alertColor).
		MarginBottom(1).
		Render("⬡ TEASAGA")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(20, width-4)).
		Render(content)
	sections := []string{header, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderFooter() string {
	var lines []string
	if a.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(mutedColor)
		if a.err != nil {
			style = style.Foreground(alertColor)
		}
		lines = append(lines, style.Render(a.statusMsg))
	}
	lines = append(lines, a.help.ShortHelpView(a.helpBindings()))
	return lipgloss.NewStyle().MarginTop(1).Render(strings.Join(lines, "\n"))
}

// helpBindings lists the keys that do something on the current screen.
func (a *App) helpBindings() []key.Binding {
	if a.state != stateRunning {
		return []key.Binding{
			a.keys.Open,
			key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		}
	}
	bindings := make([]key.Binding, 0, len(a.demo.Bindings)+2)
	for _, b := range a.demo.Bindings {
		bindings = append(bindings, key.NewBinding(key.WithKeys(b.Key), key.WithHelp(b.Key, b.Help)))
	}
	return append(bindings, a.keys.Back, a.keys.Quit)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render(fmt.Sprintf("LOG · %s (%d/%d)", fileName, len(lines), total))
	body := lipgloss.NewStyle().
		Foreground(bodyColor).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

// renderDemo is the view function handed to the demo's saga.Model.
func renderDemo(d demos.Demo, s demos.State) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(d.Title)
	desc := lipgloss.NewStyle().Foreground(mutedColor).Render(d.Description)
	lines := []string{title, desc, ""}
	switch d.ID {
	case "parallel":
		lines = append(lines, fmt.Sprintf("a: %d", s.A), fmt.Sprintf("b: %d", s.B))
	case "fetch":
		lines = append(lines, fmt.Sprintf("magic number: %d", s.Magic))
		if s.Status != "" {
			lines = append(lines, "status: "+s.Status)
		}
		lines = append(lines, fmt.Sprintf("requests: %d", s.Fetches))
	case "approval":
		lines = append(lines, fmt.Sprintf("approved deploys: %d", s.Count))
		if s.Status != "" {
			lines = append(lines, "status: "+s.Status)
		}
		if s.Prompt != "" {
			lines = append(lines, "waiting on: "+s.Prompt)
		}
		return strings.Join(lines, "\n")
	default:
		lines = append(lines, fmt.Sprintf("count: %d", s.Count))
	}
	if dialog := renderDialog(s); dialog != "" {
		lines = append(lines, "", dialog)
	}
	return strings.Join(lines, "\n")
}

// renderDialog draws the confirmation or increment dialog when one is open.
func renderDialog(s demos.State) string {
	var text string
	switch {
	case s.Dialog != nil:
		text = fmt.Sprintf("Increment by %d?\n\n+ more · y ok · n cancel", *s.Dialog)
	case s.Prompt != "":
		text = fmt.Sprintf("%s\n\ny ok · n cancel", s.Prompt)
	default:
		return ""
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 2).
		Render(text)
}
