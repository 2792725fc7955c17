// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for teasaga.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The app itself is a plain bubbletea model: a demo picker. Once a demo is
// chosen, its saga runs inside a saga.Model and every message the app does
// not handle itself is forwarded to it. The saga decides what happens next.

package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/internal/demos"
	"github.com/kingrea/teasaga/internal/eventbridge"
	"github.com/kingrea/teasaga/internal/logbook"
	"github.com/kingrea/teasaga/saga"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota // Demo picker
	stateRunning                  // A demo saga owns the screen
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook records demo transitions in lb and shows its tail.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithBridge subscribes the running demo to the event bridge, so outside
// systems can answer its requests and send it actions.
func WithBridge(bridge *eventbridge.Bridge) AppOption {
	return func(a *App) {
		a.bridge = bridge
	}
}

// WithSagaOptions passes options (observers, token source) to every demo
// the app starts.
func WithSagaOptions(opts ...saga.Option) AppOption {
	return func(a *App) {
		a.sagaOpts = append(a.sagaOpts, opts...)
	}
}

// WithSelectionHook is called with the demo id each time a demo is opened
// from the menu.
func WithSelectionHook(hook func(id string) error) AppOption {
	return func(a *App) {
		a.onSelect = hook
	}
}

// WithInitialDemo opens id straight away instead of showing the menu.
func WithInitialDemo(id string) AppOption {
	return func(a *App) {
		a.pending = strings.TrimSpace(id)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state    appState
	catalog  []demos.Demo
	logbook  *logbook.Logbook
	bridge   *eventbridge.Bridge
	sagaOpts []saga.Option
	onSelect func(id string) error
	pending  string

	// UI components
	mainMenu  list.Model
	help      help.Model
	keys      globalKeys
	statusMsg string
	err       error

	// The running demo
	demo    demos.Demo
	running *saga.Model[demos.State, tea.Msg]
	sub     *eventbridge.Subscription

	width  int
	height int
}

type globalKeys struct {
	Quit key.Binding
	Back key.Binding
	Open key.Binding
}

func newGlobalKeys() globalKeys {
	return globalKeys{
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "menu")),
		Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	}
}

// demoItem implements list.Item for the demo picker.
type demoItem struct {
	demo demos.Demo
}

func (i demoItem) Title() string       { return i.demo.Title }
func (i demoItem) Description() string { return i.demo.Description }
func (i demoItem) FilterValue() string { return i.demo.ID }

// NewApp creates the demo picker over catalog.
func NewApp(catalog []demos.Demo, opts ...AppOption) *App {
	items := make([]list.Item, len(catalog))
	for i, d := range catalog {
		items[i] = demoItem{demo: d}
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Select Demo"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	app := &App{
		state:    stateMainMenu,
		catalog:  catalog,
		mainMenu: mainMenu,
		help:     help.New(),
		keys:     newGlobalKeys(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.logInfo("Session opened · %d demos", len(catalog))
	return app
}

// Init opens the initial demo, if one was requested.
func (a *App) Init() tea.Cmd {
	if a.pending == "" {
		return nil
	}
	id := a.pending
	a.pending = ""
	d, err := demos.Lookup(a.catalog, id)
	if err != nil {
		a.err = err
		a.statusMsg = err.Error()
		return nil
	}
	a.selectDemo(d.ID)
	return a.openDemo(d)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.closeDemo()
			return a, tea.Quit
		case msg.String() == "q" && a.state == stateMainMenu:
			return a, tea.Quit
		case key.Matches(msg, a.keys.Back):
			if a.state == stateRunning {
				return a.returnToMainMenu()
			}
		case key.Matches(msg, a.keys.Open):
			if a.state == stateMainMenu {
				return a.handleMainMenuSelection()
			}
		}
		if a.state == stateRunning {
			if action, ok := a.demo.ActionFor(msg.String()); ok {
				return a, a.dispatch(action)
			}
			return a, nil
		}

	case saga.FailedMsg:
		if a.running != nil && errors.Is(a.running.Err(), msg.Err) {
			a.err = msg.Err
			a.statusMsg = "Saga failed: " + msg.Err.Error()
			a.logError("%s failed: %v", a.demo.ID, msg.Err)
		}
		return a, nil

	case bridgeMsg:
		return a, a.handleBridgeMsg(msg)

	case eventbridge.RequestedMsg:
		a.logInfo("Awaiting answer %s · %s", msg.Pending.Token, msg.Pending.Prompt)
		return a, nil

	case bridgeClosedMsg:
		return a, nil
	}

	switch a.state {
	case stateMainMenu:
		var cmd tea.Cmd
		a.mainMenu, cmd = a.mainMenu.Update(msg)
		return a, cmd
	case stateRunning:
		// Effect results: responses, ticks, anything a command produced.
		return a, a.dispatch(msg)
	}
	return a, nil
}

func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(demoItem)
	if !ok {
		return a, nil
	}
	a.selectDemo(item.demo.ID)
	return a, a.openDemo(item.demo)
}

func (a *App) selectDemo(id string) {
	for idx, d := range a.catalog {
		if d.ID == id {
			a.mainMenu.Select(idx)
			break
		}
	}
	if a.onSelect == nil {
		return
	}
	if err := a.onSelect(id); err != nil {
		a.logWarn("Saving default demo %s failed: %v", id, err)
	}
}

// openDemo starts d's saga and returns its initial effects plus the bridge
// listener.
func (a *App) openDemo(d demos.Demo) tea.Cmd {
	a.closeDemo()
	view := func(s demos.State) string { return renderDemo(d, s) }
	model, err := saga.NewModel(d.Program(), nil, view, a.sagaOpts...)
	if err != nil {
		a.err = err
		a.statusMsg = "Starting " + d.ID + " failed: " + err.Error()
		a.logError("Starting %s failed: %v", d.ID, err)
		return nil
	}
	a.demo = d
	a.running = model
	a.state = stateRunning
	a.err = nil
	a.statusMsg = "Running " + d.Title
	a.logInfo("Opened %s", d.ID)
	a.recordTransition()

	cmds := []tea.Cmd{model.Init()}
	if a.bridge != nil {
		sub := a.bridge.Subscribe(d.ID)
		a.sub = &sub
		cmds = append(cmds, listen(sub))
	}
	return tea.Batch(cmds...)
}

// dispatch forwards event to the running saga and records the resulting
// state.
func (a *App) dispatch(event tea.Msg) tea.Cmd {
	if a.running == nil {
		return nil
	}
	cmd := a.running.Dispatch(event)
	a.recordTransition()
	return cmd
}

func (a *App) recordTransition() {
	if a.running == nil || a.logbook == nil || a.running.Err() != nil {
		return
	}
	a.logbook.Transition(a.demo.ID, a.demo.Describe(a.running.State()))
}

func (a *App) closeDemo() {
	if a.sub != nil {
		a.sub.Close()
		a.sub = nil
	}
	if a.running != nil {
		_ = a.running.Close()
		a.running = nil
	}
	if a.logbook != nil && a.demo.ID != "" {
		a.logbook.Forget(a.demo.ID)
	}
}

func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	id := a.demo.ID
	a.closeDemo()
	a.demo = demos.Demo{}
	a.state = stateMainMenu
	a.err = nil
	a.statusMsg = ""
	a.logInfo("Closed %s · returned to menu", id)
	return a, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}
