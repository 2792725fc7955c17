package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/internal/demos"
	"github.com/kingrea/teasaga/internal/eventbridge"
	"github.com/kingrea/teasaga/saga"
)

// bridgeMsg carries one message taken from the demo's bridge inbox.
type bridgeMsg struct {
	demo string
	msg  tea.Msg
	sub  eventbridge.Subscription
}

// bridgeClosedMsg reports that a subscription's inbox was closed.
type bridgeClosedMsg struct {
	demo string
}

// listen blocks until the subscription yields a message. The app re-arms it
// after every message for as long as the demo stays open.
func listen(sub eventbridge.Subscription) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-sub.Messages
		if !ok {
			return bridgeClosedMsg{demo: sub.Demo}
		}
		return bridgeMsg{demo: sub.Demo, msg: msg, sub: sub}
	}
}

// handleBridgeMsg hands actions and answers from outside to the running
// saga. Messages from a subscription the app already closed are dropped.
func (a *App) handleBridgeMsg(msg bridgeMsg) tea.Cmd {
	if a.state != stateRunning || a.running == nil || a.sub == nil || msg.sub.Messages != a.sub.Messages {
		return nil
	}
	var event tea.Msg
	switch m := msg.msg.(type) {
	case eventbridge.ActionMsg:
		a.logInfo("Bridge action · %s → %s", msg.demo, m.Action)
		event = demos.Action(m.Action)
	case saga.Response:
		a.logInfo("Bridge answer · %s → %s", msg.demo, m.Token)
		event = m
	default:
		event = m
	}
	return tea.Batch(a.dispatch(event), listen(msg.sub))
}
