// Package tui implements the interactive watch screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/alerts"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
)

// toastTTL is how long an in-app toast stays on screen.
const toastTTL = 8 * time.Second

type displayTickMsg time.Time

type alertTickMsg time.Time

type alertsMsg struct {
	events []model.AlertEvent
}

// actionMsg reports the outcome of a key-triggered session change.
type actionMsg struct {
	text string
	err  error
}

type toast struct {
	text string
	at   time.Time
}

// Model is the watch screen. It redraws every display interval and runs the
// alert engine every alert interval.
type Model struct {
	session         *tracker.Session
	displayInterval time.Duration
	alertInterval   time.Duration

	views    []tracker.ContainerView
	selected int
	toasts   []toast
	status   string
	statusT  time.Time

	width  int
	height int
}

// NewModel creates the watch screen for session.
func NewModel(session *tracker.Session, displayInterval, alertInterval time.Duration) Model {
	if displayInterval <= 0 {
		displayInterval = time.Second
	}
	if alertInterval <= 0 {
		alertInterval = 10 * time.Second
	}
	return Model{
		session:         session,
		displayInterval: displayInterval,
		alertInterval:   alertInterval,
		views:           session.Views(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(displayTick(m.displayInterval), alertTick(m.alertInterval), runAlerts(m.session, m.alertInterval))
}

func displayTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return displayTickMsg(t) })
}

func alertTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return alertTickMsg(t) })
}

func runAlerts(session *tracker.Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return alertsMsg{events: session.Tick(ctx)}
	}
}

func refill(session *tracker.Session, id string) tea.Cmd {
	return func() tea.Msg {
		c, err := session.Refill(context.Background(), id)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("%s refilled", c.Name)}
	}
}

func toggleAlerts(session *tracker.Session) tea.Cmd {
	return func() tea.Msg {
		enabled := !session.AlertsEnabled()
		if err := session.SetAlertsEnabled(context.Background(), enabled); err != nil {
			return actionMsg{err: err}
		}
		if enabled {
			return actionMsg{text: "Alerts on"}
		}
		return actionMsg{text: "Alerts off"}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.views)-1 {
				m.selected++
			}
		case "r", "R":
			if m.selected < len(m.views) {
				return m, refill(m.session, m.views[m.selected].ID)
			}
		case "a", "A":
			return m, toggleAlerts(m.session)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case displayTickMsg:
		m.refresh()
		return m, displayTick(m.displayInterval)
	case alertTickMsg:
		return m, tea.Batch(alertTick(m.alertInterval), runAlerts(m.session, m.alertInterval))
	case alertsMsg:
		now := m.session.Now()
		for _, ev := range msg.events {
			a := alerts.NewAlert(ev)
			m.toasts = append(m.toasts, toast{text: fmt.Sprintf("%s: %s", a.ContainerName, a.Toast), at: now})
		}
		if len(msg.events) > 0 {
			m.refresh()
		}
	case actionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.text
		}
		m.statusT = m.session.Now()
		m.refresh()
	}
	return m, nil
}

// refresh re-evaluates the collection and expires old toasts.
func (m *Model) refresh() {
	now := m.session.Now()
	m.views = m.session.Views()
	if m.selected >= len(m.views) {
		m.selected = max(0, len(m.views)-1)
	}

	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Sub(t.at) < toastTTL {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func (m Model) View() string {
	var sb strings.Builder

	alertState := critStyle.Render("Alerts off")
	if m.session.AlertsEnabled() {
		alertState = okStyle.Render("Alerts on")
	}
	sb.WriteString(titleStyle.Render("Upkeep"))
	sb.WriteString("  ")
	sb.WriteString(alertState)
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  critical window %s", m.session.Threshold())))
	sb.WriteString("\n\n")

	if len(m.views) == 0 {
		sb.WriteString(labelStyle.Render("No containers tracked. Use 'upkeep add' to create one."))
		sb.WriteString("\n")
	}

	for i, v := range m.views {
		style := panelStyle
		if i == m.selected {
			style = activePanelStyle
		}
		sb.WriteString(style.Render(renderContainer(v)))
		sb.WriteString("\n")
	}

	for _, t := range m.toasts {
		sb.WriteString(toastStyle.Render("! " + t.text))
		sb.WriteString("\n")
	}
	if m.status != "" && m.session.Now().Sub(m.statusT) < toastTTL {
		sb.WriteString(valueStyle.Render(m.status))
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("↑/↓ select  r refill  a toggle alerts  q quit"))
	return sb.String()
}

func renderContainer(v tracker.ContainerView) string {
	lines := []string{headerStyle.Render(v.Name)}
	switch {
	case v.Depleted:
		lines = append(lines, critStyle.Render("Materials depleted!"))
	case v.Critical:
		lines = append(lines, warnStyle.Render("Critical: refill soon!"))
	}

	for _, s := range v.Stocks {
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(fmt.Sprintf("%-8s", s.Kind.Label())),
			bar(s.Status.Percentage, 20, s.Level),
			valueStyle.Render(fmt.Sprintf(" %6.0f / %-6.0f", s.Status.Remaining, s.Stock.Amount)),
			labelStyle.Render(fmt.Sprintf(" -%.0f/day ", s.Stock.DailyUpkeep)),
			levelStyle(s.Level).Render(s.TimeLeft),
		)
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}
