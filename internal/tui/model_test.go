package tui

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/storage"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestModel(t *testing.T) (Model, *tracker.Session, *testClock) {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	session := tracker.NewSession(store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracker.WithClock(clock.Now))
	require.NoError(t, session.Load(context.Background()))

	_, err = session.Add(context.Background(), "Main base", map[model.ResourceKind]model.StockInput{
		model.KindStone: {Amount: 1000, DailyUpkeep: 500},
		model.KindMetal: {Amount: 1000, DailyUpkeep: 0},
	})
	require.NoError(t, err)

	return NewModel(session, time.Second, 10*time.Second), session, clock
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestModel_ViewShowsContainers(t *testing.T) {
	m, _, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "Main base")
	assert.Contains(t, out, "Stone")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "Alerts off")
}

func TestModel_DisplayTickReevaluates(t *testing.T) {
	m, _, clock := newTestModel(t)
	before := m.views[0].Stocks[0].Status.Remaining

	clock.Advance(12 * time.Hour)
	m, cmd := update(t, m, displayTickMsg(clock.Now()))
	assert.NotNil(t, cmd)
	assert.Less(t, m.views[0].Stocks[0].Status.Remaining, before)

	clock.Advance(35 * time.Hour)
	m, _ = update(t, m, displayTickMsg(clock.Now()))
	assert.Contains(t, m.View(), "Critical: refill soon!")
}

func TestModel_AlertsBecomeToasts(t *testing.T) {
	m, session, clock := newTestModel(t)
	require.NoError(t, session.SetAlertsEnabled(context.Background(), true))
	clock.Advance(47 * time.Hour)

	msg := runAlerts(session, time.Second)()
	am, ok := msg.(alertsMsg)
	require.True(t, ok)
	require.Len(t, am.events, 1)

	m, _ = update(t, m, am)
	require.Len(t, m.toasts, 1)
	assert.Contains(t, m.View(), "Main base: STONE needs refilling soon!")

	// Second tick in the same cycle produces nothing new
	am = runAlerts(session, time.Second)().(alertsMsg)
	assert.Empty(t, am.events)

	// Toasts expire
	clock.Advance(toastTTL + time.Second)
	m, _ = update(t, m, displayTickMsg(clock.Now()))
	assert.Empty(t, m.toasts)
}

func TestModel_RefillKey(t *testing.T) {
	m, session, clock := newTestModel(t)
	clock.Advance(47 * time.Hour)
	m, _ = update(t, m, displayTickMsg(clock.Now()))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Main base refilled", m.status)
	c := session.Containers()[0]
	assert.True(t, c.Resources[model.KindStone].LastRefilled.Equal(clock.Now()))
	assert.Equal(t, 100.0, m.views[0].Stocks[0].Status.Percentage)
}

func TestModel_ToggleAlertsKey(t *testing.T) {
	m, session, _ := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, session.AlertsEnabled())
	assert.Equal(t, "Alerts on", m.status)
	assert.Contains(t, m.View(), "Alerts on")
}

func TestModel_SelectionBounds(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.selected)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selected)
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct    float64
		filled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-20, 0},
	}
	for _, tt := range tests {
		got := bar(tt.pct, 10, tracker.LevelOK)
		assert.Equal(t, tt.filled, strings.Count(got, "█"), "pct=%v", tt.pct)
		assert.Equal(t, 10-tt.filled, strings.Count(got, "░"), "pct=%v", tt.pct)
	}
}
