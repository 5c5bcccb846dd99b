package tracker_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

var sampleStocks = []model.ResourceStock{
	{Amount: 1000, DailyUpkeep: 500, LastRefilled: t0},
	{Amount: 2000, DailyUpkeep: 150, LastRefilled: t0},
	{Amount: 1, DailyUpkeep: 0.5, LastRefilled: t0},
	{Amount: 12345.6, DailyUpkeep: 987.3, LastRefilled: t0},
}

func TestEvaluate_AtRefill(t *testing.T) {
	for _, s := range sampleStocks {
		st := tracker.Evaluate(s, t0)
		assert.Equal(t, s.Amount, st.Remaining)
		assert.Equal(t, 100.0, st.Percentage)
	}
}

func TestEvaluate_PastDepletion(t *testing.T) {
	for _, s := range sampleStocks {
		full := s.Amount / s.DailyUpkeep * 24

		st := tracker.Evaluate(s, t0.Add(hours(full)))
		assert.InDelta(t, 0, st.Remaining, 1e-6)

		for _, extra := range []float64{0.01, 1, 48, 10_000} {
			st := tracker.Evaluate(s, t0.Add(hours(full+extra)))
			assert.Equal(t, 0.0, st.Remaining)
			assert.Equal(t, 0.0, st.TimeToEmptyHours)
			assert.Equal(t, 0.0, st.Percentage)
		}
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	for _, s := range sampleStocks {
		prev := tracker.Evaluate(s, t0).Remaining
		for step := 1; step <= 500; step++ {
			cur := tracker.Evaluate(s, t0.Add(time.Duration(step)*17*time.Minute)).Remaining
			assert.LessOrEqual(t, cur, prev)
			prev = cur
		}
	}
}

func TestEvaluate_ClockSkew(t *testing.T) {
	s := model.ResourceStock{Amount: 500, DailyUpkeep: 100, LastRefilled: t0}
	st := tracker.Evaluate(s, t0.Add(-3*time.Hour))
	assert.Equal(t, 500.0, st.Remaining)
	assert.InDelta(t, 120.0, st.TimeToEmptyHours, 1e-9)
	assert.Equal(t, 100.0, st.Percentage)
}

func TestEvaluate_NearlyEmpty(t *testing.T) {
	s := model.ResourceStock{Amount: 1000, DailyUpkeep: 500, LastRefilled: t0}
	st := tracker.Evaluate(s, t0.Add(47*time.Hour))

	assert.InDelta(t, 1000-47.0/24*500, st.Remaining, 1e-9)
	assert.InDelta(t, 20.8, st.Remaining, 0.1)
	assert.InDelta(t, 1.0, st.TimeToEmptyHours, 1e-9)
	assert.True(t, st.InCriticalWindow(2*time.Hour))
	assert.Equal(t, tracker.LevelCritical, st.Level(2*time.Hour))
}

func TestEvaluate_ZeroUpkeep(t *testing.T) {
	s := model.ResourceStock{Amount: 300, DailyUpkeep: 0, LastRefilled: t0}
	for _, d := range []time.Duration{0, time.Hour, 24 * 365 * time.Hour} {
		st := tracker.Evaluate(s, t0.Add(d))
		assert.Equal(t, 300.0, st.Remaining)
		assert.Equal(t, tracker.InfiniteHours, st.TimeToEmptyHours)
		assert.False(t, st.Depletes())
		assert.False(t, st.InCriticalWindow(2*time.Hour))
		assert.Equal(t, tracker.LevelStable, st.Level(2*time.Hour))
	}
}

func TestEvaluate_ZeroAmount(t *testing.T) {
	s := model.ResourceStock{Amount: 0, DailyUpkeep: 10, LastRefilled: t0}
	st := tracker.Evaluate(s, t0)
	assert.Equal(t, 0.0, st.Remaining)
	assert.Equal(t, 0.0, st.Percentage)
	assert.Equal(t, tracker.LevelEmpty, st.Level(2*time.Hour))
}

func TestStatus_Level(t *testing.T) {
	threshold := 2 * time.Hour
	tests := []struct {
		tte  float64
		want tracker.Level
	}{
		{0, tracker.LevelEmpty},
		{0.001, tracker.LevelCritical},
		{2, tracker.LevelCritical},
		{2.0001, tracker.LevelOK},
		{tracker.InfiniteHours, tracker.LevelStable},
	}
	for _, tt := range tests {
		got := tracker.Status{TimeToEmptyHours: tt.tte}.Level(threshold)
		assert.Equal(t, tt.want, got, "tte=%v", tt.tte)
	}
}

func TestStatus_EmptyAt(t *testing.T) {
	at, ok := tracker.Status{TimeToEmptyHours: 1.5}.EmptyAt(t0)
	assert.True(t, ok)
	assert.Equal(t, t0.Add(90*time.Minute), at)

	_, ok = tracker.Status{TimeToEmptyHours: tracker.InfiniteHours}.EmptyAt(t0)
	assert.False(t, ok)
}

func TestStatus_JSON(t *testing.T) {
	stable := tracker.Evaluate(model.ResourceStock{Amount: 300, LastRefilled: t0}, t0)
	data, err := json.Marshal(stable)
	require.NoError(t, err)
	assert.JSONEq(t, `{"remaining":300,"time_to_empty_hours":null,"percentage":100}`, string(data))

	var back tracker.Status
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.Depletes())
	assert.Equal(t, tracker.LevelStable, back.Level(2*time.Hour))

	draining := tracker.Status{Remaining: 20, TimeToEmptyHours: 1.5, Percentage: 2}
	data, err = json.Marshal(draining)
	require.NoError(t, err)
	assert.JSONEq(t, `{"remaining":20,"time_to_empty_hours":1.5,"percentage":2}`, string(data))

	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, draining, back)
}

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{tracker.InfiniteHours, "never"},
		{0, "EMPTY"},
		{-1, "EMPTY"},
		{1.5, "1h 30m"},
		{0.25, "0h 15m"},
		{24, "1d 0h"},
		{53.9, "2d 5h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tracker.FormatTimeLeft(tt.hours))
	}
}

func TestSummarize(t *testing.T) {
	c := model.Container{Resources: map[model.ResourceKind]model.ResourceStock{
		model.KindWood:  {Amount: 100, DailyUpkeep: 2400, LastRefilled: t0}, // empty after 1h
		model.KindStone: {Amount: 100, DailyUpkeep: 1200, LastRefilled: t0}, // empty after 2h
		model.KindMetal: {Amount: 100, DailyUpkeep: 0, LastRefilled: t0},
	}}

	s := tracker.Summarize(c, t0.Add(90*time.Minute), 2*time.Hour)
	assert.True(t, s.Depleted)
	assert.True(t, s.Critical)

	s = tracker.Summarize(c, t0, 30*time.Minute)
	assert.False(t, s.Depleted)
	assert.False(t, s.Critical)
}

func BenchmarkEvaluate(b *testing.B) {
	s := model.ResourceStock{Amount: 1000, DailyUpkeep: 500, LastRefilled: t0}
	now := t0.Add(13 * time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tracker.Evaluate(s, now)
	}
}
