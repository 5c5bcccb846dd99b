package tracker

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// InfiniteHours is the time-to-empty reported for stocks that never deplete.
const InfiniteHours = math.MaxFloat64

// Level classifies a stock for display.
type Level string

const (
	LevelStable   Level = "stable"   // No upkeep, never depletes
	LevelOK       Level = "ok"       // Outside the critical window
	LevelCritical Level = "critical" // Inside the critical window
	LevelEmpty    Level = "empty"    // Fully depleted
)

// Status is the evaluated state of a stock at one instant.
type Status struct {
	Remaining        float64 `json:"remaining"`
	TimeToEmptyHours float64 `json:"time_to_empty_hours"`
	Percentage       float64 `json:"percentage"`
}

// Evaluate computes the remaining quantity of a stock at now. It never
// returns negative values; instants before the last refill count as no
// elapsed time.
func Evaluate(stock model.ResourceStock, now time.Time) Status {
	elapsedHours := now.Sub(stock.LastRefilled).Hours()
	if elapsedHours < 0 {
		elapsedHours = 0
	}

	consumed := elapsedHours / 24 * stock.DailyUpkeep
	remaining := math.Max(0, stock.Amount-consumed)

	tte := InfiniteHours
	if stock.DailyUpkeep > 0 {
		tte = remaining / stock.DailyUpkeep * 24
	}

	pct := 0.0
	if stock.Amount > 0 {
		pct = math.Min(100, math.Max(0, remaining/stock.Amount*100))
	}

	return Status{Remaining: remaining, TimeToEmptyHours: tte, Percentage: pct}
}

type statusJSON struct {
	Remaining        float64  `json:"remaining"`
	TimeToEmptyHours *float64 `json:"time_to_empty_hours"`
	Percentage       float64  `json:"percentage"`
}

// MarshalJSON writes a null time to empty for stocks that never deplete.
func (s Status) MarshalJSON() ([]byte, error) {
	out := statusJSON{Remaining: s.Remaining, Percentage: s.Percentage}
	if s.Depletes() {
		out.TimeToEmptyHours = &s.TimeToEmptyHours
	}
	return json.Marshal(out)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var in statusJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Status{Remaining: in.Remaining, TimeToEmptyHours: InfiniteHours, Percentage: in.Percentage}
	if in.TimeToEmptyHours != nil {
		s.TimeToEmptyHours = *in.TimeToEmptyHours
	}
	return nil
}

// Depletes reports whether the stock has a finite time to empty.
func (s Status) Depletes() bool {
	return s.TimeToEmptyHours != InfiniteHours
}

// InCriticalWindow reports whether 0 < time-to-empty <= threshold.
func (s Status) InCriticalWindow(threshold time.Duration) bool {
	return s.TimeToEmptyHours > 0 && s.TimeToEmptyHours <= threshold.Hours()
}

// Level classifies the status against the critical threshold.
func (s Status) Level(threshold time.Duration) Level {
	switch {
	case !s.Depletes():
		return LevelStable
	case s.TimeToEmptyHours <= 0:
		return LevelEmpty
	case s.InCriticalWindow(threshold):
		return LevelCritical
	default:
		return LevelOK
	}
}

// EmptyAt returns the instant the stock runs out, or false if it never does.
func (s Status) EmptyAt(now time.Time) (time.Time, bool) {
	if !s.Depletes() {
		return time.Time{}, false
	}
	return now.Add(time.Duration(s.TimeToEmptyHours * float64(time.Hour))), true
}

// FormatTimeLeft renders a countdown the way the cards display it:
// "2d 5h" from a day upward, "1h 30m" below that.
func FormatTimeLeft(hours float64) string {
	switch {
	case hours == InfiniteHours:
		return "never"
	case hours <= 0:
		return "EMPTY"
	case hours >= 24:
		days := math.Floor(hours / 24)
		rem := math.Floor(math.Mod(hours, 24))
		return fmt.Sprintf("%.0fd %.0fh", days, rem)
	default:
		h := math.Floor(hours)
		m := math.Floor((hours - h) * 60)
		return fmt.Sprintf("%.0fh %.0fm", h, m)
	}
}

// Summary is the worst state across a container's stocks.
type Summary struct {
	Depleted bool
	Critical bool
}

// Summarize evaluates every stock of a container and reports whether any is
// depleted or inside the critical window.
func Summarize(c model.Container, now time.Time, threshold time.Duration) Summary {
	var s Summary
	for _, stock := range c.Resources {
		switch Evaluate(stock, now).Level(threshold) {
		case LevelEmpty:
			s.Depleted = true
		case LevelCritical:
			s.Critical = true
		}
	}
	return s
}
