package tracker

import (
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// StockView is one evaluated stock, ready for display.
type StockView struct {
	Kind     model.ResourceKind  `json:"kind"`
	Stock    model.ResourceStock `json:"stock"`
	Status   Status              `json:"status"`
	Level    Level               `json:"level"`
	TimeLeft string              `json:"time_left"`
	Notified bool                `json:"notified"`
}

// ContainerView is a container evaluated at one instant.
type ContainerView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Stocks   []StockView `json:"stocks"`
	Depleted bool        `json:"depleted"`
	Critical bool        `json:"critical"`
}

// NewContainerView evaluates every stock of c at now.
func NewContainerView(c model.Container, now time.Time, threshold time.Duration) ContainerView {
	sum := Summarize(c, now, threshold)
	v := ContainerView{
		ID:       c.ID,
		Name:     c.Name,
		Stocks:   make([]StockView, 0, len(c.Resources)),
		Depleted: sum.Depleted,
		Critical: sum.Critical,
	}
	for _, k := range c.Kinds() {
		st := Evaluate(c.Resources[k], now)
		v.Stocks = append(v.Stocks, StockView{
			Kind:     k,
			Stock:    c.Resources[k],
			Status:   st,
			Level:    st.Level(threshold),
			TimeLeft: FormatTimeLeft(st.TimeToEmptyHours),
			Notified: c.Notified.Has(k),
		})
	}
	return v
}

// Views evaluates the whole collection at the session clock.
func (s *Session) Views() []ContainerView {
	now := s.now()
	containers := s.Containers()
	views := make([]ContainerView, 0, len(containers))
	for _, c := range containers {
		views = append(views, NewContainerView(c, now, s.threshold))
	}
	return views
}

// View evaluates one container at the session clock.
func (s *Session) View(id string) (ContainerView, bool) {
	c, ok := s.Container(id)
	if !ok {
		return ContainerView{}, false
	}
	return NewContainerView(c, s.now(), s.threshold), true
}
