package tracker

import (
	"time"

	"github.com/google/uuid"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// DefaultCriticalThreshold is the time-to-empty at which a stock starts alerting.
const DefaultCriticalThreshold = 2 * time.Hour

// Policy controls when Tick emits alerts.
type Policy struct {
	CriticalThreshold time.Duration
	AlertsEnabled     bool
}

func (p Policy) threshold() time.Duration {
	if p.CriticalThreshold <= 0 {
		return DefaultCriticalThreshold
	}
	return p.CriticalThreshold
}

// Tick evaluates every stock of every container at now. A stock inside the
// critical window whose kind has not been notified in the current depletion
// cycle is marked notified and produces exactly one event. Containers whose
// notified set does not change are returned as-is.
func Tick(containers []model.Container, now time.Time, policy Policy) ([]model.Container, []model.AlertEvent) {
	out := make([]model.Container, len(containers))
	var events []model.AlertEvent

	for i, c := range containers {
		out[i] = c
		if !policy.AlertsEnabled {
			continue
		}

		notified := c.Notified
		changed := false
		for _, kind := range c.Kinds() {
			if notified.Has(kind) {
				continue
			}
			st := Evaluate(c.Resources[kind], now)
			if !st.InCriticalWindow(policy.threshold()) {
				continue
			}
			notified = notified.With(kind)
			changed = true
			events = append(events, model.AlertEvent{
				ContainerID:      c.ID,
				ContainerName:    c.Name,
				Kind:             kind,
				TimeToEmptyHours: st.TimeToEmptyHours,
				At:               now,
			})
		}

		if changed {
			out[i].Notified = notified
		}
	}

	return out, events
}

// Refill stamps the given kinds of one container as refilled at now and
// clears their notified status. With no kinds every stock is refilled.
// Amounts and upkeep are left untouched. An unknown id, or kinds the
// container does not track, leave the collection unchanged.
func Refill(containers []model.Container, id string, now time.Time, kinds ...model.ResourceKind) []model.Container {
	return replace(containers, id, func(c model.Container) (model.Container, bool) {
		targets := kinds
		if len(targets) == 0 {
			targets = c.Kinds()
		}

		resources := make(map[model.ResourceKind]model.ResourceStock, len(c.Resources))
		for k, s := range c.Resources {
			resources[k] = s
		}

		var refilled []model.ResourceKind
		for _, k := range targets {
			s, ok := resources[k]
			if !ok {
				continue
			}
			s.LastRefilled = now
			resources[k] = s
			refilled = append(refilled, k)
		}
		if len(refilled) == 0 {
			return c, false
		}

		c.Resources = resources
		c.Notified = c.Notified.Without(refilled...)
		return c, true
	})
}

// Add appends a new container whose stocks are all refilled at now.
func Add(containers []model.Container, name string, stocks map[model.ResourceKind]model.StockInput, now time.Time) ([]model.Container, model.Container) {
	c := model.Container{
		ID:        uuid.New().String(),
		Name:      name,
		Resources: buildResources(stocks, now),
		Notified:  model.NewKindSet(),
	}

	out := make([]model.Container, 0, len(containers)+1)
	out = append(out, containers...)
	out = append(out, c)
	return out, c
}

// Edit replaces the name and resource set of a container. Every stock is
// treated as freshly refilled and the notified set is reset, since amounts,
// rates and refill times may all have changed.
func Edit(containers []model.Container, id, name string, stocks map[model.ResourceKind]model.StockInput, now time.Time) []model.Container {
	return replace(containers, id, func(c model.Container) (model.Container, bool) {
		c.Name = name
		c.Resources = buildResources(stocks, now)
		c.Notified = model.NewKindSet()
		return c, true
	})
}

// Delete removes a container. An unknown id leaves the collection unchanged.
func Delete(containers []model.Container, id string) []model.Container {
	idx := indexOf(containers, id)
	if idx < 0 {
		return containers
	}
	out := make([]model.Container, 0, len(containers)-1)
	out = append(out, containers[:idx]...)
	return append(out, containers[idx+1:]...)
}

// Find returns the container with the given id.
func Find(containers []model.Container, id string) (model.Container, bool) {
	idx := indexOf(containers, id)
	if idx < 0 {
		return model.Container{}, false
	}
	return containers[idx], true
}

func replace(containers []model.Container, id string, fn func(model.Container) (model.Container, bool)) []model.Container {
	idx := indexOf(containers, id)
	if idx < 0 {
		return containers
	}
	updated, ok := fn(containers[idx])
	if !ok {
		return containers
	}
	out := make([]model.Container, len(containers))
	copy(out, containers)
	out[idx] = updated
	return out
}

func indexOf(containers []model.Container, id string) int {
	for i, c := range containers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func buildResources(stocks map[model.ResourceKind]model.StockInput, now time.Time) map[model.ResourceKind]model.ResourceStock {
	resources := make(map[model.ResourceKind]model.ResourceStock, len(stocks))
	for k, in := range stocks {
		resources[k] = in.Stock(now)
	}
	return resources
}
