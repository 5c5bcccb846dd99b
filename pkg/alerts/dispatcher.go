package alerts

import (
	"context"
	"log/slog"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// Dispatcher fans engine events out to every configured notifier. Delivery
// failures are logged and never reach the caller.
type Dispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// Names lists the configured notifiers.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch delivers one alert per event to every notifier.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.AlertEvent) {
	for _, ev := range events {
		alert := NewAlert(ev)

		d.logger.Warn("stock entering critical window",
			"container", ev.ContainerName,
			"container_id", ev.ContainerID,
			"kind", ev.Kind,
			"hours_left", ev.TimeToEmptyHours,
		)

		for _, notifier := range d.notifiers {
			if err := notifier.Send(ctx, alert); err != nil {
				d.logger.Error("send alert failed",
					"notifier", notifier.Name(),
					"container", ev.ContainerName,
					"kind", ev.Kind,
					"error", err,
				)
			}
		}
	}
}
