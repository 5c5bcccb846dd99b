package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// AlertLevel indicates how urgent a depletion alert is.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"  // More than an hour left
	AlertCritical AlertLevel = "critical" // An hour or less left
)

// Alert is a depletion notification for one stock of one container.
type Alert struct {
	Level         AlertLevel         `json:"level"`
	ContainerID   string             `json:"container_id"`
	ContainerName string             `json:"container_name"`
	Kind          model.ResourceKind `json:"kind"`
	HoursLeft     float64            `json:"hours_left"`
	Title         string             `json:"title"`
	Message       string             `json:"message"`
	Toast         string             `json:"toast"`
	At            time.Time          `json:"at"`
}

// NewAlert renders the user-facing copy for an engine event.
func NewAlert(ev model.AlertEvent) Alert {
	level := AlertWarning
	if ev.TimeToEmptyHours <= 1 {
		level = AlertCritical
	}
	kind := strings.ToUpper(string(ev.Kind))
	return Alert{
		Level:         level,
		ContainerID:   ev.ContainerID,
		ContainerName: ev.ContainerName,
		Kind:          ev.Kind,
		HoursLeft:     ev.TimeToEmptyHours,
		Title:         "Upkeep alert: " + ev.ContainerName,
		Message:       fmt.Sprintf("%s will run out in %.1f hours!", kind, ev.TimeToEmptyHours),
		Toast:         kind + " needs refilling soon!",
		At:            ev.At,
	}
}

// Notifier delivers alerts to the user or an external system.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
