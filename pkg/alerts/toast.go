package alerts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ToastNotifier writes the short in-app message of each alert to w.
type ToastNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewToastNotifier creates a toast notifier writing to w.
func NewToastNotifier(w io.Writer) *ToastNotifier {
	return &ToastNotifier{w: w}
}

func (t *ToastNotifier) Name() string { return "toast" }

func (t *ToastNotifier) Send(_ context.Context, alert Alert) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "[%s] %s (%.1fh left)\n", alert.ContainerName, alert.Toast, alert.HoursLeft)
	return err
}

// LogNotifier is the toast sink for headless processes: each alert's short
// message becomes a structured warn log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "toast")}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Send(ctx context.Context, alert Alert) error {
	l.logger.WarnContext(ctx, alert.Toast,
		"container_id", alert.ContainerID,
		"container", alert.ContainerName,
		"kind", alert.Kind,
		"hours_left", alert.HoursLeft,
		"level", alert.Level,
	)
	return nil
}
