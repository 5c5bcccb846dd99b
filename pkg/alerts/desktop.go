package alerts

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned when no desktop notification command
// is known for the running OS.
var ErrUnsupportedPlatform = errors.New("desktop notifications not supported on this platform")

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DesktopNotifier raises an OS notification through the platform's
// notification command.
type DesktopNotifier struct {
	goos string
	run  CommandRunner
}

// NewDesktopNotifier creates a notifier for the running OS.
func NewDesktopNotifier() *DesktopNotifier {
	return NewDesktopNotifierFor(runtime.GOOS, execRunner)
}

// NewDesktopNotifierFor creates a notifier for the given OS using run to
// execute commands.
func NewDesktopNotifierFor(goos string, run CommandRunner) *DesktopNotifier {
	return &DesktopNotifier{goos: goos, run: run}
}

func (d *DesktopNotifier) Name() string { return "desktop" }

func (d *DesktopNotifier) Send(ctx context.Context, alert Alert) error {
	switch d.goos {
	case "linux", "freebsd", "openbsd":
		urgency := "normal"
		if alert.Level == AlertCritical {
			urgency = "critical"
		}
		return d.run(ctx, "notify-send", "--app-name=upkeep", "--urgency="+urgency, alert.Title, alert.Message)
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(alert.Message), appleScriptString(alert.Title))
		return d.run(ctx, "osascript", "-e", script)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, d.goos)
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
