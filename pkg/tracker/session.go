package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/storage"
)

var (
	ErrNotFound   = errors.New("container not found")
	ErrNotTracked = errors.New("resource not tracked by container")
)

// Dispatcher receives the alert events produced by a tick.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []model.AlertEvent)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithThreshold sets the critical window.
func WithThreshold(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithDispatcher sets where alert events are delivered.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// Session is the main entry point for tracking containers. The store is
// the source of truth: every tick and mutation re-reads it inside one
// transaction, so several processes can share a store. The in-memory copy
// serves reads between those transactions.
type Session struct {
	mu            sync.RWMutex
	containers    []model.Container
	alertsEnabled bool

	// unsaved holds kinds alerted by a tick whose save failed, keyed to the
	// refill time of the cycle they were alerted in.
	unsaved map[cycleKey]time.Time

	// tickMu serializes ticks; a tick that finds it held is skipped.
	tickMu sync.Mutex

	storage    storage.Storage
	dispatcher Dispatcher
	threshold  time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

type cycleKey struct {
	id   string
	kind model.ResourceKind
}

// NewSession creates a session backed by store.
func NewSession(store storage.Storage, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		containers: []model.Container{},
		unsaved:    make(map[cycleKey]time.Time),
		storage:    store,
		threshold:  DefaultCriticalThreshold,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the store holds.
func (s *Session) Load(ctx context.Context) error {
	containers, err := s.storage.LoadContainers(ctx)
	if err != nil {
		return fmt.Errorf("load containers: %w", err)
	}
	enabled, err := s.storage.AlertsEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load alerts flag: %w", err)
	}

	s.mu.Lock()
	s.containers = s.withUnsaved(containers)
	s.alertsEnabled = enabled
	s.mu.Unlock()

	s.logger.Debug("session loaded", "containers", len(containers), "alerts_enabled", enabled)
	return nil
}

// Now returns the session clock's current time.
func (s *Session) Now() time.Time { return s.now() }

// Threshold returns the critical window.
func (s *Session) Threshold() time.Duration { return s.threshold }

// Containers returns a snapshot of the collection.
func (s *Session) Containers() []model.Container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Container, len(s.containers))
	copy(out, s.containers)
	return out
}

// Container returns one container by id.
func (s *Session) Container(id string) (model.Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Find(s.containers, id)
}

// AlertsEnabled reports whether ticks may emit alerts.
func (s *Session) AlertsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alertsEnabled
}

// SetAlertsEnabled persists the alerts flag.
func (s *Session) SetAlertsEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, func(st storage.State) (storage.State, error) {
		st.AlertsEnabled = enabled
		return st, nil
	})
	if err != nil {
		return fmt.Errorf("save alerts flag: %w", err)
	}
	s.logger.Info("alerts toggled", "enabled", enabled)
	return nil
}

// Add creates a container whose stocks all start refilled now.
func (s *Session) Add(ctx context.Context, name string, stocks map[model.ResourceKind]model.StockInput) (model.Container, error) {
	name, err := validate(name, stocks)
	if err != nil {
		return model.Container{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var c model.Container
	err = s.update(ctx, func(st storage.State) (storage.State, error) {
		st.Containers, c = Add(st.Containers, name, stocks, s.now())
		return st, nil
	})
	if err != nil {
		return model.Container{}, err
	}

	s.logger.Info("container added", "id", c.ID, "name", c.Name, "kinds", len(c.Resources))
	return c, nil
}

// Edit replaces a container's name and stocks. All stocks restart from now.
func (s *Session) Edit(ctx context.Context, id, name string, stocks map[model.ResourceKind]model.StockInput) (model.Container, error) {
	name, err := validate(name, stocks)
	if err != nil {
		return model.Container{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var c model.Container
	err = s.update(ctx, func(st storage.State) (storage.State, error) {
		if _, ok := Find(st.Containers, id); !ok {
			return st, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		st.Containers = Edit(st.Containers, id, name, stocks, s.now())
		c, _ = Find(st.Containers, id)
		return st, nil
	})
	if err != nil {
		return model.Container{}, err
	}

	s.logger.Info("container edited", "id", id, "name", name)
	return c, nil
}

// Delete removes a container.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, func(st storage.State) (storage.State, error) {
		if _, ok := Find(st.Containers, id); !ok {
			return st, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		st.Containers = Delete(st.Containers, id)
		return st, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("container deleted", "id", id)
	return nil
}

// Refill marks the given kinds of a container as refilled now. With no
// kinds every stock is refilled.
func (s *Session) Refill(ctx context.Context, id string, kinds ...model.ResourceKind) (model.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c model.Container
	err := s.update(ctx, func(st storage.State) (storage.State, error) {
		found, ok := Find(st.Containers, id)
		if !ok {
			return st, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		for _, k := range kinds {
			if _, tracked := found.Resources[k]; !tracked {
				return st, fmt.Errorf("%w: %s", ErrNotTracked, k)
			}
		}
		st.Containers = Refill(st.Containers, id, s.now(), kinds...)
		c, _ = Find(st.Containers, id)
		return st, nil
	})
	if err != nil {
		return model.Container{}, err
	}

	s.logger.Info("container refilled", "id", id, "name", c.Name, "kinds", kinds)
	return c, nil
}

// Tick runs the alert engine once against the stored state and the current
// clock, persists any newly notified kinds and hands the resulting events
// to the dispatcher. A tick started while another is running is skipped.
func (s *Session) Tick(ctx context.Context) []model.AlertEvent {
	if !s.tickMu.TryLock() {
		s.logger.Debug("tick skipped, previous tick still running")
		return nil
	}
	defer s.tickMu.Unlock()

	s.mu.Lock()
	var (
		current, next storage.State
		events        []model.AlertEvent
	)
	err := s.storage.Update(ctx, func(st storage.State) (storage.State, error) {
		st.Containers = s.withUnsaved(st.Containers)
		current = st

		next = st
		next.Containers, events = Tick(st.Containers, s.now(), Policy{
			CriticalThreshold: s.threshold,
			AlertsEnabled:     st.AlertsEnabled,
		})
		if len(events) == 0 {
			return st, storage.ErrNoChange
		}
		return next, nil
	})
	switch {
	case err != nil && len(events) > 0:
		// Keep the notified state in memory even when the save fails.
		s.logger.Error("save notified state failed", "error", err)
		for _, ev := range events {
			c, _ := Find(next.Containers, ev.ContainerID)
			s.unsaved[cycleKey{ev.ContainerID, ev.Kind}] = c.Resources[ev.Kind].LastRefilled
		}
		s.apply(next)
	case err != nil:
		s.logger.Error("tick failed", "error", err)
	case len(events) > 0:
		clear(s.unsaved)
		s.apply(next)
	default:
		s.apply(current)
	}
	s.mu.Unlock()

	if len(events) > 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, events)
	}
	return events
}

// update runs fn as one read-modify-write against the store and makes the
// written state current. The caller must hold mu.
func (s *Session) update(ctx context.Context, fn func(storage.State) (storage.State, error)) error {
	var next storage.State
	err := s.storage.Update(ctx, func(st storage.State) (storage.State, error) {
		st.Containers = s.withUnsaved(st.Containers)
		var err error
		next, err = fn(st)
		return next, err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotTracked) {
			return err
		}
		return fmt.Errorf("save containers: %w", err)
	}

	clear(s.unsaved)
	s.apply(next)
	return nil
}

func (s *Session) apply(st storage.State) {
	s.containers = st.Containers
	s.alertsEnabled = st.AlertsEnabled
}

// withUnsaved marks the kinds in unsaved as notified while the stock is
// still in the cycle they were alerted in. Entries whose cycle has ended
// are dropped. The caller must hold mu.
func (s *Session) withUnsaved(containers []model.Container) []model.Container {
	if len(s.unsaved) == 0 {
		return containers
	}

	live := make(map[cycleKey]bool, len(s.unsaved))
	out := make([]model.Container, len(containers))
	for i, c := range containers {
		for _, k := range c.Kinds() {
			key := cycleKey{c.ID, k}
			refilled, ok := s.unsaved[key]
			if !ok || !c.Resources[k].LastRefilled.Equal(refilled) {
				continue
			}
			live[key] = true
			c.Notified = c.Notified.With(k)
		}
		out[i] = c
	}

	for key := range s.unsaved {
		if !live[key] {
			delete(s.unsaved, key)
		}
	}
	return out
}

func validate(name string, stocks map[model.ResourceKind]model.StockInput) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.ErrEmptyName
	}
	if len(stocks) == 0 {
		return "", model.ErrNoResources
	}
	for k := range stocks {
		if !k.Valid() {
			return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, k)
		}
	}
	return name, nil
}
