package watchdog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eytandecker/simsensors/internal/alarms"
)

// DefaultTimeout is used when New is given a non-positive timeout.
const DefaultTimeout = 500 * time.Millisecond

// AlarmSetter is implemented by alarms.Table.
type AlarmSetter interface {
	Set(name string, sev alarms.Severity)
	Clear(name string)
}

// WithLogger sets the logger for the watchdog.
func WithLogger(logger *slog.Logger) func(w *Watchdog) {
	return func(w *Watchdog) {
		w.logger = logger.With(slog.String("component", "watchdog"))
	}
}

// Watchdog tracks flags that registered tasks must update within a timeout.
type Watchdog struct {
	timeout time.Duration
	alarms  AlarmSetter
	logger  *slog.Logger

	mu      sync.Mutex
	flags   map[string]time.Time
	expired bool
}

// New creates a Watchdog. alarms may be nil. A non-positive timeout falls
// back to DefaultTimeout.
func New(timeout time.Duration, alarms AlarmSetter, options ...func(w *Watchdog)) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	w := &Watchdog{
		timeout: timeout,
		alarms:  alarms,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		flags:   make(map[string]time.Time),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// RegisterFlag adds a flag. The flag counts as updated at registration.
func (w *Watchdog) RegisterFlag(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flags[name] = time.Now()
}

// UpdateFlag marks the flag as alive.
func (w *Watchdog) UpdateFlag(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.flags[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	w.flags[name] = time.Now()
	return nil
}

// Check returns the flags not updated within the timeout, sorted by name.
func (w *Watchdog) Check(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var expired []string
	for name, last := range w.flags {
		if now.Sub(last) > w.timeout {
			expired = append(expired, name)
		}
	}
	sort.Strings(expired)
	w.expired = len(expired) > 0
	return expired
}

// Healthy reports whether the last Check found every flag alive.
func (w *Watchdog) Healthy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.expired
}

// Run checks the flags once per timeout until ctx is done, raising the
// watchdog alarm while any flag is expired.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.timeout)
	defer ticker.Stop()

	wasExpired := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			expired := w.Check(now)
			switch {
			case len(expired) > 0:
				if !wasExpired {
					w.logger.Error("flags expired", slog.Any("flags", expired), slog.Duration("timeout", w.timeout))
				}
				if w.alarms != nil {
					w.alarms.Set(alarms.Watchdog, alarms.SeverityCritical)
				}
				wasExpired = true
			case wasExpired:
				w.logger.Info("flags recovered")
				if w.alarms != nil {
					w.alarms.Clear(alarms.Watchdog)
				}
				wasExpired = false
			}
		}
	}
}
