package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/eytandecker/simsensors/pkg/types"
)

// DefaultInterval is the forwarding period when none is configured.
const DefaultInterval = time.Second

// Sink receives periodic snapshots of the object bus.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap types.Snapshot) error
	Close() error
}

// SnapshotSource is implemented by uavobject.Bus.
type SnapshotSource interface {
	Snapshot() types.Snapshot
}

// WithLogger sets the logger for the forwarder.
func WithLogger(logger *slog.Logger) func(f *Forwarder) {
	return func(f *Forwarder) {
		f.logger = logger.With(slog.String("component", "telemetry"))
	}
}

// Forwarder copies bus snapshots to every sink on a fixed interval.
type Forwarder struct {
	source   SnapshotSource
	sinks    []Sink
	interval time.Duration
	logger   *slog.Logger
}

// NewForwarder creates a Forwarder. A non-positive interval uses DefaultInterval.
func NewForwarder(source SnapshotSource, interval time.Duration, sinks []Sink, options ...func(f *Forwarder)) *Forwarder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	f := &Forwarder{
		source:   source,
		sinks:    sinks,
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// Forward takes one snapshot and writes it to every sink. A failing sink
// does not prevent delivery to the others; all failures are returned joined.
func (f *Forwarder) Forward(ctx context.Context) error {
	snap := f.source.Snapshot()

	var errs []error
	for _, s := range f.sinks {
		if err := s.Write(ctx, snap); err != nil {
			f.logger.Warn("sink write failed", slog.String("sink", s.Name()), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Run forwards snapshots until ctx is done, then closes every sink.
func (f *Forwarder) Run(ctx context.Context) error {
	defer f.closeSinks()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = f.Forward(ctx)
		}
	}
}

func (f *Forwarder) closeSinks() {
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			f.logger.Warn("sink close failed", slog.String("sink", s.Name()), slog.String("error", err.Error()))
		}
	}
}
