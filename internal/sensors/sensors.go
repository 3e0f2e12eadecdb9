package sensors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/eytandecker/simsensors/internal/alarms"
	"github.com/eytandecker/simsensors/internal/taskmonitor"
	"github.com/eytandecker/simsensors/internal/uavobject"
	"github.com/eytandecker/simsensors/pkg/types"
)

const (
	// TaskName is the name the task registers with the task monitor.
	TaskName = "Sensors"
	// WatchdogFlag is updated once per cycle.
	WatchdogFlag = "Sensors"
	// DefaultPeriod is the cycle period.
	DefaultPeriod = 20 * time.Millisecond
)

// AlarmClearer is implemented by alarms.Table.
type AlarmClearer interface {
	Clear(name string)
}

// Watchdog is implemented by watchdog.Watchdog.
type Watchdog interface {
	RegisterFlag(name string)
	UpdateFlag(name string) error
}

// TaskMonitor is implemented by taskmonitor.Monitor.
type TaskMonitor interface {
	Add(name string) *taskmonitor.Task
}

// Config holds configuration for the Module.
type Config struct {
	Period  time.Duration
	Profile Profile
}

// DefaultConfig returns a Config with the stock period and profile.
func DefaultConfig() Config {
	return Config{Period: DefaultPeriod, Profile: DefaultProfile()}
}

// WithLogger sets the logger for the module.
func WithLogger(logger *slog.Logger) func(m *Module) {
	return func(m *Module) {
		m.logger = logger.With(slog.String("module", "sensors"))
	}
}

// WithAlarms sets the alarm table cleared when the task starts.
func WithAlarms(a AlarmClearer) func(m *Module) {
	return func(m *Module) { m.alarms = a }
}

// WithWatchdog sets the watchdog whose flag the task updates every cycle.
func WithWatchdog(w Watchdog) func(m *Module) {
	return func(m *Module) { m.watchdog = w }
}

// WithTaskMonitor sets the monitor the task registers with.
func WithTaskMonitor(tm TaskMonitor) func(m *Module) {
	return func(m *Module) { m.monitor = tm }
}

// Module is the simulated sensor task. It publishes the profile values into
// the sensor objects on a fixed period.
type Module struct {
	cfg      Config
	alarms   AlarmClearer
	watchdog Watchdog
	monitor  TaskMonitor
	logger   *slog.Logger

	accels       *uavobject.Object[types.Accels]
	gyros        *uavobject.Object[types.Gyros]
	gyrosBias    *uavobject.Object[types.GyrosBias]
	baroAltitude *uavobject.Object[types.BaroAltitude]
	gpsPosition  *uavobject.Object[types.GPSPosition]
	magnetometer *uavobject.Object[types.Magnetometer]
	homeLocation *uavobject.Object[types.HomeLocation]
}

// NewModule registers every object the task reads or writes on bus.
// GyrosBias and HomeLocation are written rarely, so they never age out.
func NewModule(bus *uavobject.Bus, cfg Config, options ...func(m *Module)) (*Module, error) {
	m := &Module{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(m)
	}

	var err error
	if m.accels, err = uavobject.Register[types.Accels](bus, types.ObjectAccels); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.baroAltitude, err = uavobject.Register[types.BaroAltitude](bus, types.ObjectBaroAltitude); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.gyros, err = uavobject.Register[types.Gyros](bus, types.ObjectGyros); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.gyrosBias, err = uavobject.Register[types.GyrosBias](bus, types.ObjectGyrosBias, uavobject.WithStaleThreshold(0)); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.magnetometer, err = uavobject.Register[types.Magnetometer](bus, types.ObjectMagnetometer); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.gpsPosition, err = uavobject.Register[types.GPSPosition](bus, types.ObjectGPSPosition); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if m.homeLocation, err = uavobject.Register[types.HomeLocation](bus, types.ObjectHomeLocation, uavobject.WithStaleThreshold(0)); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	return m, nil
}

// Start registers the task, publishes the home location, then runs one cycle
// immediately and one per period until ctx is done.
func (m *Module) Start(ctx context.Context) error {
	period := m.cfg.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	var task *taskmonitor.Task
	if m.monitor != nil {
		task = m.monitor.Add(TaskName)
		defer task.Stop()
	}
	if m.watchdog != nil {
		m.watchdog.RegisterFlag(WatchdogFlag)
	}
	if m.alarms != nil {
		m.alarms.Clear(alarms.Sensors)
	}

	m.publishHomeLocation()
	m.logger.Info("task started", slog.Duration("period", period))

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := m.Step(); err != nil {
			m.logger.Warn("cycle", slog.String("error", err.Error()))
		}
		if task != nil {
			task.Tick()
		}

		select {
		case <-ctx.Done():
			m.logger.Info("task stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// publishHomeLocation keeps HomeLocation fields outside the profile intact.
func (m *Module) publishHomeLocation() {
	home := m.cfg.Profile.Home
	m.homeLocation.Update(func(h *types.HomeLocation) {
		h.Latitude = home.Latitude
		h.Longitude = home.Longitude
		h.Altitude = home.Altitude
		h.Be = home.Be
		h.Set = true
	})
}

// Step performs exactly one cycle of sensor writes.
func (m *Module) Step() error {
	p := m.cfg.Profile

	// Every field is overwritten, so no read is needed.
	m.accels.Set(p.Accels)

	bias := m.gyrosBias.Get()
	m.gyros.Set(types.Gyros{
		X:           p.Gyros.X + bias.X,
		Y:           p.Gyros.Y + bias.Y,
		Z:           p.Gyros.Z + bias.Z,
		Temperature: p.Gyros.Temperature,
	})

	m.baroAltitude.Update(func(b *types.BaroAltitude) {
		b.Altitude = p.BaroAltitude
	})

	m.gpsPosition.Update(func(g *types.GPSPosition) {
		g.Latitude = p.GPS.Latitude
		g.Longitude = p.GPS.Longitude
		g.Altitude = p.GPS.Altitude
	})

	m.magnetometer.Set(p.Magnetometer)

	if m.watchdog != nil {
		if err := m.watchdog.UpdateFlag(WatchdogFlag); err != nil {
			return fmt.Errorf("sensors: update watchdog: %w", err)
		}
	}
	return nil
}
