package telemetry

import (
	"context"
	"io"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/eytandecker/simsensors/pkg/types"
)

// Measurement is the InfluxDB measurement every object point is written to.
const Measurement = "sensor_data"

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// pointWriter is the subset of api.WriteAPI used by the sink.
type pointWriter interface {
	WritePoint(p *write.Point)
	Flush()
	Errors() <-chan error
}

// InfluxSink writes one point per updated object through the non-blocking
// write API. Asynchronous write errors are logged.
type InfluxSink struct {
	writer  pointWriter
	closeFn func()
	logger  *slog.Logger
}

// NewInfluxSink connects a client to cfg.URL. Connection errors surface
// asynchronously through the logger.
func NewInfluxSink(cfg InfluxConfig, logger *slog.Logger) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return newInfluxSink(client.WriteAPI(cfg.Org, cfg.Bucket), client.Close, logger)
}

func newInfluxSink(w pointWriter, closeFn func(), logger *slog.Logger) *InfluxSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &InfluxSink{
		writer:  w,
		closeFn: closeFn,
		logger:  logger.With(slog.String("sink", "influx")),
	}
	go s.logErrors(w.Errors())
	return s
}

func (s *InfluxSink) logErrors(errs <-chan error) {
	for err := range errs {
		s.logger.Warn("write failed", slog.String("error", err.Error()))
	}
}

// Name implements Sink.
func (s *InfluxSink) Name() string {
	return "influx"
}

// Write implements Sink. Objects that were never set are skipped.
func (s *InfluxSink) Write(_ context.Context, snap types.Snapshot) error {
	for _, obj := range snap.Objects {
		if obj.LastUpdated.IsZero() {
			continue
		}
		f, ok := obj.Data.(types.Fielder)
		if !ok {
			continue
		}

		p := influxdb2.NewPointWithMeasurement(Measurement).
			AddTag("object", obj.Name).
			SetTime(obj.LastUpdated)
		for key, value := range f.Fields() {
			p.AddField(key, value)
		}
		s.writer.WritePoint(p)
	}
	return nil
}

// Close flushes pending points and closes the client.
func (s *InfluxSink) Close() error {
	s.writer.Flush()
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
