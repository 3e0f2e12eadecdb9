package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/simsensors/pkg/types"
)

// fakeWriter captures points instead of sending them to InfluxDB.
type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushed bool
	errs    chan error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{errs: make(chan error, 1)}
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushed = true
}

func (w *fakeWriter) Errors() <-chan error { return w.errs }

func TestInfluxSinkWritesOnePointPerUpdatedObject(t *testing.T) {
	w := newFakeWriter()
	s := newInfluxSink(w, func() { close(w.errs) }, nil)

	updated := time.Now()
	snap := types.Snapshot{
		Timestamp: updated,
		Objects: []types.ObjectState{
			{Name: types.ObjectMagnetometer, Data: types.Magnetometer{X: 400, Z: 800}, LastUpdated: updated},
			{Name: types.ObjectGyrosBias, Data: types.GyrosBias{}},
		},
	}
	require.NoError(t, s.Write(context.Background(), snap))

	require.Len(t, w.points, 1)
	p := w.points[0]
	assert.Equal(t, Measurement, p.Name())
	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "object", p.TagList()[0].Key)
	assert.Equal(t, types.ObjectMagnetometer, p.TagList()[0].Value)
	assert.Len(t, p.FieldList(), 3)
	assert.True(t, p.Time().Equal(updated))
}

func TestInfluxSinkCloseFlushes(t *testing.T) {
	w := newFakeWriter()
	closed := false
	s := newInfluxSink(w, func() {
		closed = true
		close(w.errs)
	}, nil)

	w.errs <- errors.New("unreachable")

	require.NoError(t, s.Close())
	assert.True(t, w.flushed)
	assert.True(t, closed)
	assert.Equal(t, "influx", s.Name())
}
