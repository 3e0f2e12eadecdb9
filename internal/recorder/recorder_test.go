package recorder

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/simsensors/pkg/types"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := New(filepath.Join(t.TempDir(), "samples.sqlite"))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func snapshotAt(at time.Time, updates uint64) types.Snapshot {
	return types.Snapshot{
		Timestamp: at,
		Objects: []types.ObjectState{
			{Name: types.ObjectAccels, Data: types.Accels{Y: -1, Z: -8}, LastUpdated: at, Updates: updates},
			{Name: types.ObjectMagnetometer, Data: types.Magnetometer{X: 400, Z: 800}, LastUpdated: at, Updates: updates},
			{Name: types.ObjectGyrosBias, Data: types.GyrosBias{}},
		},
	}
}

func TestWriteSkipsNeverSetObjects(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Write(ctx, snapshotAt(time.Now(), 1)))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = r.Latest(ctx, types.ObjectGyrosBias)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestLatestReturnsMostRecentSample(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	second := first.Add(time.Second)
	require.NoError(t, r.Write(ctx, snapshotAt(first, 10)))
	require.NoError(t, r.Write(ctx, snapshotAt(second, 60)))

	s, err := r.Latest(ctx, types.ObjectAccels)
	require.NoError(t, err)
	assert.Equal(t, types.ObjectAccels, s.Object)
	assert.Equal(t, uint64(60), s.Updates)
	assert.True(t, s.RecordedAt.Equal(second))

	var got types.Accels
	require.NoError(t, json.Unmarshal(s.Data, &got))
	assert.Equal(t, types.Accels{Y: -1, Z: -8}, got)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestOpenFailsForMissingDirectory(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing", "samples.sqlite"))
	err := r.Write(context.Background(), snapshotAt(time.Now(), 1))
	assert.Error(t, err)
	assert.NoError(t, r.Close())
	assert.Equal(t, "recorder", r.Name())
}
