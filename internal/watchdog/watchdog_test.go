package watchdog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/simsensors/internal/alarms"
)

func TestUpdateUnknownFlag(t *testing.T) {
	w := New(time.Second, nil)
	err := w.UpdateFlag("Sensors")
	assert.ErrorIs(t, err, ErrUnknownFlag)
}

func TestCheckReportsExpiredFlags(t *testing.T) {
	w := New(10*time.Millisecond, nil)
	w.RegisterFlag("b")
	w.RegisterFlag("a")

	assert.Empty(t, w.Check(time.Now()))
	assert.True(t, w.Healthy())

	expired := w.Check(time.Now().Add(time.Second))
	assert.Equal(t, []string{"a", "b"}, expired)
	assert.False(t, w.Healthy())
}

func TestUpdateFlagKeepsFlagAlive(t *testing.T) {
	w := New(20*time.Millisecond, nil)
	w.RegisterFlag("Sensors")

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, w.UpdateFlag("Sensors"))

	assert.Empty(t, w.Check(time.Now()))
}

func TestRunRaisesAndClearsAlarm(t *testing.T) {
	tbl := alarms.NewTable()
	w := New(10*time.Millisecond, tbl)
	w.RegisterFlag("Sensors")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return tbl.Get(alarms.Watchdog) == alarms.SeverityCritical
	}, time.Second, 5*time.Millisecond)

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(2 * time.Millisecond):
				_ = w.UpdateFlag("Sensors")
			}
		}
	}()

	require.Eventually(t, func() bool {
		return tbl.Get(alarms.Watchdog) == alarms.SeverityOK
	}, time.Second, 5*time.Millisecond)
	close(stop)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}

func TestNewFallsBackToDefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		w := New(timeout, nil)
		assert.Equal(t, DefaultTimeout, w.timeout)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NotPanics(t, func() {
			assert.ErrorIs(t, w.Run(ctx), context.Canceled)
		})
	}
}
