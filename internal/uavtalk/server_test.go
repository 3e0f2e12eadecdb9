package uavtalk

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytandecker/simsensors/pkg/types"
)

func sampleSnapshot() types.Snapshot {
	now := time.Now()
	return types.Snapshot{
		Timestamp: now,
		Objects: []types.ObjectState{
			{Name: types.ObjectAccels, Data: types.Accels{Y: -1, Z: -8}, LastUpdated: now},
			{Name: types.ObjectGyrosBias, Data: types.GyrosBias{}},
			{Name: types.ObjectMagnetometer, Data: types.Magnetometer{X: 400, Z: 800}, LastUpdated: now},
		},
	}
}

func TestWriteStreamsSetObjectsToClient(t *testing.T) {
	s := NewServer(nil)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	s.AddConn(serverConn)

	frames := make(chan Frame, 2)
	go func() {
		for i := 0; i < 2; i++ {
			f, err := ReadFrame(clientConn)
			if err != nil {
				return
			}
			frames <- f
		}
	}()

	require.NoError(t, s.Write(context.Background(), sampleSnapshot()))

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case f := <-frames:
			name, _, err := DecodeObject(f)
			require.NoError(t, err)
			got = append(got, name)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for frame %d", i)
		}
	}
	assert.Equal(t, []string{types.ObjectAccels, types.ObjectMagnetometer}, got)
	require.NoError(t, s.Close())
}

func TestClientDroppedOnDisconnect(t *testing.T) {
	s := NewServer(nil)
	serverConn, clientConn := net.Pipe()
	s.AddConn(serverConn)
	assert.Equal(t, 1, s.Clients())

	clientConn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Write(context.Background(), sampleSnapshot()))
}

func TestWriteDropsStalledClient(t *testing.T) {
	s := NewServer(nil, WithWriteTimeout(20*time.Millisecond))
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	s.AddConn(serverConn)

	// Nobody reads clientConn, so the write times out.
	require.NoError(t, s.Write(context.Background(), sampleSnapshot()))
	assert.Equal(t, 0, s.Clients())
}

func TestServeAcceptsTCPClients(t *testing.T) {
	s, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Write(context.Background(), sampleSnapshot()))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, IDAccels, f.ObjectID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not exit after context cancellation")
	}
	assert.NoError(t, s.Close())
}
