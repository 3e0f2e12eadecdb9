package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 20*time.Millisecond, cfg.Sensors.Period)
	assert.Equal(t, "", cfg.Sensors.ProfilePath)
	assert.Equal(t, time.Second, cfg.Sensors.StaleThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Watchdog.Timeout)
	assert.Equal(t, time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, "", cfg.Influx.URL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9000", cfg.UAVTalk.Addr)
	assert.True(t, cfg.MCP.Enabled)
	assert.Equal(t, "", cfg.Recorder.Path)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		check  func(t *testing.T, cfg Config)
	}{
		{
			name:   "SENSORS_PERIOD valid",
			envKey: "SENSORS_PERIOD",
			envVal: "5ms",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 5*time.Millisecond, cfg.Sensors.Period)
			},
		},
		{
			name:   "SENSORS_PERIOD invalid falls back to default",
			envKey: "SENSORS_PERIOD",
			envVal: "fast",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 20*time.Millisecond, cfg.Sensors.Period)
			},
		},
		{
			name:   "SENSORS_PROFILE",
			envKey: "SENSORS_PROFILE",
			envVal: "/etc/simsensors/profile.yaml",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "/etc/simsensors/profile.yaml", cfg.Sensors.ProfilePath)
			},
		},
		{
			name:   "STALE_THRESHOLD valid",
			envKey: "STALE_THRESHOLD",
			envVal: "10s",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 10*time.Second, cfg.Sensors.StaleThreshold)
			},
		},
		{
			name:   "WATCHDOG_TIMEOUT valid",
			envKey: "WATCHDOG_TIMEOUT",
			envVal: "2s",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 2*time.Second, cfg.Watchdog.Timeout)
			},
		},
		{
			name:   "TELEMETRY_INTERVAL valid",
			envKey: "TELEMETRY_INTERVAL",
			envVal: "250ms",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 250*time.Millisecond, cfg.Telemetry.Interval)
			},
		},
		{
			name:   "INFLUX_URL",
			envKey: "INFLUX_URL",
			envVal: "http://influx:8086",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "http://influx:8086", cfg.Influx.URL)
			},
		},
		{
			name:   "HTTP_ADDR dash disables",
			envKey: "HTTP_ADDR",
			envVal: "-",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "", cfg.HTTP.Addr)
			},
		},
		{
			name:   "UAVTALK_ADDR",
			envKey: "UAVTALK_ADDR",
			envVal: "127.0.0.1:9100",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "127.0.0.1:9100", cfg.UAVTalk.Addr)
			},
		},
		{
			name:   "MCP_ENABLED false",
			envKey: "MCP_ENABLED",
			envVal: "false",
			check: func(t *testing.T, cfg Config) {
				assert.False(t, cfg.MCP.Enabled)
			},
		},
		{
			name:   "MCP_ENABLED invalid falls back to default",
			envKey: "MCP_ENABLED",
			envVal: "maybe",
			check: func(t *testing.T, cfg Config) {
				assert.True(t, cfg.MCP.Enabled)
			},
		},
		{
			name:   "RECORDER_PATH",
			envKey: "RECORDER_PATH",
			envVal: "/var/lib/simsensors/samples.sqlite",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "/var/lib/simsensors/samples.sqlite", cfg.Recorder.Path)
			},
		},
		{
			name:   "LOG_LEVEL debug",
			envKey: "LOG_LEVEL",
			envVal: "debug",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
			},
		},
		{
			name:   "LOG_LEVEL invalid falls back to default",
			envKey: "LOG_LEVEL",
			envVal: "chatty",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			cfg := Load()
			tt.check(t, cfg)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("UAVTALK_ADDR=-\nSENSORS_PERIOD=40ms\n"), 0o600))

	t.Chdir(dir)
	t.Cleanup(func() {
		_ = os.Unsetenv("UAVTALK_ADDR")
		_ = os.Unsetenv("SENSORS_PERIOD")
	})

	// Already-set variables win over the file.
	t.Setenv("SENSORS_PERIOD", "10ms")

	cfg := Load()
	assert.Equal(t, "", cfg.UAVTalk.Addr)
	assert.Equal(t, 10*time.Millisecond, cfg.Sensors.Period)
}
