package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Sensors   SensorsConfig
	Watchdog  WatchdogConfig
	Telemetry TelemetryConfig
	Influx    InfluxConfig
	HTTP      HTTPConfig
	UAVTalk   UAVTalkConfig
	MCP       MCPConfig
	Recorder  RecorderConfig
	LogLevel  slog.Level
}

// SensorsConfig holds the simulated sensor task settings.
type SensorsConfig struct {
	Period         time.Duration
	ProfilePath    string
	StaleThreshold time.Duration
}

// WatchdogConfig holds watchdog settings.
type WatchdogConfig struct {
	Timeout time.Duration
}

// TelemetryConfig holds snapshot forwarding settings.
type TelemetryConfig struct {
	Interval time.Duration
}

// InfluxConfig holds InfluxDB settings. An empty URL disables the sink.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// HTTPConfig holds HTTP API settings. An empty Addr disables the server.
type HTTPConfig struct {
	Addr string
}

// UAVTalkConfig holds ground-station link settings. An empty Addr disables it.
type UAVTalkConfig struct {
	Addr string
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool
}

// RecorderConfig holds SQLite recorder settings. An empty Path disables it.
type RecorderConfig struct {
	Path string
}

// Load reads configuration from environment variables, falling back to
// defaults. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Sensors: SensorsConfig{
			Period:         getEnvDuration("SENSORS_PERIOD", 20*time.Millisecond),
			ProfilePath:    getEnvString("SENSORS_PROFILE", ""),
			StaleThreshold: getEnvDuration("STALE_THRESHOLD", time.Second),
		},
		Watchdog: WatchdogConfig{
			Timeout: getEnvDuration("WATCHDOG_TIMEOUT", 500*time.Millisecond),
		},
		Telemetry: TelemetryConfig{
			Interval: getEnvDuration("TELEMETRY_INTERVAL", time.Second),
		},
		Influx: InfluxConfig{
			URL:    getEnvString("INFLUX_URL", ""),
			Token:  getEnvString("INFLUX_TOKEN", ""),
			Org:    getEnvString("INFLUX_ORG", ""),
			Bucket: getEnvString("INFLUX_BUCKET", ""),
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		UAVTalk: UAVTalkConfig{
			Addr: getEnvString("UAVTALK_ADDR", ":9000"),
		},
		MCP: MCPConfig{
			Enabled: getEnvBool("MCP_ENABLED", true),
		},
		Recorder: RecorderConfig{
			Path: getEnvString("RECORDER_PATH", ""),
		},
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// getEnvString treats "-" as an explicit empty value, so defaults such as
// HTTP_ADDR can be switched off from a .env file.
func getEnvString(key, defaultVal string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal
	}
	if v == "-" {
		return ""
	}
	return v
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return l
}
