package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/eytandecker/simsensors/internal/alarms"
	"github.com/eytandecker/simsensors/internal/config"
	"github.com/eytandecker/simsensors/internal/httpapi"
	internalmcp "github.com/eytandecker/simsensors/internal/mcp"
	"github.com/eytandecker/simsensors/internal/recorder"
	"github.com/eytandecker/simsensors/internal/sensors"
	"github.com/eytandecker/simsensors/internal/taskmonitor"
	"github.com/eytandecker/simsensors/internal/telemetry"
	"github.com/eytandecker/simsensors/internal/uavobject"
	"github.com/eytandecker/simsensors/internal/uavtalk"
	"github.com/eytandecker/simsensors/internal/watchdog"
	"github.com/eytandecker/simsensors/pkg/types"
)

func main() {
	cfg := config.Load()

	var logLevel slog.LevelVar
	logLevel.Set(cfg.LogLevel)
	// stdout carries the MCP transport.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	if err := run(cfg, logger); err != nil {
		logger.Error("simsensors exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	profile := sensors.DefaultProfile()
	if cfg.Sensors.ProfilePath != "" {
		p, err := sensors.LoadProfile(cfg.Sensors.ProfilePath)
		if err != nil {
			return err
		}
		profile = p
		logger.Info("loaded sensor profile", slog.String("path", cfg.Sensors.ProfilePath))
	}

	bus := uavobject.NewBus(cfg.Sensors.StaleThreshold)
	alarmTable := alarms.NewTable()
	monitor := taskmonitor.New()
	wdg := watchdog.New(cfg.Watchdog.Timeout, alarmTable, watchdog.WithLogger(logger))

	module, err := sensors.NewModule(bus,
		sensors.Config{Period: cfg.Sensors.Period, Profile: profile},
		sensors.WithLogger(logger),
		sensors.WithAlarms(alarmTable),
		sensors.WithWatchdog(wdg),
		sensors.WithTaskMonitor(monitor),
	)
	if err != nil {
		return err
	}

	bias, err := uavobject.Lookup[types.GyrosBias](bus, types.ObjectGyrosBias)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var sinks []telemetry.Sink

	if cfg.HTTP.Addr != "" {
		hub := httpapi.NewHub(logger)
		sinks = append(sinks, hub)
		api := httpapi.NewServer(httpapi.Deps{
			Objects: bus,
			Alarms:  alarmTable,
			Tasks:   monitor,
			Health:  wdg,
			Hub:     hub,
		}, httpapi.WithLogger(logger))
		g.Go(func() error { return ignoreCanceled(api.Run(gctx, cfg.HTTP.Addr)) })
	}

	if cfg.UAVTalk.Addr != "" {
		link, err := uavtalk.Listen(cfg.UAVTalk.Addr, uavtalk.WithLogger(logger))
		if err != nil {
			return err
		}
		sinks = append(sinks, link)
		logger.Info("uavtalk link listening", slog.String("addr", link.Addr().String()))
		g.Go(func() error { return ignoreCanceled(link.Serve(gctx)) })
	}

	if cfg.Influx.URL != "" {
		sinks = append(sinks, telemetry.NewInfluxSink(telemetry.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		}, logger))
	}

	if cfg.Recorder.Path != "" {
		sinks = append(sinks, recorder.New(cfg.Recorder.Path, recorder.WithLogger(logger)))
	}

	forwarder := telemetry.NewForwarder(bus, cfg.Telemetry.Interval, sinks, telemetry.WithLogger(logger))

	g.Go(func() error { return ignoreCanceled(module.Start(gctx)) })
	g.Go(func() error { return ignoreCanceled(wdg.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(forwarder.Run(gctx)) })

	if cfg.MCP.Enabled {
		mcpServer := internalmcp.NewServer(bus, bias)
		g.Go(func() error {
			// The MCP session owns the process lifetime, as with any stdio server.
			defer cancel()
			if err := ignoreCanceled(mcpServer.Run(gctx)); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		})
	}

	logger.Info("simsensors started",
		slog.Duration("period", cfg.Sensors.Period),
		slog.Int("sinks", len(sinks)),
		slog.Bool("mcp", cfg.MCP.Enabled),
	)
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
