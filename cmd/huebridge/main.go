// huebridge answers Hue bridge discovery and light API requests on the local
// network and turns light commands into MQTT publishes.
//
// Devices are declared in a YAML file which is reloaded when it changes.
// Bridge liveness is published retained to {name}/connected:
// "0" offline, "1" connected to the broker, "2" a controller has been seen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/huebridge/internal/api"
	"github.com/nerrad567/huebridge/internal/device"
	"github.com/nerrad567/huebridge/internal/infrastructure/config"
	"github.com/nerrad567/huebridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/huebridge/internal/infrastructure/logging"
	"github.com/nerrad567/huebridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/huebridge/internal/metrics"
	"github.com/nerrad567/huebridge/internal/ssdp"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// dotEnvPath is read before flags and environment are evaluated.
const dotEnvPath = ".env"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
//
// Returns flag.ErrHelp after printing usage when help was requested.
// Only an unusable configuration or a failure to bind the HTTP or discovery
// listener is fatal; the broker and the device list may come and go.
func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer) error {
	cfg, err := config.FromArgs(args, getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(stdout)
		}
		return err
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting huebridge",
		"version", version,
		"commit", commit,
		"build_date", date,
		"name", cfg.Bridge.Name,
	)
	if cfg.SettingsPath != "" {
		log.Info("settings loaded", "path", cfg.SettingsPath)
	}

	m := metrics.New(version)

	// Device registry
	registry := device.NewRegistry()
	registry.SetLogger(log.Component("devices"))
	registry.SetMaxFileSize(cfg.Devices.MaxFileSize)

	snap, err := registry.Reload(cfg.Devices.Path)
	m.ObserveReload(registry.Len(), err)
	if err != nil {
		log.Error("loading devices failed, starting with none", "path", cfg.Devices.Path, "error", err)
	} else {
		log.Info("devices loaded", "path", cfg.Devices.Path, "devices", len(snap.Descriptors))
	}

	watcher := device.NewWatcher(registry, cfg.Devices.Path, cfg.GetReloadDelay())
	watcher.SetLogger(log.Component("watcher"))
	watcher.SetOnReload(func(s *device.Snapshot, err error) {
		m.ObserveReload(registry.Len(), err)
		if err == nil {
			log.Info("devices reloaded", "devices", len(s.Descriptors), "generation", s.Generation)
		}
	})
	if err := watcher.Start(ctx); err != nil {
		log.Warn("device list watch disabled", "path", cfg.Devices.Path, "error", err)
	}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
		influxClient = nil
	case err != nil:
		log.Error("InfluxDB unavailable, command telemetry disabled", "url", cfg.InfluxDB.URL, "error", err)
		influxClient = nil
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// MQTT
	bus, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.Name, log.Component("mqtt"))
	if err != nil {
		return fmt.Errorf("configuring MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := bus.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	bus.SetOnConnect(func() {
		m.SetBusConnected(true)
		if influxClient != nil {
			influxClient.WriteConnectivity(cfg.Bridge.Name, string(mqtt.ConnectivityConnected))
		}
	})
	bus.SetOnDisconnect(func(error) {
		m.SetBusConnected(false)
		if influxClient != nil {
			influxClient.WriteConnectivity(cfg.Bridge.Name, string(mqtt.ConnectivityDisconnected))
		}
	})

	// Metrics listener (optional)
	if cfg.Metrics.Listen != "" {
		metricsSrv := m.NewServer(cfg.Metrics.Listen)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener failed", "address", cfg.Metrics.Listen, "error", err)
			}
		}()
		defer metricsSrv.Close()
		log.Info("metrics listening", "address", cfg.Metrics.Listen)
	}

	// Hue control plane
	publishHost := api.ResolvePublishHost(cfg.API.Publish)
	tpl, err := api.LoadSetup(cfg.API.SetupTemplate)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Config:    cfg.API,
		Logger:    log,
		Registry:  registry,
		Bus:       bus,
		Setup:     api.RenderSetup(tpl, publishHost, cfg.API.Port),
		SetupPath: cfg.SSDP.SetupPath,
		Metrics:   m,
	}
	if influxClient != nil {
		deps.Recorder = influxClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Discovery
	if cfg.SSDP.Enabled {
		responder := ssdp.New(cfg.SSDP, cfg.API.Port, publishHost)
		responder.SetLogger(log.Component("ssdp"))
		responder.SetObserver(m)
		if err := responder.Start(ctx); err != nil {
			return fmt.Errorf("starting discovery: %w", err)
		}
		defer func() {
			log.Info("CLOSING.")
			if closeErr := responder.Close(); closeErr != nil {
				log.Error("error closing discovery", "error", closeErr)
			}
		}()
	} else {
		log.Info("discovery disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal", "publish_host", publishHost)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: discovery, HTTP, MQTT
	// (publishes "0"), metrics, InfluxDB.
	return nil
}
