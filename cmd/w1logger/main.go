// w1logger samples 1-Wire temperature sensors and writes them to InfluxDB.
//
// Usage:
//
//	w1logger [flags] <sensors>
//
// <sensors> is a text file with one "<bus_id> <name>" pair per line. Every
// -sleep seconds each sensor is read once; every -batchsize ticks the
// collected records are written to InfluxDB in a single request.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nerrad567/w1logger/internal/api"
	"github.com/nerrad567/w1logger/internal/infrastructure/config"
	"github.com/nerrad567/w1logger/internal/infrastructure/influxdb"
	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/infrastructure/mqtt"
	"github.com/nerrad567/w1logger/internal/infrastructure/tsdb"
	"github.com/nerrad567/w1logger/internal/poller"
	"github.com/nerrad567/w1logger/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// startupCheckTimeout bounds the initial database probe.
const startupCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Destination for -version output
//
// Returns:
//   - error: nil on clean shutdown, or error describing the startup failure
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "w1logger %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	// Variables already in the environment take precedence over the file.
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	cfg, err := config.Load(opts.configPath, opts.overrides...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting w1logger",
		"version", version,
		"commit", commit,
		"build_date", date,
	)
	if opts.envFile != "" {
		log.Info("environment file loaded", "path", opts.envFile)
	}

	sensors, err := sensor.LoadList(cfg.Sensors.List)
	if err != nil {
		return fmt.Errorf("loading sensor list: %w", err)
	}
	if len(sensors) == 0 {
		log.Warn("sensor list is empty, records will carry no fields", "path", cfg.Sensors.List)
	}
	log.Info("sensor list loaded", "path", cfg.Sensors.List, "sensors", len(sensors))

	registry := api.NewRegistry()
	metrics := poller.NewMetrics(registry)
	checks := make(map[string]api.HealthChecker)

	sink, closeSink, err := openSink(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeSink()

	var publisher *poller.RecordPublisher
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		checks["mqtt"] = mqttClient

		topic := mqtt.Topics{}.Record(cfg.InfluxDB.Measurement)
		publisher = poller.NewRecordPublisher(mqttClient, topic, cfg.InfluxDB.Measurement,
			byte(cfg.MQTT.QoS), log.With("component", "mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topic", topic,
		)
	}

	collector := poller.NewCollector(
		sensor.NewReader(os.DirFS(cfg.Sensors.Root)),
		log.With("component", "collector"),
		metrics,
	)
	writer := poller.NewWriter(sink, poller.WriterOptions{
		Measurement:     cfg.InfluxDB.Measurement,
		RetainOnFailure: cfg.Poller.RetainFailed,
		MaxRetained:     cfg.Poller.MaxRetained,
	}, log.With("component", "writer"), metrics)

	scheduler, err := poller.NewScheduler(poller.Options{
		Sensors:   sensors,
		BatchSize: cfg.Poller.BatchSize,
		Interval:  cfg.GetInterval(),
	}, poller.Deps{
		Collector: collector,
		Writer:    writer,
		Publisher: publisher,
		Logger:    log.With("component", "poller"),
		Metrics:   metrics,
	})
	if err != nil {
		return fmt.Errorf("creating poller: %w", err)
	}

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.With("component", "api"),
			Status:   scheduler,
			Gatherer: registry,
			Checks:   checks,
			Version:  version,
		})
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
	}

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	log.Info("w1logger stopped")
	return nil
}

// openSink connects the configured write backend and registers its health
// check. The returned func closes the client.
func openSink(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (poller.Sink, func(), error) {
	sinkLog := log.With("component", "sink", "backend", cfg.InfluxDB.Backend)

	var (
		sink      poller.Sink
		checker   api.HealthChecker
		closer    func() error
		serverURL string
	)

	switch cfg.InfluxDB.Backend {
	case config.BackendLine:
		client, err := tsdb.Connect(cfg.InfluxDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		sink, checker, closer = poller.NewLineSink(client, sinkLog), client, client.Close
		serverURL = client.ServerURL()
	default:
		client, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		sink, checker, closer = poller.NewInfluxSink(client, sinkLog), client, client.Close
		serverURL = client.ServerURL()
	}
	checks["influxdb"] = checker

	org, bucket := influxdb.Target(cfg.InfluxDB)
	sinkLog.Info("InfluxDB configured",
		"url", serverURL,
		"org", org,
		"bucket", bucket,
		"measurement", cfg.InfluxDB.Measurement,
	)

	// The server may come up after us; writes are best-effort either way.
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	if err := checker.HealthCheck(checkCtx); err != nil {
		sinkLog.Warn("InfluxDB not reachable at startup", "error", err)
	}

	return sink, func() {
		log.Info("closing InfluxDB connection")
		if err := closer(); err != nil {
			log.Error("error closing InfluxDB", "error", err)
		}
	}, nil
}
