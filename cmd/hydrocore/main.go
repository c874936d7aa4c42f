// Hydro Core - Grow Telemetry Connection Core
//
// This is the main entry point for the Hydro Core daemon. It owns the
// broker session for a hydroponic grow installation:
//   - One logical MQTT connection with typed telemetry streams
//   - Optional InfluxDB recording of sensor and device telemetry
//   - Throttled, overlap-guarded connection recovery
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdantio/hydro-core/internal/infrastructure/config"
	"github.com/verdantio/hydro-core/internal/infrastructure/influxdb"
	"github.com/verdantio/hydro-core/internal/infrastructure/logging"
	"github.com/verdantio/hydro-core/internal/infrastructure/mqtt"
	"github.com/verdantio/hydro-core/internal/recorder"
	"github.com/verdantio/hydro-core/internal/recovery"
	"github.com/verdantio/hydro-core/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hydro Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Build the connection session. The transport factory hands the
	// session's event sink straight to the paho-backed transport; the
	// two event interfaces share one shape, so no adapter is needed.
	factory := func(events session.Events) (session.Transport, error) {
		return mqtt.Dial(cfg.MQTT, events)
	}

	sess := session.New(factory, session.Options{
		Namespace:    cfg.Telemetry.Namespace,
		HistorySize:  cfg.Telemetry.HistorySize,
		ReadyTimeout: cfg.GetReadyTimeout(),
		QoS:          byte(cfg.MQTT.QoS),
	}, log)
	defer func() {
		log.Info("disposing session")
		sess.Dispose()
	}()

	// Log connection status changes for the life of the process.
	statusSub := sess.StatusUpdates()
	defer statusSub.Cancel()
	go func() {
		for status := range statusSub.C {
			log.Info("connection status changed", "status", string(status))
		}
	}()

	// The initial connect is best-effort: a broker that is down at boot
	// is recovered by the watchdog once it returns.
	if err := sess.Connect(ctx); err != nil {
		log.Warn("initial broker connect failed, recovery will retry", "error", err)
	} else {
		sess.EnsureInitialized(cfg.GetReadyTimeout())
		log.Info("broker session ready",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"namespace", cfg.Telemetry.Namespace,
		)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Record telemetry into the store (no-op when InfluxDB is disabled).
	var store recorder.Store
	if influxClient != nil {
		store = influxClient
	}
	rec := recorder.New(sess, store, log)
	rec.Start()
	defer rec.Stop()

	// Recovery service for manual and watchdog-triggered reconnects.
	var health recovery.HealthChecker
	if influxClient != nil {
		health = influxClient
	}
	recoverySvc := recovery.New(sess, health, recovery.Options{
		Throttle:    cfg.GetThrottle(),
		SettleDelay: cfg.GetSettleDelay(),
	}, log)

	// Connection watchdog: periodically restore a dropped session. The
	// recovery service's throttle and overlap guards make this safe to
	// run alongside any manual reconnect path.
	if interval := cfg.GetWatchdogInterval(); interval > 0 {
		go watchdog(ctx, sess, recoverySvc, interval, log)
		log.Info("connection watchdog started", "interval", interval)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup runs in reverse order:
	// 1. Recorder
	// 2. InfluxDB (if enabled)
	// 3. Session

	log.Info("Hydro Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HYDROCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HYDROCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// watchdog checks the session on a fixed interval and triggers an
// unforced recovery attempt when the broker connection is down.
func watchdog(ctx context.Context, sess *session.Session, svc *recovery.Service, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sess.IsConnected() || !svc.CanAttemptReconnect() {
				continue
			}

			log.Info("watchdog triggering reconnect")
			res := svc.ManualReconnect(ctx, false)
			if res.ErrorMessage != "" {
				log.Warn("watchdog reconnect incomplete",
					"mqtt_ok", res.MQTTOk,
					"influx_ok", res.InfluxOk,
					"error", res.ErrorMessage,
				)
			}
		}
	}
}
