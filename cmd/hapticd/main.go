// Gray Logic Haptics - trackpad haptic feedback daemon
//
// hapticd owns the haptic actuator of a Force Touch trackpad and exposes it
// to the rest of a Gray Logic installation:
//   - REST API for local clients (status, actuate, history)
//   - MQTT command bridge for Core automations and scenes
//   - Actuation history in SQLite and optional metrics in InfluxDB
//
// The actuator is opened lazily on the first actuation and is always closed
// on shutdown. A failure to close it is unrecoverable and makes the daemon
// exit non-zero.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-haptics/internal/api"
	"github.com/nerrad567/gray-logic-haptics/internal/bridges/trackpad"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-haptics/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, starts every component and blocks until ctx is
// cancelled.
//
// Returns:
//   - error: nil on clean shutdown; startup failures and a failed actuator
//     close are returned
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Haptics",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	a, err := start(ctx, cfg, log)
	if err != nil {
		return errors.Join(err, a.close())
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := a.close(); err != nil {
		return err
	}
	log.Info("Gray Logic Haptics stopped")
	return nil
}

// app holds the running components. Components are closed in reverse start
// order by close.
type app struct {
	log        *logging.Logger
	db         *database.DB
	influx     *influxdb.Client
	backend    *haptic.Backend
	controller *haptic.Controller
	mqtt       *mqtt.Client
	bridge     *trackpad.Bridge
	server     *api.Server
}

// start brings up every enabled component. On error the returned app holds
// whatever was started and must still be closed.
func start(ctx context.Context, cfg *config.Config, log *logging.Logger) (*app, error) {
	a := &app{log: log}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return a, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	log.Info("database connected", "path", db.Path())

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return a, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")
	repo := history.NewSQLiteRepository(db.DB)

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return a, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		a.influx = client
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	backend, err := haptic.OpenBackend(cfg.Haptics)
	if err != nil {
		return a, fmt.Errorf("opening haptics backend: %w", err)
	}
	a.backend = backend
	log.Info("haptics backend ready",
		"backend", backend.Name,
		"device_class", cfg.Haptics.DeviceClass,
		"max_retries", cfg.Haptics.MaxRetries,
	)

	opts := haptic.Options{History: repo, Logger: log}
	if a.influx != nil {
		opts.Metrics = a.influx
	}
	a.controller = haptic.NewController(backend.NewSession(cfg.Haptics, log.With("component", "actuator")), opts)

	if cfg.MQTT.Enabled {
		if err := a.startMQTT(ctx, cfg); err != nil {
			return a, err
		}
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.API.Enabled {
		if err := a.startAPI(ctx, cfg, repo); err != nil {
			return a, err
		}
	} else {
		log.Info("API disabled")
	}

	return a, nil
}

func (a *app) startMQTT(ctx context.Context, cfg *config.Config) error {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	a.mqtt = client
	client.SetLogger(a.log)
	client.SetOnConnect(func() {
		a.log.Info("MQTT connected")
	})
	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	if !cfg.Haptics.Bridge.Enabled {
		a.log.Info("haptic bridge disabled")
		return nil
	}

	bridge, err := trackpad.NewBridge(trackpad.BridgeOptions{
		DeviceID:       cfg.Haptics.Bridge.DeviceID,
		Version:        version,
		HealthInterval: cfg.GetHealthInterval(),
		MQTTClient:     client,
		Actuator:       a.controller,
		Logger:         a.log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating haptic bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting haptic bridge: %w", err)
	}
	a.bridge = bridge
	return nil
}

func (a *app) startAPI(ctx context.Context, cfg *config.Config, repo history.Repository) error {
	checks := []api.HealthCheck{{Name: "database", Check: a.db.HealthCheck}}
	if a.mqtt != nil {
		checks = append(checks, api.HealthCheck{Name: "mqtt", Check: a.mqtt.HealthCheck})
	}
	if a.influx != nil {
		checks = append(checks, api.HealthCheck{Name: "influxdb", Check: a.influx.HealthCheck})
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     a.log,
		Controller: a.controller,
		History:    repo,
		Checks:     checks,
		DB:         a.db,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	a.server = server
	return nil
}

// close stops components in reverse start order. Only a failed actuator
// close is returned; other shutdown errors are logged.
func (a *app) close() error {
	if a == nil {
		return nil
	}

	if a.server != nil {
		if err := a.server.Close(); err != nil {
			a.log.Error("error closing API server", "error", err)
		}
	}
	if a.bridge != nil {
		a.log.Info("stopping haptic bridge")
		a.bridge.Stop()
	}
	if a.mqtt != nil {
		a.log.Info("disconnecting from MQTT")
		if err := a.mqtt.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}

	var closeErr error
	if a.controller != nil {
		a.log.Info("closing actuator")
		if err := a.controller.Close(); err != nil {
			closeErr = fmt.Errorf("closing actuator: %w", err)
		}
	}

	if a.influx != nil {
		a.log.Info("closing InfluxDB connection")
		if err := a.influx.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
	if a.db != nil {
		a.log.Info("closing database")
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
	return closeErr
}

// getConfigPath returns GRAYLOGIC_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
