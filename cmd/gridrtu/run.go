package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/nerrad567/grid-rtu-core/internal/backends/mqttbridge"
	"github.com/nerrad567/grid-rtu-core/internal/backends/sim"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/config"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/database"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/logging"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

// shutdownTimeout bounds the backend teardown after the serve context
// is cancelled.
const shutdownTimeout = 10 * time.Second

// run is the actual application logic, separated from the cobra wiring
// for testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting grid-rtu-core",
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the datapoint table
	rows, err := rtu.LoadDatapointFile(cfg.RTU.DatapointFile)
	if err != nil {
		return fmt.Errorf("loading datapoint table: %w", err)
	}
	log.Info("datapoint table loaded",
		"path", cfg.RTU.DatapointFile,
		"rows", len(rows),
	)

	ownCOA := rtu.IntAddress(cfg.RTU.COA)

	// Select the backend
	var backend rtu.Backend
	var simBackend *sim.Backend
	var bridge *mqttbridge.Backend
	var mqttClient *mqtt.Client

	switch cfg.Backend.Type {
	case "sim":
		simBackend, err = sim.New(sim.Options{
			DB:               db,
			PushInterval:     cfg.GetPushInterval(),
			HistoryRetention: cfg.GetHistoryRetention(),
			Logger:           log,
		})
		if err != nil {
			return fmt.Errorf("creating simulator backend: %w", err)
		}
		backend = simBackend
		log.Info("simulator backend selected", "push_interval", cfg.GetPushInterval().String())

	case "mqtt":
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		qos := byte(cfg.MQTT.QoS)
		bridge, err = mqttbridge.New(mqttbridge.Options{
			Client:         mqttClient,
			COA:            ownCOA,
			RequestTimeout: cfg.GetRequestTimeout(),
			QoS:            &qos,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("creating fabric bridge backend: %w", err)
		}
		backend = bridge
		log.Info("fabric bridge backend selected")

	default:
		return fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}

	// Connect to InfluxDB (optional) and wire the IO recorder
	var recorder rtu.Recorder
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder = &ioRecorder{influx: influxClient, log: log}
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Construct the RTU core
	core, err := rtu.New(ctx, rtu.Options{
		COA:                   ownCOA,
		Datapoints:            rows,
		IncludesRelationships: cfg.RTU.IncludesRelationships,
		Backend:               backend,
		AutoStart:             cfg.RTU.AutoStart,
		Logger:                log,
		Recorder:              recorder,
	})
	if err != nil {
		return fmt.Errorf("initialising RTU: %w", err)
	}
	log.Info("RTU initialised",
		"coa", core.COA().String(),
		"datapoints", len(core.GetDatapoints()),
		"periodic", len(core.GetPeriodicIDs()),
	)

	// Attach the core to the backend's push path and seed the simulator
	if simBackend != nil {
		simBackend.AttachFabric(core)
		if seedErr := simBackend.SeedDefaults(ctx, core.GetDatapoints()); seedErr != nil {
			return fmt.Errorf("seeding simulator process image: %w", seedErr)
		}
	}
	if bridge != nil {
		bridge.AttachNotifier(core)
	}

	// Start the backend (unless autostart already did) and wait for
	// readiness
	if !cfg.RTU.AutoStart {
		if err := core.Start(ctx); err != nil {
			return fmt.Errorf("starting RTU: %w", err)
		}
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		log.Info("stopping RTU")
		if stopErr := core.Stop(stopCtx); stopErr != nil {
			log.Error("error stopping RTU", "error", stopErr)
		}
	}()

	if err := core.WaitUntilReady(ctx, cfg.GetReadyTimeout()); err != nil {
		return fmt.Errorf("waiting for readiness: %w", err)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. RTU stop (backend teardown)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if the fabric backend is selected)
	// 4. Database

	log.Info("grid-rtu-core stopped")
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when the corresponding
// subsystem is not in use.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// ioRecorder adapts the InfluxDB client to the core's recorder
// capability. Values that cannot be rendered as a float (free text IO)
// are skipped; telemetry is numeric.
type ioRecorder struct {
	influx *influxdb.Client
	log    *logging.Logger
}

func (r *ioRecorder) RecordIO(coa, ioa rtu.Address, cot, typeID int, value any) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		r.log.Debug("skipping non-numeric IO value in telemetry",
			"coa", coa.String(), "ioa", ioa.String(), "value", value)
		return
	}
	if cot == 1 {
		r.influx.WritePeriodicPush(coa.Key(), ioa.Key(), f)
		return
	}
	r.influx.WriteIOValue(coa.Key(), ioa.Key(), cot, typeID, f)
}
