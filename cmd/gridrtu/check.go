package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/config"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/database"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/logging"
	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

// check validates the deployment without starting the RTU: it loads the
// configuration and datapoint table, runs the relationship gate over a
// freshly built store, and reports the database migration state.
func check(ctx context.Context, out io.Writer) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fmt.Fprintf(out, "config:      %s OK\n", configPath)

	rows, err := rtu.LoadDatapointFile(cfg.RTU.DatapointFile)
	if err != nil {
		return fmt.Errorf("loading datapoint table: %w", err)
	}

	store := rtu.NewStore(rtu.IntAddress(cfg.RTU.COA), logging.Default())
	if err := store.InsertAll(rows, cfg.RTU.IncludesRelationships); err != nil {
		return fmt.Errorf("datapoint table: %w", err)
	}
	if !store.CheckRelationships() {
		return fmt.Errorf("datapoint table: %w", rtu.ErrInvalidRelationship)
	}
	fmt.Fprintf(out, "datapoints:  %s OK (%d points, %d periodic)\n",
		cfg.RTU.DatapointFile, len(store.Datapoints()), len(store.PeriodicIDs()))

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only check, nothing to flush

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		// A fresh database has no schema_migrations table yet.
		fmt.Fprintf(out, "database:    %s OK (schema not initialised, run will migrate)\n", cfg.Database.Path)
		return nil
	}
	fmt.Fprintf(out, "database:    %s OK (%d migrations applied, %d pending)\n",
		cfg.Database.Path, len(applied), len(pending))

	return nil
}
