package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/nerrad567/grid-rtu-core/internal/backends/sim"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/config"
	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/database"
	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

// history prints recent io_history journal entries for one datapoint of
// the simulator process image, newest first.
func history(ctx context.Context, out io.Writer, coaArg, ioaArg string, limit int) error {
	coa, err := parseAddressArg(coaArg)
	if err != nil {
		return fmt.Errorf("coa: %w", err)
	}
	ioa, err := parseAddressArg(ioaArg)
	if err != nil {
		return fmt.Errorf("ioa: %w", err)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Inspection only, nothing to flush

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	entries, err := sim.NewRepository(db).History(ctx, coa.Key(), ioa.Key(), limit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "no journal entries for (%s, %s)\n", coa, ioa)
		return nil
	}

	for _, entry := range entries {
		fmt.Fprintf(out, "%s  %-11s cot=%-3d type=%-3d value=%v\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Operation, entry.COT, entry.TypeID, entry.Value)
	}
	return nil
}

// parseAddressArg interprets a command-line address the same way a
// datapoint row would: integer-looking arguments become integer
// addresses, anything else a text address.
func parseAddressArg(arg string) (rtu.Address, error) {
	if arg == "" {
		return rtu.Address{}, fmt.Errorf("address is required")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return rtu.IntAddress(n), nil
	}
	return rtu.TextAddress(arg), nil
}
