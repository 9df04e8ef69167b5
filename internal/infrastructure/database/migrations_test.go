package database

import (
	"context"
	"embed"
	"testing"
	"time"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the testdata fixture schema
// (a single command_log revision) for the duration of the test.
func useTestMigrations(t *testing.T) {
	t.Helper()

	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "command_log") {
		t.Fatal("command_log table not created")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 0 {
		t.Errorf("status = %d applied, %d pending, want 1 and 0", len(applied), len(pending))
	}

	// A second run finds nothing pending.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "command_log") {
		t.Error("command_log table should have been dropped")
	}

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("ledger has %d entries after rollback, want 0", len(applied))
	}
}

func TestMigrateWithoutEmbeddedFiles(t *testing.T) {
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS = embed.FS{}
	MigrationsDir = "."

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no embedded migrations error = %v", err)
	}
}

func TestGetMigrationStatusBeforeMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %d, want 0", len(applied))
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			filename:    "20260815_120000_init.up.sql",
			wantVersion: "20260815_120000",
			wantName:    "init",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			filename:    "20260801_090000_create_command_log.down.sql",
			wantVersion: "20260801_090000",
			wantName:    "create_command_log",
			wantIsUp:    false,
			wantOk:      true,
		},
		{filename: "notes.txt", wantOk: false},
		{filename: "20260815_120000_init.sql", wantOk: false},
		{filename: "init.up.sql", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if isUp != tt.wantIsUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
			}
		})
	}
}
