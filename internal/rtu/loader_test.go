package rtu

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDatapointFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datapoints.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadDatapointFile(t *testing.T) {
	path := writeDatapointFile(t, `
datapoints:
  - [1, 10, 30, 20, 11]
  - [1, 11, 30, 20, ""]
  - [1, "pump", 45, 6, "", "label"]
`)

	rows, err := LoadDatapointFile(path)
	if err != nil {
		t.Fatalf("LoadDatapointFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	// YAML scalar typing survives into the rows: integers stay integers,
	// quoted strings stay strings.
	dp, err := DatapointFromRow(rows[0], true)
	if err != nil {
		t.Fatalf("converting row 0: %v", err)
	}
	if dp.IOA != IntAddress(10) || dp.RelatedIOA != IntAddress(11) {
		t.Errorf("row 0 = %v, want integer addresses 10 and 11", dp.Primitive)
	}

	dp, err = DatapointFromRow(rows[2], true)
	if err != nil {
		t.Fatalf("converting row 2: %v", err)
	}
	if dp.IOA != TextAddress("pump") {
		t.Errorf("row 2 ioa = %s, want text pump", dp.IOA)
	}
	if len(dp.Extra) != 1 || dp.Extra[0] != "label" {
		t.Errorf("row 2 extra = %v, want [label]", dp.Extra)
	}
}

func TestLoadDatapointFileEmpty(t *testing.T) {
	path := writeDatapointFile(t, "datapoints: []\n")
	if _, err := LoadDatapointFile(path); err == nil {
		t.Error("empty datapoint table must be rejected")
	}
}

func TestLoadDatapointFileMissing(t *testing.T) {
	if _, err := LoadDatapointFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file must surface an error")
	}
}

func TestLoadDatapointFileMalformed(t *testing.T) {
	path := writeDatapointFile(t, "datapoints: {not: a, list: here}\n")
	if _, err := LoadDatapointFile(path); err == nil {
		t.Error("malformed file must surface an error")
	}
}
