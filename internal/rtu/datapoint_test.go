package rtu

import "testing"

func TestDatapointFromRow(t *testing.T) {
	tests := []struct {
		name         string
		row          Row
		includesRel  bool
		want         Primitive
		wantExtraLen int
		wantErr      bool
	}{
		{
			name:        "with relationship",
			row:         Row{1, 10, 30, 20, 11},
			includesRel: true,
			want: Primitive{
				COA: IntAddress(1), IOA: IntAddress(10),
				TypeID: 30, COT: 20, RelatedIOA: IntAddress(11),
			},
		},
		{
			name:        "empty relationship string",
			row:         Row{1, 11, 30, 20, ""},
			includesRel: true,
			want: Primitive{
				COA: IntAddress(1), IOA: IntAddress(11),
				TypeID: 30, COT: 20,
			},
		},
		{
			name:        "without relationship inserts empty",
			row:         Row{1, 12, 45, 6},
			includesRel: false,
			want: Primitive{
				COA: IntAddress(1), IOA: IntAddress(12),
				TypeID: 45, COT: 6,
			},
		},
		{
			name:        "text addresses",
			row:         Row{"station-a", "pump-1", 45, 6, nil},
			includesRel: true,
			want: Primitive{
				COA: TextAddress("station-a"), IOA: TextAddress("pump-1"),
				TypeID: 45, COT: 6,
			},
		},
		{
			name:         "extra fields carried after relationship",
			row:          Row{1, 13, 30, 20, "", "meta", 42},
			includesRel:  true,
			want:         Primitive{COA: IntAddress(1), IOA: IntAddress(13), TypeID: 30, COT: 20},
			wantExtraLen: 2,
		},
		{
			name:         "extra fields without relationship",
			row:          Row{1, 14, 30, 20, map[string]any{"scale": 0.1}},
			includesRel:  false,
			want:         Primitive{COA: IntAddress(1), IOA: IntAddress(14), TypeID: 30, COT: 20},
			wantExtraLen: 1,
		},
		{name: "too short", row: Row{1, 10, 30}, wantErr: true},
		{name: "too short with relationship", row: Row{1, 10, 30, 20}, includesRel: true, wantErr: true},
		{name: "bad type id", row: Row{1, 10, "not-a-number", 20}, wantErr: true},
		{name: "bad cot", row: Row{1, 10, 30, []int{1}}, wantErr: true},
		{name: "empty coa", row: Row{nil, 10, 30, 20}, wantErr: true},
		{name: "empty ioa", row: Row{1, "", 30, 20}, wantErr: true},
		{name: "bool coa", row: Row{true, 10, 30, 20}, wantErr: true},
		{name: "slash in text coa", row: Row{"plant/a", 10, 30, 20}, wantErr: true},
		{name: "wildcard in text ioa", row: Row{1, "pump+", 30, 20}, wantErr: true},
		{name: "hash in relationship", row: Row{1, 10, 30, 20, "feed#1"}, includesRel: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, err := DatapointFromRow(tt.row, tt.includesRel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DatapointFromRow(%v) should fail", tt.row)
				}
				return
			}
			if err != nil {
				t.Fatalf("DatapointFromRow(%v): %v", tt.row, err)
			}
			if dp.Primitive != tt.want {
				t.Errorf("primitive = %v, want %v", dp.Primitive, tt.want)
			}
			if len(dp.Extra) != tt.wantExtraLen {
				t.Errorf("extra len = %d, want %d", len(dp.Extra), tt.wantExtraLen)
			}
		})
	}
}

func TestDatapointFromRowDoesNotAliasExtra(t *testing.T) {
	row := Row{1, 10, 30, 20, "", "payload"}
	dp, err := DatapointFromRow(row, true)
	if err != nil {
		t.Fatal(err)
	}
	row[5] = "mutated"
	if dp.Extra[0] != "payload" {
		t.Error("extra fields must be copied, not aliased")
	}
}

func TestPrimitiveIsPeriodic(t *testing.T) {
	periodic := Primitive{COT: COTPeriodic}
	if !periodic.IsPeriodic() {
		t.Error("cot 1 should be periodic")
	}
	if (Primitive{COT: 20}).IsPeriodic() {
		t.Error("cot 20 should not be periodic")
	}
}
