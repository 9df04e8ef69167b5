package rtu

import "testing"

func TestIsCommandType(t *testing.T) {
	tests := []struct {
		typeID int
		want   bool
	}{
		{44, false},
		{45, true},
		{50, true},
		{69, true},
		{70, false},
		{0, false},
		{30, false},
	}
	for _, tt := range tests {
		if got := IsCommandType(tt.typeID); got != tt.want {
			t.Errorf("IsCommandType(%d) = %v, want %v", tt.typeID, got, tt.want)
		}
	}
}

func TestValidCOT(t *testing.T) {
	tests := []struct {
		cot  int
		want bool
	}{
		{0, true}, // sentinel: use default
		{1, true},
		{47, true},
		{48, false},
		{-1, false},
		{99, false},
	}
	for _, tt := range tests {
		if got := ValidCOT(tt.cot); got != tt.want {
			t.Errorf("ValidCOT(%d) = %v, want %v", tt.cot, got, tt.want)
		}
	}
}

func TestIOPermitted(t *testing.T) {
	tests := []struct {
		name      string
		typeID    int
		value     any
		wantOK    bool
		wantKnown bool
	}{
		{name: "single point valid", typeID: 45, value: 1, wantOK: true, wantKnown: true},
		{name: "single point invalid", typeID: 45, value: 2, wantOK: false, wantKnown: true},
		{name: "double point valid", typeID: 46, value: 3, wantOK: true, wantKnown: true},
		{name: "double point invalid", typeID: 46, value: 4, wantOK: false, wantKnown: true},
		{name: "scaled in range", typeID: 49, value: -32768, wantOK: true, wantKnown: true},
		{name: "scaled out of range", typeID: 49, value: 40000, wantOK: false, wantKnown: true},
		{name: "unknown type id", typeID: 99, value: 1, wantKnown: false},
		{name: "sentinel type id unknown", typeID: 0, value: 1, wantKnown: false},
		{name: "non numeric value", typeID: 45, value: "on", wantOK: false, wantKnown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, known := ioPermitted(tt.typeID, tt.value)
			if known != tt.wantKnown {
				t.Fatalf("known = %v, want %v", known, tt.wantKnown)
			}
			if known && ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestTypeIDCheckString(t *testing.T) {
	tests := []struct {
		check TypeIDCheck
		want  string
	}{
		{TypeIDUnattached, "unattached"},
		{TypeIDNotApplicable, "not_applicable"},
		{TypeIDMatch, "match"},
		{TypeIDMismatch, "mismatch"},
	}
	for _, tt := range tests {
		if got := tt.check.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.check, got, tt.want)
		}
	}
}
