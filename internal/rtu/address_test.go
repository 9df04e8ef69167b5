package rtu

import (
	"encoding/json"
	"testing"
)

func TestAddressKindSensitivity(t *testing.T) {
	intAddr := IntAddress(5)
	textAddr := TextAddress("5")

	if intAddr == textAddr {
		t.Fatal("integer 5 and text \"5\" must not be equal")
	}

	m := map[Address]string{
		intAddr:  "int",
		textAddr: "text",
	}
	if m[IntAddress(5)] != "int" {
		t.Error("integer key lookup failed")
	}
	if m[TextAddress("5")] != "text" {
		t.Error("text key lookup failed")
	}
}

func TestTextAddressEmptyIsZero(t *testing.T) {
	if !TextAddress("").IsZero() {
		t.Error("TextAddress(\"\") should be the zero Address")
	}
}

func TestAddressOf(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    Address
		wantErr bool
	}{
		{name: "int", input: 5, want: IntAddress(5)},
		{name: "int64", input: int64(7), want: IntAddress(7)},
		{name: "string", input: "station-a", want: TextAddress("station-a")},
		{name: "numeric string stays text", input: "5", want: TextAddress("5")},
		{name: "nil", input: nil, want: Address{}},
		{name: "empty string", input: "", want: Address{}},
		{name: "address passthrough", input: IntAddress(3), want: IntAddress(3)},
		{name: "bool rejected", input: true, wantErr: true},
		{name: "slice rejected", input: []int{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddressOf(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AddressOf(%v) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddressOf(%v): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("AddressOf(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	if got := IntAddress(5).String(); got != "5" {
		t.Errorf("IntAddress(5).String() = %q", got)
	}
	if got := TextAddress("5").String(); got != `"5"` {
		t.Errorf("TextAddress(5).String() = %q", got)
	}
	if got := (Address{}).String(); got != "<none>" {
		t.Errorf("zero Address String() = %q", got)
	}
}

func TestAddressKeyCollisionFree(t *testing.T) {
	if IntAddress(5).Key() == TextAddress("5").Key() {
		t.Error("integer and text keys must not collide")
	}
	if got := (Address{}).Key(); got != "" {
		t.Errorf("zero Address Key() = %q, want empty", got)
	}
}

func TestAddressJSONRoundTrip(t *testing.T) {
	tests := []Address{
		IntAddress(5),
		IntAddress(0),
		TextAddress("5"),
		TextAddress("bus-14"),
		{},
	}

	for _, addr := range tests {
		data, err := json.Marshal(addr)
		if err != nil {
			t.Fatalf("marshal %v: %v", addr, err)
		}
		var got Address
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != addr {
			t.Errorf("round trip %v -> %s -> %v", addr, data, got)
		}
	}
}

func TestAddressJSONKindPreserved(t *testing.T) {
	// The wire form must keep integer 5 and text "5" apart.
	intData, _ := json.Marshal(IntAddress(5))
	textData, _ := json.Marshal(TextAddress("5"))
	if string(intData) == string(textData) {
		t.Errorf("wire forms collide: %s", intData)
	}
}
