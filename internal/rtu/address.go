package rtu

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// AddressKind discriminates the two address encodings used for COAs and IOAs.
//
// IEC 60870-5-104 addresses are integers on the wire, but simulation
// fabrics frequently use symbolic (text) identifiers instead. The two
// kinds never alias: the integer address 5 and the text address "5" are
// distinct keys everywhere in the store.
type AddressKind uint8

const (
	// KindNone is the zero kind. A zero Address means "no address" and is
	// used both as the empty-relationship marker and as the "own COA"
	// sentinel in query operations.
	KindNone AddressKind = iota

	// KindInt is an integer address.
	KindInt

	// KindText is a symbolic text address.
	KindText
)

// Address is a Common Address (COA) or Information Object Address (IOA).
//
// Addresses are immutable value types and are comparable, so they can be
// used directly as map keys. Kind is part of identity: two addresses are
// equal only if both kind and value match.
type Address struct {
	kind AddressKind
	num  int
	text string
}

// IntAddress returns an integer-kind address.
func IntAddress(v int) Address {
	return Address{kind: KindInt, num: v}
}

// TextAddress returns a text-kind address.
// The empty string maps to the zero Address (no address), matching the
// empty-relationship convention of datapoint rows.
func TextAddress(v string) Address {
	if v == "" {
		return Address{}
	}
	return Address{kind: KindText, text: v}
}

// AddressOf converts a loosely typed value into an Address.
//
// Strings become text addresses, integer-like values become integer
// addresses, nil becomes the zero Address. Anything else is a shape
// mismatch and fails fast rather than being coerced.
func AddressOf(v any) (Address, error) {
	switch t := v.(type) {
	case nil:
		return Address{}, nil
	case Address:
		return t, nil
	case string:
		return TextAddress(t), nil
	case bool:
		return Address{}, fmt.Errorf("rtu: address cannot be a boolean (%v)", t)
	default:
		n, err := cast.ToIntE(v)
		if err != nil {
			return Address{}, fmt.Errorf("rtu: address must be an integer or text, got %T", v)
		}
		return IntAddress(n), nil
	}
}

// checkKeySafe rejects text addresses that cannot be embedded in a
// topic segment or database key. Key() interpolates the text verbatim,
// so MQTT topic delimiters and wildcards are forbidden.
func (a Address) checkKeySafe() error {
	if a.kind == KindText && strings.ContainsAny(a.text, "/+#") {
		return fmt.Errorf("rtu: text address %q contains a topic delimiter or wildcard", a.text)
	}
	return nil
}

// Kind returns the address kind.
func (a Address) Kind() AddressKind { return a.kind }

// IsZero reports whether this is the zero Address (no address).
func (a Address) IsZero() bool { return a.kind == KindNone }

// Int returns the integer value. Valid only for KindInt addresses.
func (a Address) Int() int { return a.num }

// Text returns the text value. Valid only for KindText addresses.
func (a Address) Text() string { return a.text }

// String renders the address for logs. Text addresses are quoted so that
// integer 5 and text "5" remain distinguishable in output.
func (a Address) String() string {
	switch a.kind {
	case KindInt:
		return strconv.Itoa(a.num)
	case KindText:
		return strconv.Quote(a.text)
	default:
		return "<none>"
	}
}

// Key returns a canonical, collision-free string form of the address.
// Backends use it for database keys and topic segments.
func (a Address) Key() string {
	switch a.kind {
	case KindInt:
		return "i" + strconv.Itoa(a.num)
	case KindText:
		return "t" + a.text
	default:
		return ""
	}
}

// addressJSON is the wire representation of an Address.
type addressJSON struct {
	Kind string `json:"kind"`
	Int  int    `json:"int,omitempty"`
	Text string `json:"text,omitempty"`
}

// MarshalJSON encodes the address with an explicit kind tag so that the
// integer/text distinction survives transport.
func (a Address) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case KindInt:
		return json.Marshal(addressJSON{Kind: "int", Int: a.num})
	case KindText:
		return json.Marshal(addressJSON{Kind: "text", Text: a.text})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the tagged wire representation.
func (a *Address) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Address{}
		return nil
	}
	var w addressJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("rtu: decoding address: %w", err)
	}
	switch w.Kind {
	case "int":
		*a = IntAddress(w.Int)
	case "text":
		*a = TextAddress(w.Text)
	case "":
		*a = Address{}
	default:
		return fmt.Errorf("rtu: unknown address kind %q", w.Kind)
	}
	return nil
}
