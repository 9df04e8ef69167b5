package rtu

import "github.com/spf13/cast"

// TypeIDCheck is the outcome of validating a supplied ASDU type-ID
// against a stored datapoint.
type TypeIDCheck int

const (
	// TypeIDUnattached: no datapoint exists at the given (COA, IOA).
	TypeIDUnattached TypeIDCheck = iota

	// TypeIDNotApplicable: neither the supplied type-ID nor the stored
	// default is a command type; this layer does not constrain
	// non-command type-IDs.
	TypeIDNotApplicable

	// TypeIDMatch: both are command types and they are equal.
	TypeIDMatch

	// TypeIDMismatch: both are command types and they differ.
	TypeIDMismatch
)

// String implements fmt.Stringer for log output.
func (c TypeIDCheck) String() string {
	switch c {
	case TypeIDUnattached:
		return "unattached"
	case TypeIDNotApplicable:
		return "not_applicable"
	case TypeIDMatch:
		return "match"
	case TypeIDMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// IsCommandType reports whether the type-ID lies in the sub-range
// reserved for command queries.
func IsCommandType(typeID int) bool {
	return typeID >= MinCommandTypeID && typeID <= MaxCommandTypeID
}

// ValidCOT reports whether a cause-of-transmission value is legal in a
// query: any value in [1,47], or the 0 sentinel meaning "use the
// datapoint's stored default".
func ValidCOT(cot int) bool {
	return cot == 0 || (cot >= MinCOT && cot <= MaxCOT)
}

// storableCOT reports whether a value may be stored as a datapoint's
// default cause-of-transmission. Unlike ValidCOT the 0 sentinel is not
// storable.
func storableCOT(cot int) bool {
	return cot >= MinCOT && cot <= MaxCOT
}

// permittedIOSet holds the IO values a type-ID permits. Either a small
// discrete set or an inclusive integer range.
type permittedIOSet struct {
	values []int
	min    int
	max    int
	ranged bool
}

func (s permittedIOSet) contains(n int) bool {
	if s.ranged {
		return n >= s.min && n <= s.max
	}
	for _, v := range s.values {
		if v == n {
			return true
		}
	}
	return false
}

// permittedIOs maps ASDU type-IDs to the IO values permitted for them.
// Single-point types carry {0,1}, double-point types {0..3}, scaled
// measurement and setpoint types the int16 range. Type-IDs absent here
// are unconstrained. The 0 default is never a valid ASDU type-ID and is
// deliberately absent.
var permittedIOs = map[int]permittedIOSet{
	1:  {values: []int{0, 1}},
	2:  {values: []int{0, 1}},
	30: {values: []int{0, 1}},
	45: {values: []int{0, 1}},
	58: {values: []int{0, 1}},
	3:  {values: []int{0, 1, 2, 3}},
	4:  {values: []int{0, 1, 2, 3}},
	31: {values: []int{0, 1, 2, 3}},
	46: {values: []int{0, 1, 2, 3}},
	59: {values: []int{0, 1, 2, 3}},
	11: {ranged: true, min: -32768, max: 32767},
	12: {ranged: true, min: -32768, max: 32767},
	49: {ranged: true, min: -32768, max: 32767},
	62: {ranged: true, min: -32768, max: 32767},
}

// ioPermitted checks an IO value against the permitted set for a
// type-ID. known is false when the type-ID carries no constraint; ok is
// meaningful only when known is true. The check is advisory: callers log
// a warning on violation but still send the query.
func ioPermitted(typeID int, value any) (ok, known bool) {
	set, known := permittedIOs[typeID]
	if !known {
		return false, false
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return false, true
	}
	return set.contains(n), true
}
