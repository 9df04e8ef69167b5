package rtu

import "errors"

// Domain errors for the rtu package.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, rtu.ErrInvalidRelationship) {
//	    // fatal configuration problem
//	}
var (
	// ErrInvalidRelationship is returned by New when a stored datapoint
	// relationship does not resolve to an attached datapoint. This is a
	// fatal configuration error; the RTU must not be used afterwards.
	ErrInvalidRelationship = errors.New("rtu: datapoint relationship does not resolve")

	// ErrInvalidRow is returned when an externally supplied datapoint
	// row cannot be converted to the canonical datapoint shape.
	ErrInvalidRow = errors.New("rtu: datapoint row not convertible")

	// ErrNoBackend is returned by New when no backend capability is
	// supplied.
	ErrNoBackend = errors.New("rtu: backend is required")

	// ErrReadyTimeout is returned by WaitUntilReady when the readiness
	// signal does not fire within the caller's bound.
	ErrReadyTimeout = errors.New("rtu: readiness wait timed out")
)
