package mqttbridge

import "errors"

// Domain errors for the mqttbridge package.
var (
	// ErrResponseTimeout is returned by SendQuery when no fabric peer
	// answers within the configured request timeout.
	ErrResponseTimeout = errors.New("mqttbridge: response timed out")

	// ErrQueryRejected is returned by SendQuery when a peer answers
	// with an error status.
	ErrQueryRejected = errors.New("mqttbridge: query rejected by peer")
)
