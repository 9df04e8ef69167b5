package mqttbridge

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

// Query operations carried on the wire.
const (
	// OpRead asks the owning peer for the current value of a point.
	OpRead = "read"

	// OpWrite asks the owning peer to replace the value of a point.
	OpWrite = "write"
)

// QueryMessage is published on gridrtu/request/{coa}/{requestID}.
type QueryMessage struct {
	// RequestID uniquely identifies this query for correlation with
	// the response.
	RequestID string `json:"request_id"`

	// Timestamp is when the query was issued (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Origin is the common address of the issuing RTU. Peers publish
	// the response on the origin's response topic.
	Origin rtu.Address `json:"origin"`

	// COA and IOA address the queried point.
	COA rtu.Address `json:"coa"`
	IOA rtu.Address `json:"ioa"`

	// COT is the effective cause of transmission of the exchange.
	COT int `json:"cot"`

	// Operation is "read" or "write".
	Operation string `json:"operation"`

	// Value is the value to write. Absent for reads.
	Value any `json:"value,omitempty"`
}

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ResponseMessage is published on gridrtu/response/{origin}/{requestID}.
type ResponseMessage struct {
	// RequestID is the ID from the original query.
	RequestID string `json:"request_id"`

	// Timestamp is when the response was sent (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Status is "ok" or "error".
	Status string `json:"status"`

	// Value is the read result or write acknowledgment when Status is
	// "ok".
	Value any `json:"value,omitempty"`

	// Error describes the failure when Status is "error".
	Error string `json:"error,omitempty"`
}

// StateMessage is published on gridrtu/state/{coa}/{ioaKey} when a peer
// pushes an unsolicited value.
type StateMessage struct {
	// Timestamp is when the value was observed (UTC).
	Timestamp time.Time `json:"timestamp"`

	// COA and IOA address the pushed point.
	COA rtu.Address `json:"coa"`
	IOA rtu.Address `json:"ioa"`

	// Value is the pushed IO value.
	Value any `json:"value"`
}

// PeriodicityMessage is published retained on
// gridrtu/periodicity/{coa}/{ioaKey} when a point's periodic status
// changes, so peers joining late still see the current setting.
type PeriodicityMessage struct {
	// Timestamp is when the change was commanded (UTC).
	Timestamp time.Time `json:"timestamp"`

	// COA and IOA address the point.
	COA rtu.Address `json:"coa"`
	IOA rtu.Address `json:"ioa"`

	// Periodic is the new periodic status.
	Periodic bool `json:"periodic"`

	// COT is the point's new cause of transmission.
	COT int `json:"cot"`
}

// decodeJSON unmarshals a fabric payload preserving number types:
// integral numbers decode to int, everything else to float64. Plain
// json.Unmarshal would flatten every number to float64 and lose the
// integer identity the core's addressing and values rely on.
func decodeJSON(payload []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	return dec.Decode(dst)
}

// normalizeValue rewrites json.Number leaves back into int or float64.
func normalizeValue(value any) any {
	num, ok := value.(json.Number)
	if !ok {
		return value
	}
	if n, err := num.Int64(); err == nil {
		return int(n)
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}
