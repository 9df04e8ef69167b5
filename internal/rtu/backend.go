package rtu

import "context"

// Backend is the capability interface every concrete backend implements.
//
// The core never constructs or transmits queries itself; it resolves and
// validates addresses, then delegates here. Backends are composed into
// the RTU at construction time, never subclassed.
type Backend interface {
	// BuildQuery constructs a model-specific query for the datapoint
	// identified by (coa, ioa). The gateway substitutes the effective
	// cause-of-transmission before calling, so cot is never the 0
	// sentinel here. A nil value means "build a read query"; any other
	// value means "build a write query". Behaviour for addresses not
	// attached to the RTU is undefined.
	BuildQuery(coa, ioa Address, cot int, value any) (any, error)

	// SendQuery transmits a query produced by BuildQuery. The returned
	// value is a read's IO value or a write acknowledgment; an error
	// signals transmission failure. Once SendQuery is entered the call
	// runs to completion or failure; the context bounds only the
	// backend's own transport.
	SendQuery(ctx context.Context, query any) (any, error)
}

// Starter is an optional backend capability: backends with
// model-specific startup (servers, bus connections, simulations)
// implement it. RTU.Start invokes it before firing the readiness signal.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is an optional backend capability releasing backend-specific
// resources. RTU.Stop invokes it and then clears the readiness signal.
type Stopper interface {
	Stop(ctx context.Context) error
}

// PeriodicityCommander is an optional backend capability. When a
// datapoint's cause-of-transmission change toggles its periodic status,
// the gateway signals the backend through this interface so it can issue
// the model-specific command reflecting the new periodicity.
type PeriodicityCommander interface {
	CommandPeriodicity(ctx context.Context, coa, ioa Address, periodic bool, cot int) error
}

// Recorder receives successfully exchanged IO values for telemetry.
// It is optional; a nil recorder disables recording.
type Recorder interface {
	RecordIO(coa, ioa Address, cot, typeID int, value any)
}
