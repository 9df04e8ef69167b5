package rtu

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Options configures a new RTU.
type Options struct {
	// COA is the RTU's own common address. Required.
	COA Address

	// Datapoints is the finite collection of datapoint rows attached to
	// the RTU. Each row must be castable to the canonical shape
	// [coa, ioa, type_id, cot, related_ioa?, extra...].
	Datapoints []Row

	// IncludesRelationships indicates whether the rows already carry the
	// relationship field. If false, an empty relationship is inserted at
	// the canonical position.
	IncludesRelationships bool

	// Backend constructs and transmits model-specific queries. Required.
	Backend Backend

	// AutoStart triggers backend startup and the readiness signal at the
	// end of construction.
	AutoStart bool

	// Logger is the optional logging capability. A no-op sink is
	// installed when absent.
	Logger Logger

	// OnValue is called whenever a backend pushes an unsolicited value
	// toward the RTU. Optional.
	OnValue func(coa, ioa Address, value any)

	// Recorder receives successfully exchanged IO values. Optional.
	Recorder Recorder
}

// RTU is the supervisory endpoint: the public get/set surface over a
// datapoint store, delegating query construction and transmission to a
// pluggable backend capability.
//
// All methods are safe for concurrent use. Soft operational failures
// (unattached addresses, missing relationships, invalid command
// type-IDs, transmission failures) return nil plus a warning log line
// carrying enough context to disambiguate; call sites never need error
// handling for these.
type RTU struct {
	coa      Address
	store    *Store
	backend  Backend
	logger   Logger
	onValue  func(coa, ioa Address, value any)
	recorder Recorder

	// One-shot readiness signal. ready is closed exactly once when the
	// backend-specific startup completes; Stop swaps in a fresh open
	// channel.
	readyMu sync.Mutex
	ready   chan struct{}
	isReady bool
}

// New constructs an RTU, populates its datapoint store and runs the
// relationship consistency gate.
//
// A dangling relationship is a fatal configuration error: New fails with
// ErrInvalidRelationship and the RTU must not be used. With AutoStart
// set, the backend is started and the readiness signal fired before New
// returns.
func New(ctx context.Context, opts Options) (*RTU, error) {
	if opts.Backend == nil {
		return nil, ErrNoBackend
	}
	if opts.COA.IsZero() {
		return nil, fmt.Errorf("rtu: own coa is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	if !opts.IncludesRelationships {
		logger.Info("init data does not provide relationships, inserting empty datapoint relationships")
	}

	r := &RTU{
		coa:      opts.COA,
		store:    NewStore(opts.COA, logger),
		backend:  opts.Backend,
		logger:   logger,
		onValue:  opts.OnValue,
		recorder: opts.Recorder,
		ready:    make(chan struct{}),
	}

	if err := r.store.InsertAll(opts.Datapoints, opts.IncludesRelationships); err != nil {
		return nil, err
	}

	if !r.store.CheckRelationships() {
		logger.Critical("stopping: some datapoint has an invalid relationship", "coa", r.coa)
		return nil, fmt.Errorf("rtu: cannot initialise RTU with coa %s: %w", r.coa, ErrInvalidRelationship)
	}

	if opts.AutoStart {
		if err := r.Start(ctx); err != nil {
			return nil, fmt.Errorf("rtu: autostart: %w", err)
		}
	}

	return r, nil
}

// COA returns the RTU's own common address.
func (r *RTU) COA() Address { return r.coa }

// Store exposes the underlying datapoint store.
func (r *RTU) Store() *Store { return r.store }

// Start runs the backend's model-specific startup (if it has any) and
// fires the readiness signal.
func (r *RTU) Start(ctx context.Context) error {
	if starter, ok := r.backend.(Starter); ok {
		if err := starter.Start(ctx); err != nil {
			return fmt.Errorf("rtu: starting backend: %w", err)
		}
	}
	r.MarkReady()
	r.logger.Info("rtu ready", "coa", r.coa)
	return nil
}

// MarkReady fires the one-shot readiness signal. Subsequent calls are
// no-ops until Stop clears the signal.
func (r *RTU) MarkReady() {
	r.readyMu.Lock()
	defer r.readyMu.Unlock()
	if !r.isReady {
		r.isReady = true
		close(r.ready)
	}
}

// clearReady resets the readiness signal to "not ready".
func (r *RTU) clearReady() {
	r.readyMu.Lock()
	defer r.readyMu.Unlock()
	if r.isReady {
		r.isReady = false
		r.ready = make(chan struct{})
	}
}

// readyChan returns the channel closed by the next MarkReady.
func (r *RTU) readyChan() <-chan struct{} {
	r.readyMu.Lock()
	defer r.readyMu.Unlock()
	return r.ready
}

// WaitUntilReady blocks the caller until the readiness signal fires.
//
// A timeout of 0 (or negative) waits forever. When the bound elapses the
// wait fails with ErrReadyTimeout; context cancellation surfaces as the
// context's error. Both are recoverable: the caller may retry or abort.
func (r *RTU) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	ch := r.readyChan()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-ch:
		return nil
	case <-timer:
		return fmt.Errorf("%w: after %v", ErrReadyTimeout, timeout)
	case <-ctx.Done():
		return fmt.Errorf("rtu: readiness wait cancelled: %w", ctx.Err())
	}
}

// Stop releases backend-specific resources and clears the readiness
// signal. Safe to call more than once.
func (r *RTU) Stop(ctx context.Context) error {
	var err error
	if stopper, ok := r.backend.(Stopper); ok {
		err = stopper.Stop(ctx)
	}
	r.clearReady()
	if err != nil {
		return fmt.Errorf("rtu: stopping backend: %w", err)
	}
	return nil
}

// Get retrieves the IO value of an attached datapoint.
//
// cot 0 selects the datapoint's stored default cause-of-transmission.
// A non-zero type_id restricts command queries to the exact type the
// datapoint was declared for. The result is nil if the datapoint is
// unattached, the type-ID check fails, or the transmission fails; these
// outcomes are not distinguishable from the return value alone, only
// from the warning logs.
func (r *RTU) Get(ctx context.Context, coa, ioa Address, cot, typeID int) any {
	if !r.store.Has(coa, ioa) {
		r.logger.Warn("tried to get io for unattached datapoint", "coa", coa, "ioa", ioa)
		return nil
	}
	if typeID != 0 {
		if check := r.store.ValidateTypeID(coa, ioa, typeID); check == TypeIDMismatch || check == TypeIDUnattached {
			dp, _ := r.store.Lookup(coa, ioa)
			r.logger.Warn("not sending get query with invalid command type-id",
				"coa", coa, "ioa", ioa, "type_id", typeID,
				"expected_type_id", dp.TypeID, "check", check)
			return nil
		}
	}

	effCOT := r.effectiveCOT(coa, ioa, cot)
	query, err := r.backend.BuildQuery(coa, ioa, effCOT, nil)
	if err != nil {
		r.logger.Warn("building get query failed",
			"coa", coa, "ioa", ioa, "cot", effCOT, "error", err)
		return nil
	}

	res, err := r.backend.SendQuery(ctx, query)
	if err != nil || res == nil {
		r.logger.Warn("retrieving io for attached datapoint failed",
			"coa", coa, "ioa", ioa, "cot", effCOT, "error", err)
		return nil
	}

	if ok, known := ioPermitted(typeID, res); known && !ok {
		r.logger.Warn("retrieved io with value not permitted for type-id",
			"coa", coa, "ioa", ioa, "type_id", typeID, "value", res)
	} else {
		r.logger.Debug("sent get query", "coa", coa, "ioa", ioa, "cot", effCOT, "result", res)
	}
	r.record(coa, ioa, effCOT, typeID, res)
	return res
}

// Set overwrites the IO value of an attached datapoint and returns the
// backend's transmission result (typically a write acknowledgment), or
// nil on any soft failure.
//
// A nil value is passed through to the backend, whose contract defines
// it as "build a read query"; Set therefore cannot represent an
// intentional absent value. This is a documented limitation of the
// capability contract, not special-cased here.
func (r *RTU) Set(ctx context.Context, coa, ioa Address, value any, cot, typeID int) any {
	if !r.store.Has(coa, ioa) {
		r.logger.Warn("tried to set io for unattached datapoint", "coa", coa, "ioa", ioa)
		return nil
	}
	if typeID != 0 {
		if check := r.store.ValidateTypeID(coa, ioa, typeID); check == TypeIDMismatch || check == TypeIDUnattached {
			dp, _ := r.store.Lookup(coa, ioa)
			r.logger.Warn("not sending set query with invalid command type-id",
				"coa", coa, "ioa", ioa, "type_id", typeID,
				"expected_type_id", dp.TypeID, "check", check)
			return nil
		}
	}

	if ok, known := ioPermitted(typeID, value); known && !ok {
		// Warn-only: the query is still sent.
		r.logger.Warn("sending set query with value not permitted for type-id",
			"coa", coa, "ioa", ioa, "type_id", typeID, "value", value)
	}

	effCOT := r.effectiveCOT(coa, ioa, cot)
	query, err := r.backend.BuildQuery(coa, ioa, effCOT, value)
	if err != nil {
		r.logger.Warn("building set query failed",
			"coa", coa, "ioa", ioa, "cot", effCOT, "error", err)
		return nil
	}

	res, err := r.backend.SendQuery(ctx, query)
	if err != nil || res == nil {
		r.logger.Warn("setting io for attached datapoint failed",
			"coa", coa, "ioa", ioa, "cot", effCOT, "error", err)
		return nil
	}

	r.logger.Debug("sent set query", "coa", coa, "ioa", ioa, "cot", effCOT, "result", res)
	r.record(coa, ioa, effCOT, typeID, value)
	return res
}

// GetRelated retrieves the IO value of the datapoint related to
// (coa, ioa). Absent if no relationship is stored or the target is
// unattached.
func (r *RTU) GetRelated(ctx context.Context, coa, ioa Address, cot, typeID int) any {
	rel, ok := r.store.LookupRelated(coa, ioa)
	if !ok {
		r.logger.Warn("cannot get related io: no resolvable relationship", "coa", coa, "ioa", ioa)
		return nil
	}
	return r.Get(ctx, rel.COA, rel.IOA, cot, typeID)
}

// SetRelated overwrites the IO value of the datapoint related to
// (coa, ioa). Absent if no relationship is stored or the target is
// unattached.
func (r *RTU) SetRelated(ctx context.Context, coa, ioa Address, value any, cot, typeID int) any {
	rel, ok := r.store.LookupRelated(coa, ioa)
	if !ok {
		r.logger.Warn("cannot set related io: no resolvable relationship", "coa", coa, "ioa", ioa)
		return nil
	}
	return r.Set(ctx, rel.COA, rel.IOA, value, cot, typeID)
}

// HasIO reports whether a datapoint is attached at (coa, ioa).
func (r *RTU) HasIO(coa, ioa Address) bool {
	return r.store.Has(coa, ioa)
}

// GetDatapoint returns the primitive datapoint at (coa, ioa).
func (r *RTU) GetDatapoint(coa, ioa Address) (Primitive, bool) {
	dp, ok := r.store.Lookup(coa, ioa)
	return dp.Primitive, ok
}

// GetDatapointWithValue returns the primitive datapoint at (coa, ioa)
// together with its current IO value, retrieved with the datapoint's
// stored default cause-of-transmission.
func (r *RTU) GetDatapointWithValue(ctx context.Context, coa, ioa Address) (Primitive, any, bool) {
	dp, ok := r.store.Lookup(coa, ioa)
	if !ok {
		return Primitive{}, nil, false
	}
	value := r.Get(ctx, coa, ioa, dp.COT, 0)
	return dp.Primitive, value, true
}

// GetComplexDatapoint returns the complete datapoint at (coa, ioa)
// including backend-specific extra fields.
func (r *RTU) GetComplexDatapoint(coa, ioa Address) (Datapoint, bool) {
	return r.store.Lookup(coa, ioa)
}

// GetRelatedDatapoint returns the primitive datapoint related to
// (coa, ioa).
func (r *RTU) GetRelatedDatapoint(coa, ioa Address) (Primitive, bool) {
	rel, ok := r.store.LookupRelated(coa, ioa)
	return rel.Primitive, ok
}

// GetRelatedDatapointWithValue returns the primitive datapoint related
// to (coa, ioa) together with its current IO value, retrieved with the
// related datapoint's stored default cause-of-transmission.
func (r *RTU) GetRelatedDatapointWithValue(ctx context.Context, coa, ioa Address) (Primitive, any, bool) {
	rel, ok := r.store.LookupRelated(coa, ioa)
	if !ok {
		return Primitive{}, nil, false
	}
	value := r.Get(ctx, rel.COA, rel.IOA, rel.COT, 0)
	return rel.Primitive, value, true
}

// GetIOAs returns all IOAs stored under a COA. The zero Address selects
// the RTU's own COA.
func (r *RTU) GetIOAs(coa Address) map[Address]struct{} {
	return r.store.IOAs(coa)
}

// GetDatapoints returns all attached primitive datapoints.
func (r *RTU) GetDatapoints() map[Primitive]struct{} {
	return r.store.Datapoints()
}

// GetPeriodicIDs returns the (COA, IOA) keys of all datapoints the RTU
// expects periodic updates from.
func (r *RTU) GetPeriodicIDs() map[ID]struct{} {
	return r.store.PeriodicIDs()
}

// GetPeriodicDatapoints returns the primitive datapoints the RTU expects
// periodic updates from.
func (r *RTU) GetPeriodicDatapoints() map[Primitive]struct{} {
	return r.store.PeriodicDatapoints()
}

// GetPeriodicIOAs returns the IOAs of periodic datapoints under a COA.
// The zero Address selects the RTU's own COA.
func (r *RTU) GetPeriodicIOAs(coa Address) map[Address]struct{} {
	return r.store.PeriodicIOAs(coa)
}

// ChangeCauseOfTransmission changes the default cause-of-transmission
// expected for communication with a datapoint.
//
// Invalid requests (unattached address, new COT outside [1,47]) are
// rejected with a warning, never an error. Whenever the change toggles
// periodic status (previous or new COT equals 1) the backend is
// signalled to issue the model-specific command reflecting the new
// periodicity.
func (r *RTU) ChangeCauseOfTransmission(ctx context.Context, coa, ioa Address, newCOT int) {
	prevCOT, ok := r.store.UpdateCOT(coa, ioa, newCOT)
	if !ok {
		return
	}

	if prevCOT != COTPeriodic && newCOT != COTPeriodic {
		return
	}
	commander, ok := r.backend.(PeriodicityCommander)
	if !ok {
		r.logger.Warn("periodic status changed but backend cannot issue periodicity commands",
			"coa", coa, "ioa", ioa, "new_cot", newCOT)
		return
	}
	if err := commander.CommandPeriodicity(ctx, coa, ioa, newCOT == COTPeriodic, newCOT); err != nil {
		r.logger.Warn("backend periodicity command failed",
			"coa", coa, "ioa", ioa, "new_cot", newCOT, "error", err)
	}
}

// NotifyValue delivers a value pushed from the backend toward the RTU.
// Backends call this for unsolicited (periodic/spontaneous) updates.
func (r *RTU) NotifyValue(coa, ioa Address, value any) {
	r.logger.Debug("value pushed from backend", "coa", coa, "ioa", ioa, "value", value)
	if dp, ok := r.store.Lookup(coa, ioa); ok {
		r.record(coa, ioa, dp.COT, dp.TypeID, value)
	}
	if r.onValue != nil {
		r.onValue(coa, ioa, value)
	}
}

// effectiveCOT substitutes the stored default for the 0 sentinel.
func (r *RTU) effectiveCOT(coa, ioa Address, cot int) int {
	if cot != 0 {
		return cot
	}
	dp, ok := r.store.Lookup(coa, ioa)
	if !ok {
		return 0
	}
	return dp.COT
}

// record hands a successfully exchanged value to the recorder, if any.
func (r *RTU) record(coa, ioa Address, cot, typeID int, value any) {
	if r.recorder != nil {
		r.recorder.RecordIO(coa, ioa, cot, typeID, value)
	}
}
