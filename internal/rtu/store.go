package rtu

import (
	"fmt"
	"sync"
)

// Store is the authoritative mapping from (COA, IOA) to datapoint
// definition.
//
// It is populated exactly once during construction and read-dominant
// afterwards; UpdateCOT is the sole post-construction writer. A single
// RWMutex guards both the nested address map and the derived primitive
// set, and UpdateCOT replaces the whole entry under the write lock so
// concurrent readers never observe a torn tuple.
type Store struct {
	own    Address
	logger Logger

	mu    sync.RWMutex
	byCOA map[Address]map[Address]Datapoint
	prims map[Primitive]struct{}
}

// NewStore creates an empty store scoped to the RTU's own COA.
func NewStore(own Address, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{
		own:    own,
		logger: logger,
		byCOA:  make(map[Address]map[Address]Datapoint),
		prims:  make(map[Primitive]struct{}),
	}
}

// OwnCOA returns the COA the store is scoped to.
func (s *Store) OwnCOA() Address { return s.own }

// InsertAll converts and inserts a finite collection of datapoint rows.
//
// Conversion happens before any insertion: if any row fails the
// conversion contract the whole operation fails and the store is left
// unchanged. Duplicate (COA, IOA) keys overwrite, matching the
// expectation that keys are unique in well-formed input.
func (s *Store) InsertAll(rows []Row, includesRelationships bool) error {
	points := make([]Datapoint, 0, len(rows))
	for i, row := range rows {
		dp, err := DatapointFromRow(row, includesRelationships)
		if err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrInvalidRow, i, err)
		}
		points = append(points, dp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dp := range points {
		ioas, ok := s.byCOA[dp.COA]
		if !ok {
			ioas = make(map[Address]Datapoint)
			s.byCOA[dp.COA] = ioas
		}
		if prev, dup := ioas[dp.IOA]; dup {
			delete(s.prims, prev.Primitive)
			s.logger.Warn("duplicate datapoint key overwritten",
				"coa", dp.COA, "ioa", dp.IOA)
		}
		ioas[dp.IOA] = dp
		s.prims[dp.Primitive] = struct{}{}
	}
	return nil
}

// Has reports whether a datapoint is attached at (coa, ioa).
// The lookup is address-kind-sensitive.
func (s *Store) Has(coa, ioa Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCOA[coa][ioa]
	return ok
}

// Lookup returns the complete datapoint at (coa, ioa).
func (s *Store) Lookup(coa, ioa Address) (Datapoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dp, ok := s.byCOA[coa][ioa]
	return dp, ok
}

// LookupRelated resolves the relationship stored on (coa, ioa) and
// returns the related datapoint. Absent if (coa, ioa) is unattached, if
// it stores no relationship, or if the relationship target is missing.
func (s *Store) LookupRelated(coa, ioa Address) (Datapoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dp, ok := s.byCOA[coa][ioa]
	if !ok || dp.RelatedIOA.IsZero() {
		return Datapoint{}, false
	}
	rel, ok := s.byCOA[coa][dp.RelatedIOA]
	return rel, ok
}

// resolveCOA maps the zero-Address sentinel to the store's own COA.
func (s *Store) resolveCOA(coa Address) Address {
	if coa.IsZero() {
		return s.own
	}
	return coa
}

// IOAs returns the set of IOAs stored under a COA. The zero Address
// selects the store's own COA.
func (s *Store) IOAs(coa Address) map[Address]struct{} {
	coa = s.resolveCOA(coa)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[Address]struct{}, len(s.byCOA[coa]))
	for ioa := range s.byCOA[coa] {
		res[ioa] = struct{}{}
	}
	return res
}

// Datapoints returns the set of all attached primitive datapoints.
func (s *Store) Datapoints() map[Primitive]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[Primitive]struct{}, len(s.prims))
	for p := range s.prims {
		res[p] = struct{}{}
	}
	return res
}

// PeriodicIDs returns the (COA, IOA) keys of all datapoints the RTU
// expects unsolicited periodic updates from.
func (s *Store) PeriodicIDs() map[ID]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[ID]struct{})
	for p := range s.prims {
		if p.IsPeriodic() {
			res[p.ID()] = struct{}{}
		}
	}
	return res
}

// PeriodicDatapoints returns the primitive datapoints the RTU expects
// periodic updates from.
func (s *Store) PeriodicDatapoints() map[Primitive]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[Primitive]struct{})
	for p := range s.prims {
		if p.IsPeriodic() {
			res[p] = struct{}{}
		}
	}
	return res
}

// PeriodicIOAs returns the IOAs of periodic datapoints under a COA.
// The zero Address selects the store's own COA.
func (s *Store) PeriodicIOAs(coa Address) map[Address]struct{} {
	coa = s.resolveCOA(coa)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[Address]struct{})
	for ioa, dp := range s.byCOA[coa] {
		if dp.IsPeriodic() {
			res[ioa] = struct{}{}
		}
	}
	return res
}

// UpdateCOT replaces the cause-of-transmission of the addressed
// datapoint and returns the previous value.
//
// The update is a whole-entry replacement under the write lock. An
// unattached address or a new COT outside [1,47] leaves the store
// unchanged: a warning is logged and ok is false.
func (s *Store) UpdateCOT(coa, ioa Address, newCOT int) (prevCOT int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dp, attached := s.byCOA[coa][ioa]
	if !attached {
		s.logger.Warn("cannot change cot for unattached datapoint",
			"coa", coa, "ioa", ioa)
		return 0, false
	}
	if !storableCOT(newCOT) {
		s.logger.Warn("tried to change cot to invalid value",
			"coa", coa, "ioa", ioa, "new_cot", newCOT)
		return 0, false
	}

	prev := dp.Primitive
	updated := dp
	updated.COT = newCOT
	s.byCOA[coa][ioa] = updated
	delete(s.prims, prev)
	s.prims[updated.Primitive] = struct{}{}
	return prev.COT, true
}

// CheckRelationships verifies that every stored relationship resolves to
// an attached datapoint under the same COA. It is the single consistency
// gate for the whole store, run once at construction; a false result is
// treated as a fatal configuration error by the caller.
func (s *Store) CheckRelationships() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	valid := true
	for p := range s.prims {
		if p.RelatedIOA.IsZero() {
			continue
		}
		if _, ok := s.byCOA[p.COA][p.RelatedIOA]; !ok {
			s.logger.Critical("invalid relationship for datapoint: no datapoint with related ioa found",
				"coa", p.COA, "ioa", p.IOA, "related_ioa", p.RelatedIOA)
			valid = false
		}
	}
	return valid
}

// ValidateTypeID decides whether a supplied ASDU type-ID is legal for
// the datapoint at (coa, ioa). Validation is only enforced for
// command-query type-IDs: command queries must carry the exact type the
// datapoint was declared for, while non-command type-IDs are
// unconstrained by this layer.
func (s *Store) ValidateTypeID(coa, ioa Address, typeID int) TypeIDCheck {
	s.mu.RLock()
	dp, ok := s.byCOA[coa][ioa]
	s.mu.RUnlock()

	if !ok {
		return TypeIDUnattached
	}
	if !IsCommandType(dp.TypeID) || !IsCommandType(typeID) {
		return TypeIDNotApplicable
	}
	if dp.TypeID == typeID {
		return TypeIDMatch
	}
	return TypeIDMismatch
}
