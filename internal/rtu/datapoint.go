package rtu

import (
	"fmt"

	"github.com/spf13/cast"
)

// Protocol constants.
const (
	// MinCOT and MaxCOT bound the valid cause-of-transmission range.
	MinCOT = 1
	MaxCOT = 47

	// COTPeriodic marks a datapoint that delivers unsolicited periodic
	// updates.
	COTPeriodic = 1

	// MinCommandTypeID and MaxCommandTypeID bound the ASDU type-ID
	// sub-range reserved for command queries (control direction,
	// process information).
	MinCommandTypeID = 45
	MaxCommandTypeID = 69

	// minRowFields is the number of fields in a datapoint row without a
	// relationship; relationshipIndex is where the relationship sits in
	// the canonical row shape.
	minRowFields      = 4
	relationshipIndex = 4
)

// Primitive is the five-field datapoint tuple every backend must
// understand: (COA, IOA, type-ID, COT, related IOA).
//
// A zero RelatedIOA means "no relationship". Primitive is comparable and
// usable as a set key.
type Primitive struct {
	COA        Address
	IOA        Address
	TypeID     int
	COT        int
	RelatedIOA Address
}

// ID returns the (COA, IOA) key pair of the datapoint.
func (p Primitive) ID() ID {
	return ID{COA: p.COA, IOA: p.IOA}
}

// IsPeriodic reports whether the datapoint expects unsolicited periodic
// updates (stored COT == 1).
func (p Primitive) IsPeriodic() bool {
	return p.COT == COTPeriodic
}

// String renders the datapoint for logs.
func (p Primitive) String() string {
	return fmt.Sprintf("(%s, %s, type %d, cot %d, related %s)",
		p.COA, p.IOA, p.TypeID, p.COT, p.RelatedIOA)
}

// Datapoint is a Primitive extended with backend-specific fields.
//
// Extra is opaque to the core: it is carried through storage and handed
// back to the backend untouched.
type Datapoint struct {
	Primitive
	Extra []any
}

// ID is a (COA, IOA) address pair identifying one datapoint.
type ID struct {
	COA Address
	IOA Address
}

// Row is one externally supplied datapoint definition, deterministically
// castable to a Datapoint: [coa, ioa, type_id, cot, related_ioa?, extra...].
type Row = []any

// DatapointFromRow converts a loosely typed row into a Datapoint.
//
// When includesRelationship is false, an empty relationship is inserted
// at the canonical position and the fifth field onward is treated as
// backend-specific extra data. Conversion is all-or-nothing per row: any
// field that does not fit the expected shape fails the whole row.
func DatapointFromRow(row Row, includesRelationship bool) (Datapoint, error) {
	min := minRowFields
	if includesRelationship {
		min = minRowFields + 1
	}
	if len(row) < min {
		return Datapoint{}, fmt.Errorf("rtu: datapoint row has %d fields, need at least %d", len(row), min)
	}

	coa, err := AddressOf(row[0])
	if err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint coa: %w", err)
	}
	if coa.IsZero() {
		return Datapoint{}, fmt.Errorf("rtu: datapoint coa is empty")
	}
	if err := coa.checkKeySafe(); err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint coa: %w", err)
	}

	ioa, err := AddressOf(row[1])
	if err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint ioa: %w", err)
	}
	if ioa.IsZero() {
		return Datapoint{}, fmt.Errorf("rtu: datapoint ioa is empty")
	}
	if err := ioa.checkKeySafe(); err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint ioa: %w", err)
	}

	typeID, err := cast.ToIntE(row[2])
	if err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint type-id: %w", err)
	}

	cot, err := cast.ToIntE(row[3])
	if err != nil {
		return Datapoint{}, fmt.Errorf("rtu: datapoint cot: %w", err)
	}

	var related Address
	extraStart := relationshipIndex
	if includesRelationship {
		related, err = AddressOf(row[relationshipIndex])
		if err != nil {
			return Datapoint{}, fmt.Errorf("rtu: datapoint relationship: %w", err)
		}
		if err := related.checkKeySafe(); err != nil {
			return Datapoint{}, fmt.Errorf("rtu: datapoint relationship: %w", err)
		}
		extraStart = relationshipIndex + 1
	}

	var extra []any
	if len(row) > extraStart {
		extra = make([]any, len(row)-extraStart)
		copy(extra, row[extraStart:])
	}

	return Datapoint{
		Primitive: Primitive{
			COA:        coa,
			IOA:        ioa,
			TypeID:     typeID,
			COT:        cot,
			RelatedIOA: related,
		},
		Extra: extra,
	}, nil
}
