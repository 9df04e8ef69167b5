// Package rtu provides the backend-independent core of a software RTU
// (Remote Terminal Unit).
//
// It standardises how a supervisory control process addresses, validates
// and exchanges values with datapoints exposed by an interchangeable
// power-grid backend: physical hardware, a local simulator, or a
// distributed grid-simulation fabric. Addressing and validation follow
// IEC 60870-5-104 conventions (COA/IOA addressing, cause-of-transmission
// codes, ASDU type-IDs); the backend-specific mechanics of building and
// transmitting a query live behind the Backend capability interface.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                           RTU                              │
//	│                                                            │
//	│  ┌──────────────┐   ┌──────────────┐   ┌───────────────┐  │
//	│  │  IO Gateway  │   │    Store     │   │   Validators  │  │
//	│  │   (rtu.go)   │──▶│  (store.go)  │   │ (validate.go) │  │
//	│  │              │   │              │   │               │  │
//	│  │ • Get/Set    │   │ • (COA,IOA)  │   │ • type-ID vs  │  │
//	│  │ • related IO │   │   keyed map  │   │   command set │  │
//	│  │ • readiness  │   │ • periodic   │   │ • COT range   │  │
//	│  │              │   │   views      │   │ • relationships│ │
//	│  └──────┬───────┘   └──────────────┘   └───────────────┘  │
//	└─────────│──────────────────────────────────────────────────┘
//	          │ BuildQuery / SendQuery
//	          ▼
//	┌──────────────────────┐
//	│  Backend capability  │  (simulator, MQTT fabric, hardware)
//	└──────────────────────┘
//
// # Key Types
//
//   - Address: kind-sensitive COA/IOA value (integer 5 and text "5"
//     never alias)
//   - Primitive: the five-field datapoint tuple (COA, IOA, type-ID,
//     COT, related IOA)
//   - Datapoint: Primitive plus opaque backend-specific extra fields
//   - Backend: the injected query construction/transmission capability
//
// # Usage
//
//	rows, err := rtu.LoadDatapointFile("configs/datapoints.yaml")
//	if err != nil {
//	    return err
//	}
//
//	r, err := rtu.New(ctx, rtu.Options{
//	    COA:        rtu.IntAddress(1),
//	    Datapoints: rows,
//	    Backend:    backend,
//	    Logger:     log,
//	})
//	if err != nil {
//	    return err // fatal configuration error
//	}
//
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	value := r.Get(ctx, rtu.IntAddress(1), rtu.IntAddress(10), 0, 0)
//
// # Error Handling
//
// Fatal configuration errors (dangling relationships) fail New.
// Readiness timeouts surface from WaitUntilReady. Everything else
// (unattached addresses, missing relationships, invalid command
// type-IDs, transmission failures) is absorbed into a nil result plus
// a warning log line, so get/set call sites stay unconditional.
package rtu
