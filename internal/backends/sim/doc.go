// Package sim implements a local simulator backend.
//
// The simulator keeps its process image in SQLite: a process_values
// table with the current value of every IO point and an append-only
// io_history journal of every exchange. Queries built by the core are
// resolved against that image instead of a field bus, which makes the
// backend suitable for development, commissioning rehearsals and tests.
//
// A periodic pump goroutine pushes the stored value of every periodic
// datapoint through the attached fabric at a configured interval,
// emulating spontaneous transmission from field equipment.
package sim
