// Package mqttbridge implements a distributed backend over the MQTT
// grid fabric.
//
// Queries built by the core become JSON messages published on the
// fabric's request topics; a fabric peer owning the addressed point
// answers on the matching response topic, correlated by request ID.
// Unsolicited state pushes arrive on the state topics and are fed back
// into the core, and periodicity changes are announced on a retained
// command topic so peers can adjust their spontaneous transmission.
//
// Topic layout and the underlying client live in
// internal/infrastructure/mqtt; this package only speaks the message
// shapes and the correlation protocol.
package mqttbridge
