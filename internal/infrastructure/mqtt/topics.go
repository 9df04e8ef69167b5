package mqtt

import "fmt"

// Topic prefixes for the grid fabric.
//
// All fabric topics use the flat scheme: gridrtu/{category}/{coa}/{suffix}
// The COA segment keeps traffic for different RTUs separable on a shared
// broker; the suffix is a request ID for the query channels and an IOA
// key for the state channels. COA segments use the canonical address
// key form (i12, tplant) so integer and text addresses never collide.
const (
	// TopicPrefixFabric is the base for all fabric topics.
	TopicPrefixFabric = "gridrtu"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "gridrtu/system"
)

// Topics provides builders for grid-rtu MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	reqTopic := topics.Request("i12", "req-abc123")
//	// Returns: "gridrtu/request/i12/req-abc123"
type Topics struct{}

// Request returns the topic a query is published on.
//
// Example: gridrtu/request/i12/req-abc123
func (Topics) Request(coa, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefixFabric, coa, requestID)
}

// Response returns the topic the answer to a query arrives on.
//
// Example: gridrtu/response/i12/req-abc123
func (Topics) Response(coa, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefixFabric, coa, requestID)
}

// State returns the topic for unsolicited value pushes for a datapoint.
//
// Example: gridrtu/state/i12/i100
func (Topics) State(coa, ioaKey string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefixFabric, coa, ioaKey)
}

// Periodicity returns the topic periodicity commands are published on.
//
// Example: gridrtu/periodicity/i12/i100
func (Topics) Periodicity(coa, ioaKey string) string {
	return fmt.Sprintf("%s/periodicity/%s/%s", TopicPrefixFabric, coa, ioaKey)
}

// Status returns the fabric status topic for one RTU.
//
// Example: gridrtu/status/i12
func (Topics) Status(coa string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixFabric, coa)
}

// SystemStatus returns the system status topic.
//
// Example: gridrtu/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: gridrtu/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllResponses returns a pattern matching every response for one RTU.
//
// Pattern: gridrtu/response/i12/+
func (Topics) AllResponses(coa string) string {
	return fmt.Sprintf("%s/response/%s/+", TopicPrefixFabric, coa)
}

// AllStates returns a pattern matching every state push for one RTU.
//
// Pattern: gridrtu/state/i12/+
func (Topics) AllStates(coa string) string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefixFabric, coa)
}

// AllRequests returns a pattern matching every request for one RTU.
// Fabric peers answering queries subscribe here.
//
// Pattern: gridrtu/request/i12/+
func (Topics) AllRequests(coa string) string {
	return fmt.Sprintf("%s/request/%s/+", TopicPrefixFabric, coa)
}

// AllStatus returns a pattern matching every RTU status topic.
//
// Pattern: gridrtu/status/+
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/status/+", TopicPrefixFabric)
}

// AllTopics returns a pattern matching all grid-rtu topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: gridrtu/#
func (Topics) AllTopics() string {
	return "gridrtu/#"
}
