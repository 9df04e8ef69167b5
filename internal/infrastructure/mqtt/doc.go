// Package mqtt provides MQTT client connectivity for grid-rtu-core.
//
// This package manages:
//   - Connection to the fabric broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The grid fabric uses MQTT as the message bus connecting RTU cores to
// the field peers that answer their queries. The broker decouples the
// core from peer-specific implementations.
//
//	grid-rtu-core <-> MQTT Broker <-> fabric peers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all state pushes for this RTU
//	err = client.Subscribe(mqtt.Topics{}.AllStates("12"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a query
//	topic := mqtt.Topics{}.Request("12", "req-abc123")
//	client.Publish(topic, payload, 1, false)
package mqtt
