// Package influxdb provides InfluxDB connectivity for grid-rtu-core.
//
// It wraps the official influxdb-client-go v2 library with grid-rtu-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Exchanged IO values (every successful get/set against a datapoint)
//   - Unsolicited periodic value pushes from the backend
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "grid",
//	    Bucket: "rtu",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write exchanged IO values
//	client.WriteIOValue("12", "100", 1, 0, 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
