package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteIOValue writes a single exchanged IO value to InfluxDB.
//
// This is the primary method for recording RTU telemetry: every
// successfully retrieved, written or pushed datapoint value lands here.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - coa: Common address of the datapoint's RTU (string form)
//   - ioa: Information object address of the datapoint (string form)
//   - cot: Cause of transmission the value was exchanged with
//   - typeID: ASDU type identifier, 0 when not supplied
//   - value: The numeric value exchanged
//
// Example:
//
//	client.WriteIOValue("12", "100", 1, 0, 21.5)
func (c *Client) WriteIOValue(coa, ioa string, cot, typeID int, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"io_values",
		map[string]string{
			"coa": coa,
			"ioa": ioa,
		},
		map[string]interface{}{
			"value":   value,
			"cot":     cot,
			"type_id": typeID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePeriodicPush records an unsolicited periodic value push.
//
// Kept separate from WriteIOValue so dashboards can distinguish polled
// exchanges from backend-originated pushes.
//
// Parameters:
//   - coa: Common address of the pushing datapoint's RTU
//   - ioa: Information object address of the pushing datapoint
//   - value: The pushed value
func (c *Client) WritePeriodicPush(coa, ioa string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"periodic_pushes",
		map[string]string{
			"coa": coa,
			"ioa": ioa,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "rtu-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
