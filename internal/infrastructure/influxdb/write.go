package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ActuationMeasurement is the measurement actuation metrics are written to.
const ActuationMeasurement = "haptic_actuations"

// ActuationMetric summarises one Actuate call.
type ActuationMetric struct {
	DeviceID string // trackpad id, tag; empty when no device was found
	Source   string // api, mqtt or cli, tag
	Pattern  int32  // tag
	Attempts int
	Duration time.Duration
	Success  bool
}

// WriteActuationMetric records m at the current time. Non-blocking; a
// disconnected or nil client drops the point.
//
// Example:
//
//	client.WriteActuationMetric(influxdb.ActuationMetric{
//	    DeviceID: "144115188092132096", Source: "api", Pattern: 6,
//	    Attempts: 1, Duration: 2 * time.Millisecond, Success: true,
//	})
func (c *Client) WriteActuationMetric(m ActuationMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(actuationPoint(m, time.Now()))
}

func actuationPoint(m ActuationMetric, ts time.Time) *write.Point {
	tags := map[string]string{
		"pattern": strconv.FormatInt(int64(m.Pattern), 10),
		"success": strconv.FormatBool(m.Success),
	}
	if m.DeviceID != "" {
		tags["device_id"] = m.DeviceID
	}
	if m.Source != "" {
		tags["source"] = m.Source
	}

	return write.NewPoint(
		ActuationMeasurement,
		tags,
		map[string]interface{}{
			"attempts":    int64(m.Attempts),
			"duration_ms": float64(m.Duration) / float64(time.Millisecond),
			"retried":     m.Attempts > 1,
		},
		ts,
	)
}

// WritePoint writes a custom point at the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
