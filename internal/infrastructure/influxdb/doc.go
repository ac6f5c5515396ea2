// Package influxdb provides InfluxDB connectivity for Gray Logic Haptics.
//
// It wraps the official influxdb-client-go v2 library and records one
// point in the haptic_actuations measurement per actuation: tags for the
// device, source, pattern and outcome, fields for the attempt count and
// duration. Retries show up as attempts > 1.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteActuationMetric(influxdb.ActuationMetric{Pattern: 6, Attempts: 1, Success: true})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are batched and
// non-blocking; failures reach the SetOnError callback wrapped in
// ErrWriteFailed.
package influxdb
