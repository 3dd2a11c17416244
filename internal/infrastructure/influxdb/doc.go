// Package influxdb provides optional telemetry history for Purebridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// This package stores time-series environmental readings decoded from the
// appliances: temperature, humidity, and air quality levels. Actuator state
// is never persisted; sessions rebuild it from a requested device snapshot.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // history disabled or server unreachable
//	}
//	defer client.Close()
//
//	client.WriteEnvironmentMetric("NK6-EU-MHA0000A", "temperature_c", 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
