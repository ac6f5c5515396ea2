// Package api provides the HTTP REST API of the haptics daemon.
//
// Endpoints (all JSON):
//
//	GET  /api/v1/health             component health (200 ok, 503 degraded)
//	GET  /api/v1/metrics            runtime and session metrics
//	GET  /api/v1/haptics/status     actuator session snapshot
//	POST /api/v1/haptics/actuate    {"pattern": 6, "flags": 0, "param1": 0, "param2": 0}
//	GET  /api/v1/haptics/patterns   named and known pattern ids
//	GET  /api/v1/haptics/history    recent actuations, ?limit=1..200
//	POST /api/v1/auth/token         {"client": "...", "secret": "..."}, only with api.auth enabled
//
// With api.auth enabled the haptics routes need "Authorization: Bearer <token>".
// Viewers may read; only operators may actuate. Health and metrics stay open.
//
// The server follows the same lifecycle as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Errors are returned as {"status": 502, "code": "actuation_failed", "message": "..."}.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
