// Package api provides the HTTP REST API for the warehouse simulator.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "reference"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Warehouse operations:
//   - GET /api/sessions/{id}/state - Current warehouse state
//   - POST /api/sessions/{id}/push - One push ({"direction": "left"} or "<")
//   - POST /api/sessions/{id}/bulk-push - Push sequence ({"moves": ["up", "<"]})
//   - POST /api/sessions/{id}/run - Raw instruction stream ({"instructions": "<^^>\nvv"})
//   - POST /api/sessions/{id}/play - Run the scenario's own instruction script
//   - POST /api/sessions/{id}/reset - Restore the initial layout
//   - GET /api/sessions/{id}/history - Paginated push history (?page=1&limit=20&order=desc)
//
// Every push endpoint accepts "reset": true to restore the layout first.
// Rejected pushes are part of a normal response; only malformed input is a
// 400.
//
// Configuration:
//   - GET /api/configs - List scenarios
//   - GET /api/configs/{name} - Get a scenario
//   - POST /api/configs - Save a scenario
//
// Errors are returned as JSON with the HTTP status code mirrored in the body:
//
//	{
//	  "error": "session zz99: session not found",
//	  "code": 404
//	}
//
// When the server is built with a websocket hub, GET /ws?session={id}
// upgrades to a live feed and every mutating endpoint broadcasts to it.
package api
