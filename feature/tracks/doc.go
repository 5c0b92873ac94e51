// Package tracks exposes the reconciliation store over HTTP.
//
// Reads come straight from the in-memory store. Re-resolution passes are
// explicit: POST /tracks/rerun starts one in the background and returns its
// id, and GET /tracks/runs/:id reports progress and the final report.
// At most one pass per state runs at a time.
//
// # HTTP Endpoints
//
//   - GET /tracks?state=placeholder&offset=0&limit=100 : Records in a state.
//   - GET /tracks/summary : Counts per state.
//   - GET /tracks/:feedId/:itemId : One record; escape URL item ids.
//   - POST /tracks/rerun?state=placeholder : Start a re-resolution pass.
//   - GET /tracks/runs : Recent passes.
//   - GET /tracks/runs/:id : One pass.
package tracks
