// Package middleware groups the HTTP middleware of the operator API.
//
//   - auth: rejects requests without the configured X-API-Key.
//   - rayid: tags every request with a ray id, stored in Locals for
//     logger.WithRayID and echoed in the X-Ray-ID response header.
//
// Register rayid first so every later log line carries the id.
package middleware
