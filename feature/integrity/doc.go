// Package integrity reports the health of the snapshot backends.
//
// # Checks Provided
//
//   - Storage: the snapshot bucket exists and whether a snapshot object has
//     been written yet (s3 backend).
//   - Database: the resolved_tracks table matches the TrackRow model
//     (columns, declared types).
//   - File: the local snapshot exists and decodes.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs every configured check; healthy reflects the active backend.
//   - GET /integrity/storage : Storage check (supports ?fix=true to create the bucket).
//   - GET /integrity/database : Schema check (supports ?fix=true to migrate).
//   - GET /integrity/file : File snapshot check.
package integrity
