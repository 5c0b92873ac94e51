// Package server holds the operator HTTP server configuration.
//
// The start command owns the Fiber application itself; this package only
// defines the port and the API key enforced by the auth middleware.
package server
