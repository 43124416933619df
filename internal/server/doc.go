// Package server runs the daemon's loopback HTTP transport.
//
// It provides orchestration for the HTTP server lifecycle, including startup,
// signal handling, and graceful shutdown.
package server
