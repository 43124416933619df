// Package http implements the local HTTP facade of the sync daemon.
//
// It exposes route wiring, request handlers, and middleware used by the
// loopback REST API that the PWA talks to. Cross-cutting concerns such as
// request tracing and access logging are handled in this package before
// requests are delegated to the service layer.
package http
