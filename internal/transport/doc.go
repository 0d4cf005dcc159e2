// Package transport carries grid commands over a network connection.
//
// Two implementations exist: a framed TCP connection (the default,
// optionally TLS) and a WebSocket connection. Both are strictly
// synchronous: one command goes out, one reply comes back, and a mutex
// serializes callers so a connection never has two requests in flight.
// Dialing may back off and retry; a request never does — a failed
// round trip is final for that call.
package transport
