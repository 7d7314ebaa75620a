// Package main runs the in-memory authentication server used by betterauth
// during development and tests.
//
// HTTP API
//
//	POST /account/create, /account/recover, /account/delete
//	POST /recovery/change
//	POST /device/link, /device/unlink, /device/rotate
//	POST /session/request, /session/create, /session/refresh
//	    Protocol flows. Bodies are signed envelopes; replies are envelopes
//	    signed by the response key, or {"error":{...}} with a status derived
//	    from the error code.
//
//	POST /foo/bar
//	    Echo the body of a verified access request.
//
//	GET /key/response
//	    Return {"identity","publicKey"} of the response key for pinning.
//
//	GET /metrics
//	    Prometheus metrics.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit. Keys are
//     generated at start, so clients must pin the key again after a restart.
//   - An access log records method, path, remote, status, bytes and duration
//     for each request.
//   - The default listen address is :8080.
package main
