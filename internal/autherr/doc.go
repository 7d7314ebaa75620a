// Package autherr is the closed error taxonomy of the protocol.
//
// Every kind carries a wire-stable code grouped by category: validation
// (1xx), cryptographic (2xx), authorization (3xx), token (4xx), temporal
// (5xx), storage (6xx), encoding (7xx), network (8xx) and protocol state
// (9xx). Errors marshal to {"error":{"code","message","context"}} with
// context keys in insertion order.
package autherr
