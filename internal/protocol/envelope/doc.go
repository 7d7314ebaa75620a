// Package envelope implements the signed {payload, signature} record and its
// request, response and access specializations.
//
// Parsing never verifies; callers verify explicitly with the key source of
// their choice. Responses are additionally bound to the request nonce.
package envelope
