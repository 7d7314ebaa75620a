// Package flow is the round-trip machinery shared by the protocol flows.
//
// A flow builds its request, signs it, hands the bytes to the network, parses
// and verifies the reply, and binds the response to the request nonce. Only
// then does the calling service commit local state. Retries are left to the
// network implementation.
package flow
