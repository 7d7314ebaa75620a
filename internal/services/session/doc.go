// Package session establishes and refreshes access sessions.
//
// It performs the request/create handshake against the authentication key,
// keeps the access key commitment in step with the token the server issued,
// and stores tokens only after checking them against the key they name.
package session
