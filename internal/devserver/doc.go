// Package devserver is an in-memory server for the authentication protocol.
//
// It keeps the authentication-key and recovery-hash registry, issues session
// challenges and access tokens, and verifies access requests. Server.Handle
// serves requests in process; Router exposes the same routes over HTTP.
// Handlers accept a retried rotation whose reply was lost, so client retries
// converge.
package devserver
