// Package messages is the closed set of protocol payloads, one typed request
// and response per flow, with an explicit decode function for each.
package messages
