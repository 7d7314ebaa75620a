// Package transport provides the HTTP implementation of domain.Network.
//
// Each serialized envelope is POSTed as JSON to the server path of its flow
// and the raw reply body is handed back to the protocol core, which parses
// and verifies it. The transport owns the retry policy; the core never
// retries.
//
// Behaviour:
//   - Connection failures, 429 and 5xx replies are retried with exponential
//     backoff when WithRetry is set.
//   - Replies carrying {"error":{...}} are returned as *autherr.Error and are
//     never retried.
//   - An optional token bucket limits outgoing attempts.
//   - Every attempt of one request shares an X-Request-ID header.
package transport
