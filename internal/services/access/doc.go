// Package access makes application requests authenticated by an access
// token and the access key it is bound to.
package access
