// Package domain defines the identifiers and capability contracts shared
// across the client. It contains plain types and interfaces only; concrete
// hashing, signing, storage and transport live in their own packages.
package domain
