// Package account implements account creation, recovery, deletion and
// recovery-key changes.
package account
