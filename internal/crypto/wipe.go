package crypto

import "runtime"

// Wipe zeroes secret material held in b once it is no longer needed.
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
