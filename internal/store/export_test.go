package store

// FastScrypt lowers scrypt cost for the duration of a test.
func FastScrypt() (restore func()) {
	prev := kdfCost
	kdfCost = func() kdfParams { return kdfParams{N: 1 << 10, R: 8, P: 1} }
	return func() { kdfCost = prev }
}
