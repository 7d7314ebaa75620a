// Package keys implements the rotating key commitment held per key role.
//
// Every key pre-commits, via rotationHash = hash(next.public), to the key
// that replaces it. Rotation is two-phase: Next reveals the successor and
// materializes the key after it exactly once, Rotate commits. A reveal whose
// reply is lost is safe to repeat because Next keeps returning the same pair.
//
// Initialize only fills an empty commitment. Flows that replace a role's keys
// Stage a new pair, sign with it and Commit once the server has accepted it.
package keys
