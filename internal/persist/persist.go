// Package persist is the small key-value capability the dashboard uses to
// keep the credential and filter selections across page loads. The web
// layer backs it with browser cookies; tests use the in-memory store.
package persist

import "time"

// Expiry is how long a persisted value lives.
const Expiry = 7 * 24 * time.Hour

// Store persists named string values. Implementations must treat failures
// as non-fatal: a value that cannot be read is simply absent, and a failed
// write is logged by the implementation rather than surfaced.
type Store interface {
	// Get returns the value and whether it was present.
	Get(name string) (string, bool)
	// Set stores the value with the standard expiry.
	Set(name, value string)
	// Remove deletes the value. Removing an absent value is a no-op.
	Remove(name string)
}
