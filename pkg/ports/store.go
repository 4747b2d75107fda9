package ports

import "context"

// SessionStore defines the key-value persistence for client-side session state.
// It replaces ambient browser storage with an explicit, injectable capability.
type SessionStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrSessionNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}
