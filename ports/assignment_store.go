package ports

import "context"

// AssignmentStore is the narrow key-value persistence behind sticky variant
// assignment. Browser localStorage, an in-memory map, and Postgres all fit
// behind it; assignment logic never changes with the backing store.
type AssignmentStore interface {
	// Get returns the stored value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key if present. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
