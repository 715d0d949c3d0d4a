// Package cache provides caching for fetched reference resources.
package cache

// ResourceCache is the interface for resource caching. Keys are resource
// paths; values are the fetched file contents.
type ResourceCache interface {
	// Get retrieves a cached resource body. Returns empty string and false
	// if not found or expired.
	Get(key string) (string, bool)

	// Set stores a resource body in the cache.
	Set(key string, value string) error
}
