package cache

import "fmt"

// Common cache errors.
var (
	// ErrCacheClean is returned when there's an error cleaning the staging directory.
	ErrCacheClean = fmt.Errorf("failed to clean cache")

	// ErrCacheInfo is returned when there's an error reading the staging directory.
	ErrCacheInfo = fmt.Errorf("failed to get cache info")

	// ErrCacheDirectory is returned when the staging directory is not usable.
	ErrCacheDirectory = fmt.Errorf("invalid cache directory")

	// ErrCacheLocked is returned when a download holds the staging directory.
	ErrCacheLocked = fmt.Errorf("cache is in use")
)
