package cache

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CacheOperation renders cache results for the command line.
type CacheOperation struct {
	manager Manager
	log     logrus.FieldLogger
}

// NewCacheOperation creates a new cache operation instance.
func NewCacheOperation(manager Manager, log logrus.FieldLogger) *CacheOperation {
	return &CacheOperation{
		manager: manager,
		log:     log,
	}
}

// Clean cleans the staging directory based on the provided options.
func (op *CacheOperation) Clean(options CleanOptions) (string, error) {
	op.log.WithFields(logrus.Fields{
		"all":        options.All,
		"images":     options.Images,
		"digests":    options.Digests,
		"compressed": options.Compressed,
	}).Debug("Cleaning cache")

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.Removed == 0 {
		return "No files were removed from the cache.", nil
	}

	msg := fmt.Sprintf("Removed %d files. Freed %s of disk space.", result.Removed, formatBytes(result.TotalFreed))
	if result.ImageFreed > 0 {
		msg += fmt.Sprintf("\n- Images: %s", formatBytes(result.ImageFreed))
	}
	if result.CompressedFreed > 0 {
		msg += fmt.Sprintf("\n- Compressed: %s", formatBytes(result.CompressedFreed))
	}
	if result.DigestFreed > 0 {
		msg += fmt.Sprintf("\n- Digests: %s", formatBytes(result.DigestFreed))
	}
	return msg, nil
}

// GetInfo returns information about the staging directory.
func (op *CacheOperation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:    %s
  Total Size:   %s
  Images:       %s (%d files)
  Compressed:   %s (%d files)
  Digests:      %s (%d files)`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.ImageSize),
		info.ImageFiles,
		formatBytes(info.CompressedSize),
		info.CompressedFiles,
		formatBytes(info.DigestSize),
		info.DigestFiles,
	), nil
}

// GetDirectory returns the staging directory path.
func (op *CacheOperation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
