// Package cache reports on and prunes the staging directory that offline
// downloads are served from.
package cache

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/glorpus-work/phablet/pkg/artifact"
	"github.com/glorpus-work/phablet/pkg/download"
	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

type kind int

const (
	kindImage kind = iota
	kindDigest
	kindCompressed
)

func classify(name string) kind {
	switch {
	case artifact.IsDigest(name):
		return kindDigest
	case artifact.IsCompressed(name):
		return kindCompressed
	default:
		return kindImage
	}
}

// DefaultManager implements the Manager interface for a flat staging directory.
type DefaultManager struct {
	directory string
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a cache manager for the default images directory.
func NewDefaultManager() (*DefaultManager, error) {
	dir, err := fsutil.GetImagesDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get images directory")
	}
	return NewManager(dir), nil
}

// Clean removes staged files according to the specified options. It refuses
// to touch the directory while a download holds its lock.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if cm.directory == "" {
		return nil, ErrCacheDirectory
	}
	if !options.Images && !options.Digests && !options.Compressed {
		options.All = true
	}

	result := &CleanResult{}
	if !fsutil.IsDir(cm.directory) {
		return result, nil
	}

	fl := flock.New(filepath.Join(cm.directory, download.LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(ErrCacheClean, "could not lock %s: %v", cm.directory, err)
	}
	if !locked {
		return nil, errors.Wrapf(ErrCacheLocked, "%s is held by a running download", cm.directory)
	}
	defer func() { _ = fl.Unlock() }()

	err = cm.walk(func(path string, k kind, size int64) error {
		selected := options.All ||
			(k == kindImage && options.Images) ||
			(k == kindDigest && options.Digests) ||
			(k == kindCompressed && options.Compressed)
		if !selected {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(ErrCacheClean, "failed to remove %s: %v", path, err)
		}
		result.Removed++
		result.TotalFreed += size
		switch k {
		case kindDigest:
			result.DigestFreed += size
		case kindCompressed:
			result.CompressedFreed += size
		default:
			result.ImageFreed += size
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetInfo returns information about the staged files.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}
	if !fsutil.IsDir(cm.directory) {
		return info, nil
	}

	err := cm.walk(func(_ string, k kind, size int64) error {
		info.TotalSize += size
		switch k {
		case kindDigest:
			info.DigestSize += size
			info.DigestFiles++
		case kindCompressed:
			info.CompressedSize += size
			info.CompressedFiles++
		default:
			info.ImageSize += size
			info.ImageFiles++
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(ErrCacheInfo, "%v", err)
	}
	return info, nil
}

// GetDirectory returns the staging directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// walk visits the regular files at the top of the staging directory,
// skipping the lock file. Subdirectories are not part of the layout.
func (cm *DefaultManager) walk(fn func(path string, k kind, size int64) error) error {
	entries, err := os.ReadDir(cm.directory)
	if err != nil {
		return errors.Wrapf(err, "error reading directory %s", cm.directory)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == download.LockFileName {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "error reading %s", entry.Name())
		}
		if err := fn(filepath.Join(cm.directory, entry.Name()), classify(entry.Name()), fi.Size()); err != nil {
			return err
		}
	}
	return nil
}
