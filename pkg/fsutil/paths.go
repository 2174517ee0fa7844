package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "phablet"

	// imagesDirName is the staging directory below the cache dir.
	imagesDirName = "images"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/phablet/
// On macOS: ~/Library/Caches/phablet/
// On Windows: %LOCALAPPDATA%\phablet\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the platform-specific configuration directory for the application.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetImagesDir returns the default staging directory for downloaded images.
// Format: <cache_dir>/images/
func GetImagesDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, imagesDirName), nil
}
