// Package errors defines the error kinds shared by the phablet packages and
// small helpers for wrapping them with context. Callers compare against the
// sentinels with errors.Is.
package errors

import "fmt"

// Error kinds surfaced by the acquisition pipeline.
var (
	// ErrInvalidConfiguration is returned for bad construction input, before any I/O happens.
	ErrInvalidConfiguration = fmt.Errorf("invalid configuration")

	// ErrDownloadFailed is returned when an artifact or its digest could not be fetched,
	// or when a trusted local copy is missing in offline mode.
	ErrDownloadFailed = fmt.Errorf("download failed")

	// ErrIntegrityFailed is returned when a digest check does not match. It is never retried.
	ErrIntegrityFailed = fmt.Errorf("integrity check failed")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration value")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrUnknownDevice     = fmt.Errorf("unknown device")
)

// Hook errors.
var (
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// ErrCatalog is returned when the image server listing cannot be read.
var ErrCatalog = fmt.Errorf("catalog listing failed")

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: panic, fatal, error, warn, info, debug, trace", ErrInvalidLogLevel, level)
}

// ErrUnknownDeviceWithDetails is a helper to create a wrapped error naming the device and the valid ones.
func ErrUnknownDeviceWithDetails(device string, valid []string) error {
	return fmt.Errorf("%w: %s. Valid devices are: %v", ErrUnknownDevice, device, valid)
}
