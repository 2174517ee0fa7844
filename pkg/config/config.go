// Package config provides configuration management for phablet.
// It handles loading, validating and saving the YAML settings file that
// describes where images are downloaded from, where they are staged, and how
// they are fetched and verified.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Image server settings
	BaseHost    string `yaml:"base_host"`
	DownloadURI string `yaml:"download_uri"`
	CatalogURI  string `yaml:"catalog_uri"`

	// Staging settings
	StagingDir  string        `yaml:"staging_dir,omitempty"`
	Offline     bool          `yaml:"offline"`
	Validate    *bool         `yaml:"validate,omitempty"`
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// Network settings
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	UserAgent     string        `yaml:"user_agent,omitempty"`
	MaxConcurrent int           `yaml:"max_concurrent"`

	// Tooling
	Transport string   `yaml:"transport"` // http, command
	Checksum  string   `yaml:"checksum"`  // native, command
	Commands  Commands `yaml:"commands,omitempty"`

	// Devices and the artifacts flashed onto them
	Devices        []string `yaml:"devices"`
	ValidateDevice *bool    `yaml:"validate_device,omitempty"`
	Artifacts      []string `yaml:"artifacts"`

	Hooks Hooks `yaml:"hooks,omitempty"`

	LogLevel string `yaml:"log_level"` // panic, fatal, error, warn, info, debug, trace
}

// Commands holds the external tool templates used by the command transport and
// the command checksum verifier. {uri}, {path} and {digest} are substituted.
type Commands struct {
	BaseFetch  string `yaml:"base_fetch,omitempty"`
	OtherFetch string `yaml:"other_fetch,omitempty"`
	Checksum   string `yaml:"checksum,omitempty"`
}

// Hooks lists the hook scripts to load.
type Hooks struct {
	PostDownload string `yaml:"post_download,omitempty"`
}

// Transports and checksum verifiers.
const (
	TransportHTTP    = "http"
	TransportCommand = "command"
	ChecksumNative   = "native"
	ChecksumCommand  = "command"
)

// DevicePlaceholder is replaced by the device name in artifact templates.
const DevicePlaceholder = "{device}"

// Default configuration values.
const (
	DefaultBaseHost    = "http://cdimage.ubuntu.com"
	DefaultCatalogURI  = DefaultBaseHost + "/ubuntu-touch-preview/"
	DefaultDownloadURI = DefaultBaseHost + "/ubuntu-touch-preview/daily-preinstalled/current"

	// DefaultHTTPTimeout bounds the wait for response headers.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultLockTimeout bounds the wait for a staging directory used by another process.
	DefaultLockTimeout = 10 * time.Second

	// DefaultMaxConcurrent is the default maximum number of concurrent catalog requests.
	DefaultMaxConcurrent = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultDevices are the devices images are published for.
var DefaultDevices = []string{"mako", "maguro", "manta", "grouper"}

// DefaultArtifacts are the images flashed onto a device, in download order.
var DefaultArtifacts = []string{
	"quantal-preinstalled-phablet-armhf.zip",
	"quantal-preinstalled-armel+{device}.zip",
	"quantal-preinstalled-system-armel+{device}.img",
	"quantal-preinstalled-boot-armel+{device}.img",
	"quantal-preinstalled-recovery-armel+{device}.img",
}

var validLogLevels = []string{"panic", "fatal", "error", "warn", "info", "debug", "trace"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	stagingDir, err := fsutil.GetImagesDir()
	if err != nil {
		stagingDir = filepath.Join(os.TempDir(), fsutil.AppName, "images")
	}

	return &Config{
		Settings: Settings{
			BaseHost:       DefaultBaseHost,
			DownloadURI:    DefaultDownloadURI,
			CatalogURI:     DefaultCatalogURI,
			StagingDir:     stagingDir,
			Validate:       boolPtr(true),
			LockTimeout:    DefaultLockTimeout,
			HTTPTimeout:    DefaultHTTPTimeout,
			MaxConcurrent:  DefaultMaxConcurrent,
			Transport:      TransportHTTP,
			Checksum:       ChecksumNative,
			Devices:        slices.Clone(DefaultDevices),
			ValidateDevice: boolPtr(true),
			Artifacts:      slices.Clone(DefaultArtifacts),
			LogLevel:       "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig writes the configuration to path, replacing any existing file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	s := c.Settings

	if s.DownloadURI == "" && !s.Offline {
		return errors.Wrap(errors.ErrConfigValidation, "download_uri cannot be empty")
	}
	if s.StagingDir == "" {
		return errors.Wrap(errors.ErrConfigValidation, "staging_dir cannot be empty")
	}
	if s.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	if s.LockTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "lock_timeout cannot be negative")
	}
	if s.MaxConcurrent < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "max_concurrent must be at least 1")
	}
	switch s.Transport {
	case TransportHTTP, TransportCommand:
	default:
		return errors.Wrapf(errors.ErrConfigValidation, "invalid transport '%s', must be one of: http, command", s.Transport)
	}
	switch s.Checksum {
	case ChecksumNative, ChecksumCommand:
	default:
		return errors.Wrapf(errors.ErrConfigValidation, "invalid checksum '%s', must be one of: native, command", s.Checksum)
	}
	if len(s.Artifacts) == 0 {
		return errors.Wrap(errors.ErrConfigValidation, "artifacts cannot be empty")
	}
	if s.Hooks.PostDownload != "" && filepath.Ext(s.Hooks.PostDownload) != ".tengo" {
		return errors.Wrapf(errors.ErrConfigValidation, "hooks.post_download must be a .tengo script: %s", s.Hooks.PostDownload)
	}
	if !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// ShouldValidate reports whether downloads are checked against their digests.
func (s Settings) ShouldValidate() bool {
	return s.Validate == nil || *s.Validate
}

// ShouldValidateDevice reports whether device names are checked against Devices.
func (s Settings) ShouldValidateDevice() bool {
	return s.ValidateDevice == nil || *s.ValidateDevice
}

// ArtifactNames expands the artifact templates for device. Empty templates
// are kept as empty names so downloads skip them.
func (c *Config) ArtifactNames(device string) ([]string, error) {
	s := c.Settings
	needsDevice := slices.ContainsFunc(s.Artifacts, func(a string) bool {
		return strings.Contains(a, DevicePlaceholder)
	})
	if needsDevice && device == "" {
		return nil, errors.Wrap(errors.ErrUnknownDevice, "a device is required to resolve artifact names")
	}
	if device != "" && s.ShouldValidateDevice() && !slices.Contains(s.Devices, device) {
		return nil, errors.ErrUnknownDeviceWithDetails(device, s.Devices)
	}

	names := make([]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		names[i] = strings.ReplaceAll(a, DevicePlaceholder, device)
	}
	return names, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig().Settings
	s := &c.Settings

	if s.BaseHost == "" {
		s.BaseHost = defaults.BaseHost
	}
	if s.DownloadURI == "" {
		s.DownloadURI = defaults.DownloadURI
	}
	if s.CatalogURI == "" {
		s.CatalogURI = defaults.CatalogURI
	}
	if s.StagingDir == "" {
		s.StagingDir = defaults.StagingDir
	}
	if s.Validate == nil {
		s.Validate = defaults.Validate
	}
	if s.LockTimeout == 0 {
		s.LockTimeout = defaults.LockTimeout
	}
	if s.HTTPTimeout == 0 {
		s.HTTPTimeout = defaults.HTTPTimeout
	}
	if s.MaxConcurrent == 0 {
		s.MaxConcurrent = defaults.MaxConcurrent
	}
	if s.Transport == "" {
		s.Transport = defaults.Transport
	}
	if s.Checksum == "" {
		s.Checksum = defaults.Checksum
	}
	if len(s.Devices) == 0 {
		s.Devices = defaults.Devices
	}
	if s.ValidateDevice == nil {
		s.ValidateDevice = defaults.ValidateDevice
	}
	if len(s.Artifacts) == 0 {
		s.Artifacts = defaults.Artifacts
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
}

func boolPtr(b bool) *bool {
	return &b
}
