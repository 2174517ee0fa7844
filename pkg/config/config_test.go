package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Settings.MaxConcurrent)
	assert.Equal(t, "http://cdimage.ubuntu.com/ubuntu-touch-preview/daily-preinstalled/current", cfg.Settings.DownloadURI)
	assert.Equal(t, TransportHTTP, cfg.Settings.Transport)
	assert.Equal(t, ChecksumNative, cfg.Settings.Checksum)
	assert.True(t, cfg.Settings.ShouldValidate())
	assert.True(t, cfg.Settings.ShouldValidateDevice())
	assert.NotEmpty(t, cfg.Settings.StagingDir)
	require.NoError(t, cfg.Validate())

	// defaults are not shared between configs
	cfg.Settings.Devices[0] = "changed"
	assert.Equal(t, "mako", DefaultConfig().Settings.Devices[0])
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  download_uri: http://mirror.example.com/touch/current
  staging_dir: /var/cache/phablet
  validate: false
  http_timeout: 1m
  transport: command
  commands:
    base_fetch: "wget -q -c {uri} -O {path}"
  devices: [mako, flo]
  artifacts:
    - boot-{device}.img
    - ""
    - rootfs.tar.gz
  hooks:
    post_download: /etc/phablet/post.tengo
  log_level: debug`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	s := cfg.Settings
	assert.Equal(t, "http://mirror.example.com/touch/current", s.DownloadURI)
	assert.Equal(t, "/var/cache/phablet", s.StagingDir)
	assert.False(t, s.ShouldValidate())
	assert.Equal(t, time.Minute, s.HTTPTimeout)
	assert.Equal(t, TransportCommand, s.Transport)
	assert.Equal(t, "wget -q -c {uri} -O {path}", s.Commands.BaseFetch)
	assert.Equal(t, []string{"mako", "flo"}, s.Devices)
	assert.Equal(t, []string{"boot-{device}.img", "", "rootfs.tar.gz"}, s.Artifacts)
	assert.Equal(t, "/etc/phablet/post.tengo", s.Hooks.PostDownload)
	assert.Equal(t, "debug", s.LogLevel)

	// defaults fill the rest
	assert.Equal(t, DefaultBaseHost, s.BaseHost)
	assert.Equal(t, ChecksumNative, s.Checksum)
	assert.Equal(t, DefaultLockTimeout, s.LockTimeout)
	assert.True(t, s.ShouldValidateDevice())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)

	_, err = LoadConfigFromReader(strings.NewReader("settings: [unclosed"))
	assert.ErrorIs(t, err, errors.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  transport: ftp\n"))
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.Offline = true
	cfg.Settings.Validate = boolPtr(false)
	cfg.Settings.LockTimeout = 3 * time.Second

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))
	assert.NoFileExists(t, configPath+".tmp")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
		errMsg  string
	}{
		{name: "valid config", mutate: func(*Settings) {}},
		{
			name:    "negative timeout",
			mutate:  func(s *Settings) { s.HTTPTimeout = -time.Second },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "http_timeout",
		},
		{
			name:    "unknown checksum",
			mutate:  func(s *Settings) { s.Checksum = "sha1" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "invalid checksum",
		},
		{
			name:    "no artifacts",
			mutate:  func(s *Settings) { s.Artifacts = nil },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "artifacts",
		},
		{
			name:    "empty download uri",
			mutate:  func(s *Settings) { s.DownloadURI = "" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "download_uri",
		},
		{
			name:   "empty download uri offline",
			mutate: func(s *Settings) { s.DownloadURI = ""; s.Offline = true },
		},
		{
			name:    "hook is not a tengo script",
			mutate:  func(s *Settings) { s.Hooks.PostDownload = "post.sh" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "post_download",
		},
		{
			name:    "invalid log level",
			mutate:  func(s *Settings) { s.LogLevel = "verbose" },
			wantErr: errors.ErrInvalidLogLevel,
			errMsg:  "verbose",
		},
		{
			name:    "zero max concurrent",
			mutate:  func(s *Settings) { s.MaxConcurrent = 0 },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "max_concurrent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Settings)

			err := cfg.Validate()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestArtifactNames(t *testing.T) {
	tests := []struct {
		name      string
		artifacts []string
		validate  bool
		device    string
		want      []string
		wantErr   error
	}{
		{
			name:      "expands device",
			artifacts: []string{"phablet.zip", "system-armel+{device}.img", ""},
			validate:  true,
			device:    "mako",
			want:      []string{"phablet.zip", "system-armel+mako.img", ""},
		},
		{
			name:      "unknown device",
			artifacts: []string{"system-armel+{device}.img"},
			validate:  true,
			device:    "flo",
			wantErr:   errors.ErrUnknownDevice,
		},
		{
			name:      "unknown device without validation",
			artifacts: []string{"system-armel+{device}.img"},
			device:    "flo",
			want:      []string{"system-armel+flo.img"},
		},
		{
			name:      "missing device",
			artifacts: []string{"system-armel+{device}.img"},
			validate:  true,
			wantErr:   errors.ErrUnknownDevice,
		},
		{
			name:      "no templates",
			artifacts: []string{"rootfs.img.gz"},
			validate:  true,
			want:      []string{"rootfs.img.gz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Settings.Artifacts = tt.artifacts
			cfg.Settings.ValidateDevice = boolPtr(tt.validate)

			got, err := cfg.ArtifactNames(tt.device)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, fsutil.AppName, filepath.Base(filepath.Dir(path)))
}
