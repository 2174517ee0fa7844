package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/internal/logger"
	"github.com/glorpus-work/phablet/pkg/checksum"
	"github.com/glorpus-work/phablet/pkg/config"
	"github.com/glorpus-work/phablet/pkg/hook"
	"github.com/glorpus-work/phablet/pkg/transport"
)

// GlobalOptions holds the persistent flags of the root command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// loadConfig loads the configuration from the --config path or the default location.
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	path, err := getConfigPath(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func getConfigPath(opts *GlobalOptions) (string, error) {
	if opts != nil && opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get default config path: %w", err)
	}
	return path, nil
}

// newLogger builds the command logger; --verbose overrides the configured level.
func newLogger(cmd *cobra.Command, opts *GlobalOptions, cfg *config.Config) (*logrus.Logger, error) {
	level := cfg.Settings.LogLevel
	if opts.Verbose {
		level = logrus.DebugLevel.String()
	}
	return logger.New(level, opts.NoColor, cmd.ErrOrStderr())
}

// newFetcher builds the transport selected by the configuration.
func newFetcher(s config.Settings) transport.Fetcher {
	if s.Transport == config.TransportCommand {
		base := s.Commands.BaseFetch
		if base == "" {
			base = transport.DefaultBaseCommand
		}
		other := s.Commands.OtherFetch
		if other == "" {
			other = transport.DefaultOtherCommand
		}
		return transport.NewRouter(s.BaseHost, transport.NewCommand(base), transport.NewCommand(other))
	}
	return transport.NewHTTP(s.HTTPTimeout, s.UserAgent)
}

// newVerifier builds the checksum verifier selected by the configuration.
func newVerifier(s config.Settings) checksum.Verifier {
	if s.Checksum == config.ChecksumCommand {
		return checksum.NewCommand(s.Commands.Checksum)
	}
	return checksum.NewMD5Sum()
}

// newHooks loads the configured hook scripts. It returns nil when none are configured.
func newHooks(s config.Settings) (hook.HookManager, error) {
	if s.Hooks.PostDownload == "" {
		return nil, nil
	}
	m := hook.NewHookManager()
	if err := hook.LoadHookFile(m, hook.PostDownload, s.Hooks.PostDownload); err != nil {
		return nil, err
	}
	return m, nil
}

func writef(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
