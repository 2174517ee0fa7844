package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/internal/logger"
	"github.com/glorpus-work/phablet/pkg/config"
	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/hook"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify phablet configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(global),
		newConfigSetCmd(global),
		newConfigGetCmd(global),
		newConfigInitCmd(global),
		newConfigHookTemplateCmd(),
	)

	return cmd
}

func newConfigShowCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, global)
		},
	}

	return cmd
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration key to a specific value",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, global, args[0], args[1])
		},
	}

	return cmd
}

func newConfigGetCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, global, args[0])
		},
	}

	return cmd
}

func newConfigInitCmd(global *GlobalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, global, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func newConfigHookTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook-template",
		Short: "Print a post-download hook script template",
		Long: `Print a Tengo script to use as post_download hook. The script sees the
downloaded files, the staging directory and the base URI, and fails the
run by setting err.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			writef(cmd.OutOrStdout(), "%s\n", hook.HookTemplate(hook.PostDownload))
		},
	}

	return cmd
}

func runConfigShow(cmd *cobra.Command, global *GlobalOptions) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	writef(tabWriter, "SETTING\tVALUE\n")
	writef(tabWriter, "-------\t-----\n")

	settingsMap := cfg.ToMap()
	keys := make([]string, 0, len(settingsMap))
	for key := range settingsMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writef(tabWriter, "%s\t%s\n", key, settingsMap[key])
	}
	_ = tabWriter.Flush()

	writef(out, "\nArtifacts (%d):\n", len(cfg.Settings.Artifacts))
	for _, name := range cfg.Settings.Artifacts {
		if name == "" {
			name = "(skipped)"
		}
		writef(out, "  %s\n", name)
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, global *GlobalOptions, key, value string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	if err := cfg.SetValue(key, value); err != nil {
		return fmt.Errorf("failed to set configuration value: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, err := getConfigPath(global)
	if err != nil {
		return err
	}
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	log, err := newLogger(cmd, global, cfg)
	if err != nil {
		return err
	}
	logger.Success(log, "Configuration updated", logrus.Fields{"key": key, "value": value})
	return nil
}

func runConfigGet(cmd *cobra.Command, global *GlobalOptions, key string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return fmt.Errorf("failed to get configuration value: %w", err)
	}

	writef(cmd.OutOrStdout(), "%s\n", value)
	return nil
}

func runConfigInit(cmd *cobra.Command, global *GlobalOptions, force bool) error {
	configPath, err := getConfigPath(global)
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite): %w", configPath, errors.ErrConfigFileExists)
	}

	defaultConfig := config.DefaultConfig()
	if err := defaultConfig.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	log, err := newLogger(cmd, global, defaultConfig)
	if err != nil {
		return err
	}
	logger.Success(log, "Configuration file created", logrus.Fields{"path": configPath})
	return nil
}
