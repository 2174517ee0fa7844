package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the staged images",
		Long:  "Show information about and clean the staging directory used as local image cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(global),
		newCacheInfoCmd(global),
		newCacheDirCmd(global),
	)

	return cmd
}

func newCacheCleanCmd(global *GlobalOptions) *cobra.Command {
	var options cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged files",
		Long: `Remove staged files to free up disk space. Without flags every file is
removed. Removing compressed images keeps their decompressed copies, but the
next validated download fetches them again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, global, options)
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Remove all staged files")
	cmd.Flags().BoolVar(&options.Images, "images", false, "Remove uncompressed images")
	cmd.Flags().BoolVar(&options.Compressed, "compressed", false, "Remove compressed images")
	cmd.Flags().BoolVar(&options.Digests, "digests", false, "Remove digest files")

	return cmd
}

func newCacheInfoCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display the size of the staged images and digests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation(cmd, global)
			if err != nil {
				return err
			}
			info, err := op.GetInfo()
			if err != nil {
				return err
			}
			writef(cmd.OutOrStdout(), "%s\n", info)
			return nil
		},
	}

	return cmd
}

func newCacheDirCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show staging directory path",
		Long:  "Display the path to the staging directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation(cmd, global)
			if err != nil {
				return err
			}
			writef(cmd.OutOrStdout(), "%s\n", op.GetDirectory())
			return nil
		},
	}

	return cmd
}

func runCacheClean(cmd *cobra.Command, global *GlobalOptions, options cache.CleanOptions) error {
	op, err := newCacheOperation(cmd, global)
	if err != nil {
		return err
	}

	msg, err := op.Clean(options)
	if err != nil {
		return err
	}
	writef(cmd.OutOrStdout(), "%s\n", msg)
	return nil
}

func newCacheOperation(cmd *cobra.Command, global *GlobalOptions) (*cache.CacheOperation, error) {
	cfg, err := loadConfig(global)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, global, cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewCacheOperation(cache.NewManager(cfg.Settings.StagingDir), log), nil
}
