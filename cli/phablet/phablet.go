package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	opts := &cli.GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "phablet",
		Short: "Fetch and verify device images for flashing",
		Long: `phablet acquires the images needed to provision a device:
- download: fetch, verify and decompress images into a staging directory
- revisions: list the releases published on the image server
- cache: inspect and clean the staged images
- config: inspect and change settings`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		cli.NewDownloadCmd(opts),
		cli.NewRevisionsCmd(opts),
		cli.NewCacheCmd(opts),
		cli.NewConfigCmd(opts),
		cli.NewVersionCmd(),
	)

	return cmd
}
