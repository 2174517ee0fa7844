package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/pkg/catalog"
)

// NewRevisionsCmd creates the revisions command.
func NewRevisionsCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revisions [URI]",
		Short: "List the releases and revisions on the image server",
		Long: `List every release published on the image server together with its
revisions, newest first. URI defaults to the configured catalog_uri.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevisions(cmd, global, args)
		},
	}

	return cmd
}

func runRevisions(cmd *cobra.Command, global *GlobalOptions, args []string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, global, cfg)
	if err != nil {
		return err
	}

	uri := cfg.Settings.CatalogURI
	if len(args) == 1 {
		uri = args[0]
	}

	client := catalog.NewClient(cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent, cfg.Settings.MaxConcurrent, log)
	releases, err := client.Available(cmd.Context(), uri)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range releases {
		if len(r.Revisions) == 0 {
			log.WithField("release", r.Name).Warn("No revisions available")
			continue
		}
		for _, rev := range r.Revisions {
			writef(out, "%s/%s\n", r.Name, rev)
		}
	}
	return nil
}
