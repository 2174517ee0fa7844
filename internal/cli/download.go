package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/phablet/internal/logger"
	"github.com/glorpus-work/phablet/pkg/download"
	"github.com/glorpus-work/phablet/pkg/fsutil"
	"github.com/glorpus-work/phablet/pkg/metrics"
)

type downloadOptions struct {
	device      string
	uri         string
	stagingDir  string
	offline     bool
	noValidate  bool
	metricsFile string
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd(global *GlobalOptions) *cobra.Command {
	opts := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download [ARTIFACT...]",
		Short: "Download and verify device images",
		Long: `Download the images for a device into the staging directory, verify each
one against its .md5sum digest and decompress compressed images.

Artifacts already downloaded and valid are not fetched again. With --offline
only the staged files are used and nothing is fetched.

Artifact names given as arguments replace the configured list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.device, "device", "d", "", "target device (e.g. mako)")
	cmd.Flags().StringVar(&opts.uri, "uri", "", "base URI to download from (overrides download_uri)")
	cmd.Flags().StringVar(&opts.stagingDir, "staging-dir", "", "directory holding the images (overrides staging_dir)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use only the staged images")
	cmd.Flags().BoolVar(&opts.noValidate, "no-validate", false, "skip digest verification")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this file in the Prometheus text format")

	return cmd
}

func runDownload(cmd *cobra.Command, global *GlobalOptions, opts *downloadOptions, args []string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	s := &cfg.Settings
	if opts.uri != "" {
		s.DownloadURI = opts.uri
	}
	if opts.stagingDir != "" {
		s.StagingDir = opts.stagingDir
	}
	if opts.offline {
		s.Offline = true
	}
	validate := s.ShouldValidate() && !opts.noValidate

	log, err := newLogger(cmd, global, cfg)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		if names, err = cfg.ArtifactNames(opts.device); err != nil {
			return err
		}
	}

	if !s.Offline {
		if err := fsutil.EnsureDir(s.StagingDir); err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
	}

	hooks, err := newHooks(*s)
	if err != nil {
		return err
	}

	var (
		mt  metrics.Metrics = metrics.Noop{}
		reg *prometheus.Registry
	)
	if opts.metricsFile != "" {
		reg = prometheus.NewRegistry()
		prom, err := metrics.NewProm(metricsNamespace, reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		mt = prom
	}

	m, err := download.New(s.DownloadURI, s.StagingDir, names, s.Offline,
		download.WithTransport(newFetcher(*s)),
		download.WithVerifier(newVerifier(*s)),
		download.WithLogger(log),
		download.WithMetrics(mt),
		download.WithHooks(hooks),
		download.WithLockTimeout(s.LockTimeout),
	)
	if err != nil {
		return err
	}

	runErr := m.Download(cmd.Context(), validate)

	if reg != nil {
		if err := metrics.WriteTextfile(opts.metricsFile, reg); err != nil {
			log.WithError(err).WithField("path", opts.metricsFile).Warn("Failed to write metrics")
		}
	}
	if runErr != nil {
		return runErr
	}

	files := m.Files()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	writef(tw, "ARTIFACT\tPATH\n")
	for _, name := range files.Names() {
		path, _ := files.Get(name)
		writef(tw, "%s\t%s\n", name, path)
	}
	_ = tw.Flush()

	logger.Success(log, "Images ready", logrus.Fields{"artifacts": files.Len(), "path": s.StagingDir})
	return nil
}
