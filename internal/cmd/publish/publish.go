package publish

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal"
	"github.com/turbolytics/thumbnailer/internal/config"
	"github.com/turbolytics/thumbnailer/internal/iiif"
	"github.com/turbolytics/thumbnailer/internal/local"
	"github.com/turbolytics/thumbnailer/internal/pairtree"
	"github.com/turbolytics/thumbnailer/internal/progress"
	"github.com/turbolytics/thumbnailer/internal/publish"
	"github.com/turbolytics/thumbnailer/internal/s3"
	"github.com/turbolytics/thumbnailer/internal/source"
	"github.com/turbolytics/thumbnailer/internal/stdout"
	"github.com/turbolytics/thumbnailer/internal/thumbnail"
)

func NewCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Generates thumbnails from CSV job lists and publishes them to a pairtree",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := c.Logger.Resolve(cmd.Flags()); err != nil {
				return err
			}
			if err := c.Publish.Resolve(cmd.Flags()); err != nil {
				return err
			}
			if err := c.Publish.Validate(); err != nil {
				return err
			}

			logger, err := c.Logger.Build()
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("thumbnailer.publish")

			cmd.SilenceUsage = true
			_, err = Run(cmd.Context(), c.Publish, l)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringP("dir", "d", "", "A directory or file that contains CSV sources")
	cmd.Flags().StringP("size", "s", "", "A IIIF-formatted size string (e.g. '200,')")
	cmd.Flags().StringP("csv", "c", "", "A file of completed thumbnails; omit to disable resuming")
	cmd.Flags().StringP("bucket", "b", "", "An S3 bucket into which to store thumbnails")
	cmd.Flags().StringP("region", "r", config.DefaultRegion, "The region of the supplied S3 bucket")
	cmd.Flags().StringP("profile", "p", "", "An AWS profile which has permissions to the S3 bucket")
	cmd.Flags().String("endpoint", "", "S3 compatible endpoint URL")
	cmd.Flags().Bool("force-path-style", false, "Use path style S3 addressing")
	cmd.Flags().String("prefix", "", "Key prefix under which the pairtree is stored")
	cmd.Flags().String("repository", config.RepositoryS3, "Repository type (s3, local, stdout)")
	cmd.Flags().String("local-path", "", "Base directory for the local repository")
	cmd.Flags().Int("quality", config.DefaultQuality, "JPEG quality of the thumbnails (1-100)")
	cmd.Flags().String("report", "", "Write a JSON report of the run to this file")
	cmd.Flags().String("status-addr", "", "Serve run status over HTTP on this address (e.g. ':8080')")

	return cmd
}

func newRepository(c config.Publish, l *zap.Logger) (internal.Repository, string, error) {
	switch c.Repository {
	case config.RepositoryLocal:
		repo := local.New(
			c.LocalPath,
			local.WithPrefix(c.Prefix),
			local.WithLogger(l.Named("local")),
		)
		return repo, "file://" + c.LocalPath, nil
	case config.RepositoryStdout:
		return stdout.New(stdout.WithPrefix(c.Prefix)), "stdout", nil
	case config.RepositoryS3:
		repo, err := s3.New(
			s3.WithLogger(l.Named("s3")),
			s3.WithRegion(c.Region),
			s3.WithBucket(c.Bucket),
			s3.WithPrefix(c.Prefix),
			s3.WithEndpoint(c.Endpoint),
			s3.WithForcePathStyle(c.ForcePathStyle),
			s3.WithProfile(c.Profile),
		)
		if err != nil {
			return nil, "", err
		}
		return repo, "s3://" + c.Bucket, nil
	}
	return nil, "", fmt.Errorf("unknown repository type: %s", c.Repository)
}

// Run publishes a thumbnail for every job that is not yet in the progress
// log. Failed jobs are reported and left for the next run.
func Run(ctx context.Context, c config.Publish, l *zap.Logger) (publish.Stats, error) {
	size, err := iiif.ParseSize(c.Size)
	if err != nil {
		l.Error("invalid thumbnail size supplied", zap.String("size", c.Size))
		return publish.Stats{}, err
	}

	sources, err := source.CSVFiles(c.Dir)
	if err != nil {
		l.Error("not found", zap.String("dir", c.Dir), zap.Error(err))
		return publish.Stats{}, err
	}

	jobs, err := publish.LoadJobs(sources, l)
	if err != nil {
		l.Error("error reading file", zap.Error(err))
		return publish.Stats{}, err
	}

	repository, destination, err := newRepository(c, l)
	if err != nil {
		return publish.Stats{}, err
	}

	progressPath := c.Progress
	if c.Repository == config.RepositoryStdout {
		progressPath = ""
	}
	tracker, err := progress.Open(progressPath, progress.WithLogger(l.Named("progress")))
	if err != nil {
		l.Error("error reading file", zap.Error(err))
		return publish.Stats{}, err
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			l.Error("closing progress log", zap.Error(err))
		}
	}()

	p, err := publish.New(
		publish.WithLogger(l),
		publish.WithTracker(tracker),
		publish.WithTransformer(thumbnail.New(
			thumbnail.WithLogger(l.Named("thumbnail")),
			thumbnail.WithQuality(c.Quality),
		)),
		publish.WithRepository(repository),
		publish.WithEncoder(pairtree.New("")),
		publish.WithSize(size),
		publish.WithACL(internal.ACLPublicRead),
	)
	if err != nil {
		return publish.Stats{}, err
	}

	if c.StatusAddr != "" {
		sctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := publish.NewServer(l.Named("status"), p)
		go func() {
			if err := s.Start(sctx, c.StatusAddr); err != nil {
				l.Error("status server error", zap.Error(err))
			}
		}()
	}

	runID := uuid.Must(uuid.NewRandom())
	l.Info("publishing thumbnails",
		zap.String("run_id", runID.String()),
		zap.String("destination", destination),
		zap.Int("sources", len(sources)),
	)

	stats, runErr := p.Run(ctx, jobs)

	if c.Report != "" {
		report := publish.NewReport(runID, stats, p.Failures())
		report.Sources = sources
		report.Destination = destination
		report.Size = size.String()
		if err := report.WriteFile(c.Report); err != nil {
			l.Error("error writing report", zap.String("report", c.Report), zap.Error(err))
			if runErr == nil {
				runErr = err
			}
		}
	}

	return stats, runErr
}
