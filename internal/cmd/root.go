package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turbolytics/thumbnailer/internal/cmd/address"
	"github.com/turbolytics/thumbnailer/internal/cmd/publish"
	"github.com/turbolytics/thumbnailer/internal/cmd/reconcile"
)

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "thumbnailer",
		Short: "Reconciles image catalogs and publishes IIIF thumbnails to a pairtree",
		Long: `thumbnailer merges catalog CSVs with a file system inventory into an
identifier mapping, and generates thumbnails for that mapping into an S3
bucket (or local directory) laid out as a pairtree.`,
		SilenceErrors: true,
	}

	cmd.AddCommand(reconcile.NewCommand())
	cmd.AddCommand(publish.NewCommand())
	cmd.AddCommand(address.NewCommand())

	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
