package reconcile

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal/catalog"
	"github.com/turbolytics/thumbnailer/internal/config"
	"github.com/turbolytics/thumbnailer/internal/inventory"
	"github.com/turbolytics/thumbnailer/internal/reconciler"
	"github.com/turbolytics/thumbnailer/internal/source"
)

func NewCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconciles catalog CSV files with the current file system state",
		Long: `Reconciles catalog CSV files with a file system inventory and writes a
CSV of absolute image paths and their identifiers, sorted by path.

The inventory can be generated with:

  find /path/to/tifs -printf '"%P";"%Tc";"%s";\n' > filesystem.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := c.Logger.Resolve(cmd.Flags()); err != nil {
				return err
			}
			if err := c.Reconcile.Resolve(cmd.Flags()); err != nil {
				return err
			}
			if err := c.Reconcile.Validate(); err != nil {
				return err
			}

			logger, err := c.Logger.Build()
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("thumbnailer.reconcile")

			cmd.SilenceUsage = true
			_, err = Run(cmd.Context(), c.Reconcile, l)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringP("dir", "d", "", "A directory that contains CSV source files")
	cmd.Flags().StringP("csv", "c", "", "A CSV file from a file system traversal")
	cmd.Flags().StringP("path", "p", "", "The path supplied to the find command used to generate the file system CSV")
	cmd.Flags().StringP("output", "o", "", "A CSV file with the reconciled file system and IDs")
	cmd.Flags().String("ext", config.DefaultExtension, "Image file extension to reconcile")

	return cmd
}

// Run reconciles and writes the output CSV. Nothing is written unless
// every input could be read.
func Run(ctx context.Context, c config.Reconcile, l *zap.Logger) (reconciler.Result, error) {
	sources, err := source.CSVFiles(c.Dir)
	if err != nil {
		l.Error("not found", zap.String("dir", c.Dir), zap.Error(err))
		return reconciler.Result{}, err
	}

	store := catalog.New(catalog.WithLogger(l.Named("catalog")))
	if _, err := store.IngestAll(sources); err != nil {
		l.Error("error reading file", zap.Error(err))
		return reconciler.Result{}, err
	}

	l.Info("total unique images in CSV files",
		zap.Int("images", store.Len()),
		zap.Int("sources", len(sources)),
		zap.Int("duplicates", store.Count(catalog.EventDuplicate)),
		zap.Int("unable_to_insert", store.Count(catalog.EventUnableToInsert)),
	)

	if err := ctx.Err(); err != nil {
		return reconciler.Result{}, err
	}

	entries, err := inventory.Read(c.Inventory)
	if err != nil {
		l.Error("error reading file", zap.Error(err))
		return reconciler.Result{}, err
	}

	r := reconciler.New(c.Root,
		reconciler.WithExtension(c.Extension),
		reconciler.WithLogger(l.Named("reconciler")),
	)
	res := r.Reconcile(entries, store)

	if err := reconciler.WriteFile(c.Output, res.Entries); err != nil {
		l.Error("error writing file", zap.String("output", c.Output), zap.Error(err))
		return res, fmt.Errorf("writing %s: %w", c.Output, err)
	}

	l.Info("reconciled output written",
		zap.String("output", c.Output),
		zap.Int("rows", len(res.Entries)),
	)
	return res, nil
}
