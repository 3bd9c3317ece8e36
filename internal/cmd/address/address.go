package address

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turbolytics/thumbnailer/internal/iiif"
	"github.com/turbolytics/thumbnailer/internal/pairtree"
)

func NewCommand() *cobra.Command {
	var (
		size   string
		prefix string
		decode bool
	)

	cmd := &cobra.Command{
		Use:   "address ID...",
		Short: "Prints the pairtree storage key of each identifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := ""
			if size != "" {
				s, err := iiif.ParseSize(size)
				if err != nil {
					return err
				}
				resource = iiif.NewRequest("", s).Path()
			}

			cmd.SilenceUsage = true
			encoder := pairtree.New(prefix)
			out := cmd.OutOrStdout()
			for _, arg := range args {
				var (
					line string
					err  error
				)
				if decode {
					line, err = encoder.Decode(arg, resource)
				} else {
					line, err = encoder.Key(arg, resource)
				}
				if err != nil {
					return fmt.Errorf("%q: %w", arg, err)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&size, "size", "s", "", "Append the request path of a IIIF size (e.g. '200,')")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix under which the pairtree is stored")
	cmd.Flags().BoolVar(&decode, "decode", false, "Treat arguments as keys and print their identifiers")
	return cmd
}
