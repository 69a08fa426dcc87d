package main

import (
	"github.com/spf13/cobra"
)

func newCurveCmd(opts *rootOptions) *cobra.Command {
	var (
		features map[string]string
		times    string
		dense    bool
	)
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Tabulate the cumulative incidence curve",
		Long: `Curve evaluates the model at comma-separated query times. Entries that are
not non-negative numbers are skipped; with none left, 60 months is used.
With --dense the full display grid is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := opts.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			in := toFeatures(features)
			if dense {
				pts, err := client.Curve(ctx, in)
				if err != nil {
					return err //nolint:wrapcheck // SDK errors are prefixed
				}
				if opts.format == formatJSON {
					return writeJSON(opts.out, pts)
				}
				return printPoints(opts.out, pts)
			}

			rows, err := client.Table(ctx, in, times)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors are prefixed
			}
			if opts.format == formatJSON {
				return writeJSON(opts.out, rows)
			}
			return printRows(opts.out, rows)
		},
	}
	featuresFlag(cmd, &features)
	cmd.Flags().StringVar(&times, "times", "", `query times in months, e.g. "12, 24, 60"`)
	cmd.Flags().BoolVar(&dense, "dense", false, "print the dense display grid")
	return cmd
}
