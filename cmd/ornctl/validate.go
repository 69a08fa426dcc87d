package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/fmhr12/ORN-Prognosis/internal/app"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every artifact and report problems",
		Long: `Validate checks the config, then loads the model, the grid and every reference
curve exactly as the server does at startup. It exits non-zero on the first
artifact that fails to load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				for _, e := range multierr.Errors(err) {
					fmt.Fprintln(opts.errOut, "config:", e)
				}
				return fmt.Errorf("invalid config")
			}

			appOpts, err := app.OptionsFromConfig(cfg)
			if err != nil {
				return err //nolint:wrapcheck // names the config key
			}
			art, err := app.Load(cmd.Context(), appOpts)
			if err != nil {
				return err //nolint:wrapcheck // names the artifact
			}
			if err := art.CheckArtifacts(); err != nil {
				return err //nolint:wrapcheck // already descriptive
			}

			st := art.Stats()
			if opts.format == formatJSON {
				return writeJSON(opts.out, st)
			}

			fmt.Fprintf(opts.out, "OK  model %s (causes %v), version %s\n", st.Model, st.Causes, st.Version)
			fmt.Fprintf(opts.out, "OK  grid: %d rows, %d features, time points %v\n", st.GridRows, st.Features, st.Tags)
			fmt.Fprintf(opts.out, "    attributed: %v\n", st.Attributable)
			tw := newTab(opts.out)
			for _, c := range st.Curves {
				fmt.Fprintf(tw, "OK  curve %s\t%d points\t%g..%g months\tfinal %.4f\n",
					c.Name, c.Points, c.First, c.Last, c.Final)
			}
			return tw.Flush() //nolint:wrapcheck // terminal output
		},
	}
}
