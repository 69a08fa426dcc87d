package main

import (
	"github.com/spf13/cobra"

	ornprog "github.com/fmhr12/ORN-Prognosis/pkg/sdk"
)

func featuresFlag(cmd *cobra.Command, dst *map[string]string) {
	cmd.Flags().StringToStringVarP(dst, "feature", "f", nil,
		"patient features as name=value pairs (repeatable, comma-separated)")
	_ = cmd.MarkFlagRequired("feature")
}

func toFeatures(raw map[string]string) ornprog.Features {
	in := make(ornprog.Features, len(raw))
	for k, v := range raw {
		in[k] = v
	}
	return in
}

func newExplainCmd(opts *rootOptions) *cobra.Command {
	var (
		features  map[string]string
		timePoint string
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Decompose a prediction into per-feature contributions",
		Long: `Explain interpolates precomputed attributions from the three nearest
reference cases and adds an "unattributed" term so that the baseline plus all
contributions equals the model's prediction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := opts.openClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			e, err := client.Explain(ctx, toFeatures(features), timePoint)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors are prefixed
			}
			if opts.format == formatJSON {
				return writeJSON(opts.out, e)
			}
			return printExplanation(opts.out, e)
		},
	}
	featuresFlag(cmd, &features)
	cmd.Flags().StringVarP(&timePoint, "time", "t", "", "explanation time point (default: config default)")
	return cmd
}
