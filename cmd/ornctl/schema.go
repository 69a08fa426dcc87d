package main

import "github.com/spf13/cobra"

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Describe the accepted features, time points and curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.openClient(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			s := client.Schema()
			if opts.format == formatJSON {
				return writeJSON(opts.out, s)
			}
			return printSchema(opts.out, s)
		},
	}
}
