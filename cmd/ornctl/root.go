package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fmhr12/ORN-Prognosis/internal/config"
	"github.com/fmhr12/ORN-Prognosis/internal/version"
	ornprog "github.com/fmhr12/ORN-Prognosis/pkg/sdk"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

type rootOptions struct {
	configPath string
	env        string
	format     string
	cause      int
	verbose    bool

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "ornctl",
		Short: "Query the ORN prognosis model and inspect its artifacts",
		Long: `ornctl loads the Fine-Gray model, the reference grid and the reference
curves named in a service config and answers queries in process.

Examples:
  ornctl explain -f Age=61,Smoking=Former,Dmean=48.5,Extraction=Yes,Chemotherapy=No
  ornctl curve --times "12, 24, 60" -f Age=61,... --format json
  ornctl validate --config config/prod.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.format != formatText && opts.format != formatJSON {
				return fmt.Errorf("unknown format %q (use %s or %s)", opts.format, formatText, formatJSON)
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default: config/<env>.yaml)")
	pf.StringVar(&opts.env, "env", config.GetEnv(), "environment used to locate the config file")
	pf.StringVarP(&opts.format, "format", "o", formatText, "output format (text, json)")
	pf.IntVar(&opts.cause, "cause", 0, "competing-risk cause (default: config default)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log operations to stderr")

	cmd.AddCommand(
		newExplainCmd(opts),
		newCurveCmd(opts),
		newSchemaCmd(opts),
		newValidateCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath) //nolint:wrapcheck // names the file
	}
	return config.Load(o.env) //nolint:wrapcheck // names the file
}

func (o *rootOptions) openClient(ctx context.Context) (*ornprog.Client, error) {
	var sdkOpts []ornprog.Option
	if o.configPath != "" {
		sdkOpts = append(sdkOpts, ornprog.WithConfigFile(o.configPath))
	} else {
		sdkOpts = append(sdkOpts, ornprog.WithEnv(o.env))
	}
	if o.cause > 0 {
		sdkOpts = append(sdkOpts, ornprog.WithCause(o.cause))
	}
	if o.verbose {
		sdkOpts = append(sdkOpts, ornprog.WithLogger(
			slog.New(slog.NewTextHandler(o.errOut, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	return ornprog.Open(ctx, sdkOpts...) //nolint:wrapcheck // SDK errors are prefixed
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(opts.out, "ornctl", version.String())
		},
	}
}
