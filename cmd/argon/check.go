package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"argon/internal/diagfmt"
	"argon/internal/version"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		flags  batchFlags
		format string
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "check [flags] <file.go|directory>...",
		Short: "Rewrite, stage and validate files without printing graphs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "pretty", "json", "yaml", "sarif":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty, json, yaml or sarif)", format)
			}
			fs, results, err := a.runBatch(cmd, args, &flags)
			if err != nil {
				return err
			}
			bag := mergeBags(results, a.cfg.Stage.MaxDiagnostics*max(1, len(results)))
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				err = diagfmt.JSON(out, bag, fs, diagfmt.Opts{IncludePositions: true, IncludeNotes: true})
			case "yaml":
				err = diagfmt.YAML(out, bag, fs, diagfmt.Opts{IncludePositions: true, IncludeNotes: true})
			case "sarif":
				err = diagfmt.Sarif(out, bag, fs, diagfmt.SarifRunMeta{
					ToolName:       "argon",
					ToolVersion:    version.Collect().Version,
					InvocationArgs: append([]string{"check"}, args...),
				})
			default:
				err = diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{Color: a.color, ShowNotes: true})
			}
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r != nil && r.Failed() {
					failed++
				}
			}
			if format == "pretty" && !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "checked %d files, %d failed\n", len(results), failed)
			}
			if failed > 0 {
				return errReported
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json|yaml|sarif)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the summary line")
	return cmd
}
