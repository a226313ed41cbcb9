package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"argon/internal/capture"
	"argon/internal/ir"
)

func newStageCmd(a *app) *cobra.Command {
	var (
		flags  batchFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "stage [flags] <file.go|directory>...",
		Short: "Capture staged functions and print their graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Output.Format
			}
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unsupported format %q (must be text, json or yaml)", format)
			}
			fs, results, err := a.runBatch(cmd, args, &flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := writeGraphs(out, results, format); err != nil {
				return err
			}
			failed, err := a.reportFailures(cmd.ErrOrStderr(), fs, results)
			if err != nil {
				return err
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "output format (text|json|yaml; default: [output].format)")
	return cmd
}

func writeGraphs(w io.Writer, results []*capture.Result, format string) error {
	var graphs []*ir.Graph
	for _, r := range results {
		if r != nil && !r.Failed() {
			graphs = append(graphs, r.Graph)
		}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(graphs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(graphs); err != nil {
			return err
		}
		return enc.Close()
	}
	multi := len(results) > 1
	for _, r := range results {
		if r == nil || r.Failed() {
			continue
		}
		if multi {
			if _, err := fmt.Fprintf(w, "== %s ==\n", r.Path); err != nil {
				return err
			}
		}
		if _, err := w.Write(r.HostOutput); err != nil {
			return err
		}
		if r.Root != nil {
			if err := ir.Dump(w, r.Root, r.State.Types()); err != nil {
				return err
			}
			continue
		}
		if err := r.Graph.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}
