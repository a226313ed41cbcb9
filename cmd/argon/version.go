package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"argon/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		format string
		full   bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show argon build metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Collect()
			if !full {
				info.GitCommit, info.BuildDate = "", ""
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "pretty":
				return renderVersionPretty(out, info, full)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				return yaml.NewEncoder(out).Encode(info)
			default:
				return fmt.Errorf("unsupported format %q (must be pretty, json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json|yaml)")
	cmd.Flags().BoolVar(&full, "full", false, "include commit and build date")
	return cmd
}

func renderVersionPretty(out io.Writer, info version.Info, full bool) error {
	if _, err := fmt.Fprintf(out, "argon %s\n", version.Colored(info.Version)); err != nil {
		return err
	}
	if !full {
		return nil
	}
	_, err := fmt.Fprintf(out, "commit: %s\nbuilt:  %s\n", orUnknown(info.GitCommit), orUnknown(info.BuildDate))
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
