// Package diagfmt renders diagnostic bags for people and for tools.
package diagfmt

import (
	"path/filepath"

	"argon/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths as they were loaded.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	// Max limits the number of diagnostics printed; 0 prints all.
	Max int
}

// Opts configures the structured formats.
type Opts struct {
	IncludePositions bool
	IncludeNotes     bool
	PathMode         PathMode
	Max              int
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

func formatPath(f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil && f.Flags&source.FileVirtual == 0 {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.Path
}

func limit(n, max int) int {
	if max > 0 && max < n {
		return max
	}
	return n
}
