package diagfmt

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"argon/internal/diag"
	"argon/internal/source"
)

// Location is a span in the structured formats.
type Location struct {
	File      string `json:"file" yaml:"file"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" yaml:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" yaml:"end_col,omitempty"`
}

// Note is a secondary message.
type Note struct {
	Message  string   `json:"message" yaml:"message"`
	Location Location `json:"location" yaml:"location"`
}

// Diagnostic is one structured diagnostic.
type Diagnostic struct {
	Severity string   `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Title    string   `json:"title" yaml:"title"`
	Message  string   `json:"message" yaml:"message"`
	Location Location `json:"location" yaml:"location"`
	Notes    []Note   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Output is the root of the structured formats.
type Output struct {
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Count       int          `json:"count" yaml:"count"`
}

func location(span source.Span, fs *source.FileSet, opts Opts) Location {
	loc := Location{
		File:      formatPath(fs.Get(span.File), opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		start, end := fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// Build converts bag into an Output without serializing it.
func Build(bag *diag.Bag, fs *source.FileSet, opts Opts) Output {
	items := bag.Items()
	out := Output{Diagnostics: make([]Diagnostic, 0, limit(len(items), opts.Max))}
	for _, d := range items[:limit(len(items), opts.Max)] {
		dj := Diagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: location(d.Primary, fs, opts),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, Note{Message: n.Msg, Location: location(n.Span, fs, opts)})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes bag as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Opts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(bag, fs, opts))
}

// YAML writes bag as a YAML document.
func YAML(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Opts) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Build(bag, fs, opts)); err != nil {
		return err
	}
	return enc.Close()
}
