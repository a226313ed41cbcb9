package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"argon/internal/diag"
	"argon/internal/source"
)

// Pretty writes each diagnostic of bag as
//
//	path:line:col: error[CODE]: message
//	   12 | source line
//	      |     ^~~~
//
// followed by its notes when opts.ShowNotes is set. bag should be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := &prettyPrinter{w: w, fs: fs, opts: opts}
	p.setupColors()
	items := bag.Items()
	for _, d := range items[:limit(len(items), opts.Max)] {
		p.diagnostic(d)
	}
	if hidden := len(items) - limit(len(items), opts.Max); hidden > 0 {
		p.printf("... and %d more\n", hidden)
	}
	return p.err
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	err  error

	sev   map[diag.Severity]*color.Color
	loc   *color.Color
	gut   *color.Color
	caret *color.Color
}

func (p *prettyPrinter) setupColors() {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if p.opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	p.sev = map[diag.Severity]*color.Color{
		diag.SevError:   mk(color.FgRed, color.Bold),
		diag.SevWarning: mk(color.FgYellow, color.Bold),
		diag.SevInfo:    mk(color.FgCyan, color.Bold),
	}
	p.loc = mk(color.Bold)
	p.gut = mk(color.FgBlue)
	p.caret = mk(color.FgRed, color.Bold)
}

func (p *prettyPrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *prettyPrinter) diagnostic(d diag.Diagnostic) {
	head := p.sev[d.Severity].Sprintf("%s[%s]", d.Severity, d.Code.ID())
	if d.Primary == source.NoSpan {
		p.printf("%s: %s\n", head, d.Message)
		return
	}
	p.printf("%s: %s: %s\n", p.loc.Sprint(p.position(d.Primary)), head, d.Message)
	p.snippet(d.Primary)
	if !p.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		p.printf("  %s: note: %s\n", p.position(n.Span), n.Msg)
		p.snippet(n.Span)
	}
}

func (p *prettyPrinter) position(span source.Span) string {
	f := p.fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := p.fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, p.opts.PathMode), start.Line, start.Col)
}

// snippet prints the first line of span with a caret underline. Columns
// are measured in display cells so wide runes stay aligned.
func (p *prettyPrinter) snippet(span source.Span) {
	f := p.fs.Get(span.File)
	if f == nil || span == source.NoSpan {
		return
	}
	start, end := p.fs.Resolve(span)
	line := strings.TrimRight(f.GetLine(start.Line), "\r")
	if line == "" {
		return
	}
	num := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(num))
	p.printf(" %s %s %s\n", p.gut.Sprint(num), p.gut.Sprint("|"), line)

	from := int(start.Col) - 1
	to := len(line)
	if end.Line == start.Line && int(end.Col)-1 > from {
		to = min(int(end.Col)-1, len(line))
	}
	from = min(from, len(line))
	indent := runewidth.StringWidth(line[:from])
	width := max(1, runewidth.StringWidth(line[from:to]))
	mark := "^" + strings.Repeat("~", width-1)
	p.printf(" %s %s %s%s\n", pad, p.gut.Sprint("|"), strings.Repeat(" ", indent), p.caret.Sprint(mark))
}
