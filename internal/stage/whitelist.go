package stage

import (
	"fmt"
	"io"
	"strings"

	"argon/internal/ir"
	"argon/internal/source"
)

// HostFunc runs eagerly at stage time with the staged arguments.
type HostFunc func(fr *Frame, span source.Span, args []*ir.Sym) (*ir.Sym, error)

// Whitelist holds the calls that execute directly instead of being staged.
type Whitelist struct {
	funcs map[string]HostFunc
}

func NewWhitelist() *Whitelist {
	return &Whitelist{funcs: make(map[string]HostFunc)}
}

// DefaultWhitelist registers print and println writing to w.
func DefaultWhitelist(w io.Writer) *Whitelist {
	wl := NewWhitelist()
	wl.Register("print", Printer(w, false))
	wl.Register("println", Printer(w, true))
	return wl
}

func (w *Whitelist) Register(name string, fn HostFunc) {
	w.funcs[name] = fn
}

func (w *Whitelist) Contains(name string) bool {
	_, ok := w.funcs[name]
	return ok
}

func (w *Whitelist) Lookup(name string) (HostFunc, bool) {
	fn, ok := w.funcs[name]
	return fn, ok
}

// Printer writes the operand form of its arguments. Staged values print
// as %id, constants as literals.
func Printer(w io.Writer, newline bool) HostFunc {
	return func(fr *Frame, _ source.Span, args []*ir.Sym) (*ir.Sym, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		line := strings.Join(parts, " ")
		if newline {
			line += "\n"
		}
		if _, err := fmt.Fprint(w, line); err != nil {
			return nil, err
		}
		return ir.Null(fr.st.Types()), nil
	}
}
