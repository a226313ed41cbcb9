package ir

import (
	"fmt"
	"io"
	"strings"

	"argon/internal/types"
)

// Dump writes a human-readable rendering of b and every nested block.
func Dump(w io.Writer, b *Block, in *types.Interner) error {
	if w == nil || b == nil {
		return nil
	}
	p := &printer{w: w, in: in}
	p.block("block", b, 0)
	return p.err
}

// DumpString is Dump into a string.
func DumpString(b *Block, in *types.Interner) string {
	var sb strings.Builder
	_ = Dump(&sb, b, in)
	return sb.String()
}

type printer struct {
	w   io.Writer
	in  *types.Interner
	err error
}

func (p *printer) printf(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s"+format+"\n", append([]any{strings.Repeat("  ", depth)}, args...)...)
}

func (p *printer) block(role string, b *Block, depth int) {
	p.printf(depth, "%s(%s) {", role, joinSyms(b.Inputs))
	for _, s := range b.Stmts {
		p.stmt(s, depth+1)
	}
	if b.Result != nil {
		p.printf(depth+1, "yield %s", b.Result)
	}
	p.printf(depth, "}")
}

func (p *printer) stmt(s *Sym, depth int) {
	typ := p.typeName(s.Type)
	if s.IsBound() {
		p.printf(depth, "%s = bound %s : %s", s, s.Def.Name, typ)
		return
	}
	op := s.Op()
	if op == nil {
		p.printf(depth, "%s = ? : %s", s, typ)
		return
	}
	head := op.Name()
	switch o := op.(type) {
	case *FunctionNew:
		head += " @" + o.Func
	case *Undefined:
		head += " @" + o.Var
	}
	if args := op.Inputs(); len(args) > 0 {
		if _, nested := op.(Nester); !nested {
			head += " " + joinSyms(args)
		}
	}
	p.printf(depth, "%s = %s : %s", s, head, typ)
	if n, ok := op.(Nester); ok {
		for _, nb := range n.Blocks() {
			p.block(nb.Role, nb.Block, depth+1)
		}
	}
}

func (p *printer) typeName(id types.TypeID) string {
	if p.in == nil {
		return fmt.Sprintf("t%d", id)
	}
	return p.in.Name(id)
}

func joinSyms(syms []*Sym) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}
