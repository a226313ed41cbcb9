package ir

import (
	"io"
	"strings"

	"argon/internal/types"
)

// Graph is the serialisable form of a captured block. It is what the
// capture cache stores and what `argon stage --format json|yaml` prints.
type Graph struct {
	Name string      `json:"name" yaml:"name" msgpack:"name"`
	Root BlockRecord `json:"root" yaml:"root" msgpack:"root"`
}

// BlockRecord mirrors Block.
type BlockRecord struct {
	Role   string       `json:"role" yaml:"role" msgpack:"role"`
	Inputs []string     `json:"inputs,omitempty" yaml:"inputs,omitempty" msgpack:"inputs,omitempty"`
	Stmts  []NodeRecord `json:"stmts,omitempty" yaml:"stmts,omitempty" msgpack:"stmts,omitempty"`
	Result string       `json:"result,omitempty" yaml:"result,omitempty" msgpack:"result,omitempty"`
}

// NodeRecord mirrors one statement.
type NodeRecord struct {
	ID     uint32        `json:"id" yaml:"id" msgpack:"id"`
	Kind   string        `json:"kind" yaml:"kind" msgpack:"kind"`
	Op     string        `json:"op,omitempty" yaml:"op,omitempty" msgpack:"op,omitempty"`
	Name   string        `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Type   string        `json:"type" yaml:"type" msgpack:"type"`
	Args   []string      `json:"args,omitempty" yaml:"args,omitempty" msgpack:"args,omitempty"`
	Blocks []BlockRecord `json:"blocks,omitempty" yaml:"blocks,omitempty" msgpack:"blocks,omitempty"`
}

// Export converts b into a Graph named name.
func Export(name string, b *Block, in *types.Interner) *Graph {
	return &Graph{Name: name, Root: exportBlock("block", b, in)}
}

func exportBlock(role string, b *Block, in *types.Interner) BlockRecord {
	rec := BlockRecord{Role: role, Inputs: symStrings(b.Inputs)}
	if b.Result != nil {
		rec.Result = b.Result.String()
	}
	for _, s := range b.Stmts {
		rec.Stmts = append(rec.Stmts, exportStmt(s, in))
	}
	return rec
}

func exportStmt(s *Sym, in *types.Interner) NodeRecord {
	id, _ := s.ID()
	n := NodeRecord{ID: uint32(id), Kind: s.Def.Kind.String(), Type: in.Name(s.Type)}
	if s.IsBound() {
		n.Name = s.Def.Name
		return n
	}
	op := s.Op()
	n.Op = op.Name()
	switch o := op.(type) {
	case *FunctionNew:
		n.Name = o.Func
	case *Undefined:
		n.Name = o.Var
	}
	if nest, ok := op.(Nester); ok {
		for _, nb := range nest.Blocks() {
			n.Blocks = append(n.Blocks, exportBlock(nb.Role, nb.Block, in))
		}
	} else {
		n.Args = symStrings(op.Inputs())
	}
	return n
}

func symStrings(syms []*Sym) []string {
	if len(syms) == 0 {
		return nil
	}
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.String()
	}
	return out
}

// Count returns the number of statements in the graph, nested included.
func (g *Graph) Count() int {
	return countBlock(&g.Root)
}

func countBlock(b *BlockRecord) int {
	n := len(b.Stmts)
	for i := range b.Stmts {
		for j := range b.Stmts[i].Blocks {
			n += countBlock(&b.Stmts[i].Blocks[j])
		}
	}
	return n
}

// WriteText renders g in the same layout as Dump, so a graph loaded from
// the capture cache prints identically to a freshly staged block.
func (g *Graph) WriteText(w io.Writer) error {
	p := &printer{w: w}
	p.record(&g.Root, 0)
	return p.err
}

func (p *printer) record(b *BlockRecord, depth int) {
	p.printf(depth, "%s(%s) {", b.Role, strings.Join(b.Inputs, ", "))
	for i := range b.Stmts {
		n := &b.Stmts[i]
		if n.Kind == DefBound.String() {
			p.printf(depth+1, "%%%d = bound %s : %s", n.ID, n.Name, n.Type)
			continue
		}
		head := n.Op
		if n.Name != "" {
			head += " @" + n.Name
		}
		if len(n.Args) > 0 {
			head += " " + strings.Join(n.Args, ", ")
		}
		p.printf(depth+1, "%%%d = %s : %s", n.ID, head, n.Type)
		for j := range n.Blocks {
			p.record(&n.Blocks[j], depth+2)
		}
	}
	if b.Result != "" {
		p.printf(depth+1, "yield %s", b.Result)
	}
	p.printf(depth, "}")
}
