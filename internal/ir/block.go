package ir

import "slices"

// Block is a captured sub-graph: free inputs, ordered statements, result.
type Block struct {
	Inputs []*Sym
	Stmts  []*Sym
	Result *Sym
}

// NewBlock builds a block from the log of a scope and computes its inputs.
func NewBlock(stmts []*Sym, result *Sym) *Block {
	b := &Block{Stmts: stmts, Result: result}
	b.Inputs = computeInputs(stmts, result)
	return b
}

// computeInputs returns every non-const operand referenced by stmts (and
// the result) whose id is not defined by stmts, deduplicated and ordered
// by id. Merge ops are not traversed.
func computeInputs(stmts []*Sym, result *Sym) []*Sym {
	defined := make(map[ID]struct{}, len(stmts))
	for _, s := range stmts {
		if id, ok := s.ID(); ok {
			defined[id] = struct{}{}
		}
	}

	seen := make(map[ID]*Sym)
	visit := func(s *Sym) {
		id, ok := s.ID()
		if !ok {
			return
		}
		if _, in := defined[id]; in {
			return
		}
		seen[id] = s
	}
	for _, s := range stmts {
		op := s.Op()
		if op == nil {
			continue
		}
		if _, merge := op.(Merger); merge {
			continue
		}
		for _, in := range op.Inputs() {
			visit(in)
		}
	}
	if result != nil {
		visit(result)
	}

	out := make([]*Sym, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Sym) int {
		return int(a.Def.ID) - int(b.Def.ID)
	})
	return out
}

// Walk calls fn for every statement of b and of every nested block,
// depth first, in statement order.
func (b *Block) Walk(fn func(stmt *Sym, depth int)) {
	b.walk(fn, 0)
}

func (b *Block) walk(fn func(*Sym, int), depth int) {
	for _, s := range b.Stmts {
		fn(s, depth)
		if n, ok := s.Op().(Nester); ok {
			for _, nb := range n.Blocks() {
				nb.Block.walk(fn, depth+1)
			}
		}
	}
}
