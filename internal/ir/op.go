package ir

import "argon/internal/types"

// Op is an IR node payload. Ops never change after construction.
type Op interface {
	// Name is the lowercase mnemonic used by printers and lowerers.
	Name() string
	// Inputs lists the operand symbols in order.
	Inputs() []*Sym
	// Type is the staged result type.
	Type() types.TypeID
}

// Nester is implemented by ops that own nested blocks.
type Nester interface {
	Op
	Blocks() []NamedBlock
}

// NamedBlock labels a nested block for printing and export.
type NamedBlock struct {
	Role  string
	Block *Block
}

// Binder is implemented by ops that introduce bound parameters.
type Binder interface {
	Op
	Params() []*Sym
}

// Merger marks the merge family (Phi, Mux). Their operands are skipped
// when computing block inputs.
type Merger interface {
	Op
	mergesBranches()
}
