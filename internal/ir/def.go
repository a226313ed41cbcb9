package ir

import "fmt"

// ID is a graph position. Ids are allocated by a staging State and are
// unique and strictly increasing in allocation order.
type ID uint32

// DefKind selects the active variant of a Def.
type DefKind uint8

const (
	// DefConst is a literal folded into the graph. It has no id.
	DefConst DefKind = iota + 1
	// DefBound is a free parameter introduced by a function or loop.
	DefBound
	// DefNode is the result of applying an Op.
	DefNode
)

func (k DefKind) String() string {
	switch k {
	case DefConst:
		return "const"
	case DefBound:
		return "bound"
	case DefNode:
		return "node"
	default:
		return fmt.Sprintf("DefKind(%d)", k)
	}
}

// Def is the definition behind a Sym. Exactly one variant is active:
// Const uses Value, Bound uses ID and Name, Node uses ID and Op.
type Def struct {
	Kind  DefKind
	ID    ID
	Name  string
	Value any // bool, int64, float64 or nil
	Op    Op
}

// NewConstDef wraps a literal.
func NewConstDef(value any) *Def {
	return &Def{Kind: DefConst, Value: value}
}

// NewBoundDef and NewNodeDef are meant for the staging runtime only; any
// other caller breaks id uniqueness.
func NewBoundDef(id ID, name string) *Def {
	return &Def{Kind: DefBound, ID: id, Name: name}
}

func NewNodeDef(id ID, op Op) *Def {
	return &Def{Kind: DefNode, ID: id, Op: op}
}
