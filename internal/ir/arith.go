package ir

import (
	"argon/internal/diag"
	"argon/internal/source"
	"argon/internal/types"
)

// BinaryKind selects a binary operator.
type BinaryKind uint8

const (
	BinAdd BinaryKind = iota + 1
	BinSub
	BinMul
	BinDiv
	BinRem
	BinLt
	BinLe
	BinGt
	BinGe
	BinEq
	BinNe
	BinAnd
	BinOr
	BinXor
)

var binaryNames = [...]string{
	BinAdd: "add", BinSub: "sub", BinMul: "mul", BinDiv: "div", BinRem: "rem",
	BinLt: "lt", BinLe: "le", BinGt: "gt", BinGe: "ge", BinEq: "eq", BinNe: "ne",
	BinAnd: "and", BinOr: "or", BinXor: "xor",
}

func (k BinaryKind) String() string {
	if int(k) < len(binaryNames) && binaryNames[k] != "" {
		return binaryNames[k]
	}
	return "?binary"
}

// IsCompare reports whether k yields a bool from two operands of one type.
func (k BinaryKind) IsCompare() bool {
	return k >= BinLt && k <= BinNe
}

// Binary applies a primitive two-operand operator.
type Binary struct {
	Kind BinaryKind
	X, Y *Sym
	typ  types.TypeID
}

// NewBinary type-checks and builds a binary op.
func NewBinary(in *types.Interner, kind BinaryKind, x, y *Sym, span source.Span) (*Binary, error) {
	if x.Type != y.Type {
		return nil, diag.Errorf(diag.StgTypeMismatch, span,
			"operands of %s have types %s and %s", kind, in.Name(x.Type), in.Name(y.Type))
	}
	b := in.Builtins()
	var result types.TypeID
	switch {
	case kind >= BinAdd && kind <= BinRem:
		if !in.IsNumeric(x.Type) {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "%s needs numeric operands, got %s", kind, in.Name(x.Type))
		}
		if kind == BinRem && x.Type != b.Int {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "rem needs int operands, got %s", in.Name(x.Type))
		}
		result = x.Type
	case kind >= BinLt && kind <= BinGe:
		if !in.IsNumeric(x.Type) {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "%s needs numeric operands, got %s", kind, in.Name(x.Type))
		}
		result = b.Bool
	case kind == BinEq || kind == BinNe:
		switch in.Kind(x.Type) {
		case types.KindBool, types.KindInt, types.KindFloat:
		default:
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "%s is not comparable", in.Name(x.Type))
		}
		result = b.Bool
	case kind >= BinAnd && kind <= BinXor:
		if x.Type != b.Bool {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "%s needs bool operands, got %s", kind, in.Name(x.Type))
		}
		result = b.Bool
	default:
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "unknown binary operator %d", kind)
	}
	return &Binary{Kind: kind, X: x, Y: y, typ: result}, nil
}

func (o *Binary) Name() string       { return o.Kind.String() }
func (o *Binary) Inputs() []*Sym     { return []*Sym{o.X, o.Y} }
func (o *Binary) Type() types.TypeID { return o.typ }

// UnaryKind selects a unary operator.
type UnaryKind uint8

const (
	UnNeg UnaryKind = iota + 1
	UnNot
)

func (k UnaryKind) String() string {
	switch k {
	case UnNeg:
		return "neg"
	case UnNot:
		return "not"
	}
	return "?unary"
}

// Unary applies a primitive one-operand operator.
type Unary struct {
	Kind UnaryKind
	X    *Sym
}

func NewUnary(in *types.Interner, kind UnaryKind, x *Sym, span source.Span) (*Unary, error) {
	switch kind {
	case UnNeg:
		if !in.IsNumeric(x.Type) {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "neg needs a numeric operand, got %s", in.Name(x.Type))
		}
	case UnNot:
		if x.Type != in.Builtins().Bool {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "not needs a bool operand, got %s", in.Name(x.Type))
		}
	default:
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "unknown unary operator %d", kind)
	}
	return &Unary{Kind: kind, X: x}, nil
}

func (o *Unary) Name() string       { return o.Kind.String() }
func (o *Unary) Inputs() []*Sym     { return []*Sym{o.X} }
func (o *Unary) Type() types.TypeID { return o.X.Type }

// Convert changes a numeric value between int and float.
type Convert struct {
	X  *Sym
	To types.TypeID
}

func NewConvert(in *types.Interner, x *Sym, to types.TypeID, span source.Span) (*Convert, error) {
	if !in.IsNumeric(x.Type) || !in.IsNumeric(to) {
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "cannot convert %s to %s", in.Name(x.Type), in.Name(to))
	}
	return &Convert{X: x, To: to}, nil
}

func (o *Convert) Name() string       { return "convert" }
func (o *Convert) Inputs() []*Sym     { return []*Sym{o.X} }
func (o *Convert) Type() types.TypeID { return o.To }

// Print is the single side-effecting primitive: it emits its operands
// when the graph is lowered.
type Print struct {
	Args    []*Sym
	Newline bool
	typ     types.TypeID
}

func NewPrint(in *types.Interner, args []*Sym, newline bool) *Print {
	return &Print{Args: args, Newline: newline, typ: in.Builtins().Null}
}

func (o *Print) Name() string {
	if o.Newline {
		return "println"
	}
	return "print"
}
func (o *Print) Inputs() []*Sym     { return o.Args }
func (o *Print) Type() types.TypeID { return o.typ }
