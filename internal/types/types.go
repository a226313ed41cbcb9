package types

import "fmt"

// TypeID uniquely identifies a staged type inside one Interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates staged type kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindFunc
	KindRecord
	// KindUndefined types an Undefined placeholder whose type no path supplied.
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindFunc:
		return "func"
	case KindRecord:
		return "record"
	case KindUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Host is the denotational tag of a staged value: the Go value domain a
// Const of that type holds.
type Host uint8

const (
	HostNone Host = iota
	HostBool
	HostInt
	HostFloat
	HostFunc
	HostRecord
)

func (h Host) String() string {
	switch h {
	case HostNone:
		return "none"
	case HostBool:
		return "bool"
	case HostInt:
		return "int64"
	case HostFloat:
		return "float64"
	case HostFunc:
		return "func"
	case HostRecord:
		return "record"
	default:
		return fmt.Sprintf("Host(%d)", h)
	}
}

// Type is a compact descriptor. Payload indexes the func or record tables.
type Type struct {
	Kind    Kind
	Payload uint32
}

// FuncInfo describes a function type.
type FuncInfo struct {
	Params []TypeID
	Result TypeID
}

// Field is one named member of a record type.
type Field struct {
	Name string
	Type TypeID
}

// RecordInfo describes a fixed-field record type.
type RecordInfo struct {
	Fields []Field
}

// Index returns the position of name, or -1.
func (r *RecordInfo) Index(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
