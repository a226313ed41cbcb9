// Package eval lowers a staged graph by interpreting it. It is the
// reference consumer of the IR: statements run in order, merges select
// lazily and loops iterate their condition and body blocks.
package eval

import (
	"fmt"
	"strconv"
	"strings"

	"argon/internal/ir"
	"argon/internal/types"
)

// ValueKind identifies the runtime kind of a Value.
type ValueKind uint8

const (
	VKInvalid ValueKind = iota
	VKNull
	VKInt
	VKBool
	VKFloat
	VKFunc
	VKRecord
	// VKUndefined is the value of an Undefined node. Using it as an
	// operand is an error; carrying it through a merge or a record is not.
	VKUndefined
)

func (k ValueKind) String() string {
	switch k {
	case VKInvalid:
		return "invalid"
	case VKNull:
		return "null"
	case VKInt:
		return "int"
	case VKBool:
		return "bool"
	case VKFloat:
		return "float"
	case VKFunc:
		return "func"
	case VKRecord:
		return "record"
	case VKUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a runtime value.
type Value struct {
	Kind   ValueKind
	Int    int64
	Float  float64
	Bool   bool
	Fn     *ir.FunctionNew
	Fields []Value
	Var    string // VKUndefined: the variable name
}

func MakeInt(v int64) Value     { return Value{Kind: VKInt, Int: v} }
func MakeBool(v bool) Value     { return Value{Kind: VKBool, Bool: v} }
func MakeFloat(v float64) Value { return Value{Kind: VKFloat, Float: v} }
func Null() Value               { return Value{Kind: VKNull} }

func (v Value) String() string {
	switch v.Kind {
	case VKNull:
		return "null"
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
	case VKBool:
		return strconv.FormatBool(v.Bool)
	case VKFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case VKFunc:
		return "func " + v.Fn.Func
	case VKRecord:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case VKUndefined:
		return "undefined " + v.Var
	default:
		return "<invalid>"
	}
}

// ParseArg converts a command-line argument to a value of type typ.
func ParseArg(in *types.Interner, typ types.TypeID, s string) (Value, error) {
	switch in.Kind(typ) {
	case types.KindInt:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return Value{}, err
		}
		return MakeInt(n), nil
	case types.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return MakeBool(b), nil
	case types.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return MakeFloat(f), nil
	default:
		return Value{}, fmt.Errorf("cannot pass a %s argument", in.Name(typ))
	}
}

func constValue(s *ir.Sym) Value {
	switch v := s.Def.Value.(type) {
	case int64:
		return MakeInt(v)
	case bool:
		return MakeBool(v)
	case float64:
		return MakeFloat(v)
	default:
		return Null()
	}
}
