package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Null      TypeID
	Bool      TypeID
	Int       TypeID
	Float     TypeID
	Undefined TypeID
}

// Interner hands out stable TypeIDs. Primitive ids are identical across
// interners because they are seeded in a fixed order. An Interner is owned
// by one staging State and is not goroutine-safe.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	funcs    []FuncInfo
	records  []RecordInfo
	builtins Builtins
}

// NewInterner constructs an interner seeded with the primitives.
func NewInterner() *Interner {
	in := &Interner{
		types: make([]Type, 0, 16),
		index: make(map[string]TypeID, 16),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve NoTypeID
	in.builtins.Null = in.Intern(Type{Kind: KindNull})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.Undefined = in.Intern(Type{Kind: KindUndefined})
	return in
}

func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern returns the id of a primitive descriptor, adding it when new.
// Func and record types go through Func and Record.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	return in.internKey(fmt.Sprintf("%d/%d", t.Kind, t.Payload), t)
}

func (in *Interner) internKey(key string, t Type) TypeID {
	if id, ok := in.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Func interns the function type (params) -> result.
func (in *Interner) Func(params []TypeID, result TypeID) TypeID {
	var sb strings.Builder
	sb.WriteString("fn(")
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", p)
	}
	fmt.Fprintf(&sb, ")%d", result)
	key := sb.String()
	if id, ok := in.index[key]; ok {
		return id
	}
	payload := in.nextPayload(len(in.funcs))
	in.funcs = append(in.funcs, FuncInfo{Params: append([]TypeID(nil), params...), Result: result})
	return in.internKey(key, Type{Kind: KindFunc, Payload: payload})
}

// Record interns a record type. Field order is significant.
func (in *Interner) Record(fields []Field) TypeID {
	var sb strings.Builder
	sb.WriteString("rec{")
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s:%d", f.Name, f.Type)
	}
	sb.WriteByte('}')
	key := sb.String()
	if id, ok := in.index[key]; ok {
		return id
	}
	payload := in.nextPayload(len(in.records))
	in.records = append(in.records, RecordInfo{Fields: append([]Field(nil), fields...)})
	return in.internKey(key, Type{Kind: KindRecord, Payload: payload})
}

func (in *Interner) nextPayload(n int) uint32 {
	p, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type payload overflow: %w", err))
	}
	return p
}

// Lookup returns the descriptor for id.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// Kind returns the kind of id, KindInvalid when unknown.
func (in *Interner) Kind(id TypeID) Kind {
	t, _ := in.Lookup(id)
	return t.Kind
}

// FuncInfo returns the signature of a function type.
func (in *Interner) FuncInfo(id TypeID) (*FuncInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindFunc {
		return nil, false
	}
	return &in.funcs[t.Payload], true
}

// RecordInfo returns the fields of a record type.
func (in *Interner) RecordInfo(id TypeID) (*RecordInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindRecord {
		return nil, false
	}
	return &in.records[t.Payload], true
}

// Host returns the denotational tag of id.
func (in *Interner) Host(id TypeID) Host {
	switch in.Kind(id) {
	case KindBool:
		return HostBool
	case KindInt:
		return HostInt
	case KindFloat:
		return HostFloat
	case KindFunc:
		return HostFunc
	case KindRecord:
		return HostRecord
	default:
		return HostNone
	}
}

// IsNumeric reports int or float.
func (in *Interner) IsNumeric(id TypeID) bool {
	k := in.Kind(id)
	return k == KindInt || k == KindFloat
}

// Name renders id for diagnostics and dumps.
func (in *Interner) Name(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindFunc:
		fi := in.funcs[t.Payload]
		parts := make([]string, len(fi.Params))
		for i, p := range fi.Params {
			parts[i] = in.Name(p)
		}
		return fmt.Sprintf("func(%s) %s", strings.Join(parts, ", "), in.Name(fi.Result))
	case KindRecord:
		ri := in.records[t.Payload]
		parts := make([]string, len(ri.Fields))
		for i, f := range ri.Fields {
			parts[i] = f.Name + ": " + in.Name(f.Type)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return t.Kind.String()
	}
}

// ByName resolves the surface names of primitive types.
func (in *Interner) ByName(name string) (TypeID, bool) {
	switch name {
	case "int", "int64":
		return in.builtins.Int, true
	case "bool":
		return in.builtins.Bool, true
	case "float64", "float":
		return in.builtins.Float, true
	case "null":
		return in.builtins.Null, true
	}
	return NoTypeID, false
}
