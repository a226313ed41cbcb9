package eval

import (
	"math"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/types"
)

func addInt(a, b int64) (int64, bool) {
	s := a + b
	return s, (a^s)&(b^s) >= 0
}

func subInt(a, b int64) (int64, bool) {
	d := a - b
	return d, (a^b)&(a^d) >= 0
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	p := a * b
	return p, p/b == a
}

func binary(kind ir.BinaryKind, x, y Value, span source.Span) (Value, error) {
	switch x.Kind {
	case VKInt:
		return intBinary(kind, x.Int, y.Int, span)
	case VKFloat:
		return floatBinary(kind, x.Float, y.Float, span)
	case VKBool:
		a, b := x.Bool, y.Bool
		switch kind {
		case ir.BinAnd:
			return MakeBool(a && b), nil
		case ir.BinOr:
			return MakeBool(a || b), nil
		case ir.BinXor, ir.BinNe:
			return MakeBool(a != b), nil
		case ir.BinEq:
			return MakeBool(a == b), nil
		}
	}
	return Value{}, diag.Errorf(diag.EvalBadInput, span, "%s on %s", kind, x.Kind)
}

func intBinary(kind ir.BinaryKind, a, b int64, span source.Span) (Value, error) {
	var (
		r  int64
		ok = true
	)
	switch kind {
	case ir.BinAdd:
		r, ok = addInt(a, b)
	case ir.BinSub:
		r, ok = subInt(a, b)
	case ir.BinMul:
		r, ok = mulInt(a, b)
	case ir.BinDiv, ir.BinRem:
		if b == 0 {
			return Value{}, diag.Errorf(diag.EvalDivZero, span, "integer division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			if kind == ir.BinRem {
				return MakeInt(0), nil
			}
			return Value{}, diag.Errorf(diag.EvalOverflow, span, "integer overflow in %d / -1", a)
		}
		if kind == ir.BinDiv {
			r = a / b
		} else {
			r = a % b
		}
	case ir.BinLt:
		return MakeBool(a < b), nil
	case ir.BinLe:
		return MakeBool(a <= b), nil
	case ir.BinGt:
		return MakeBool(a > b), nil
	case ir.BinGe:
		return MakeBool(a >= b), nil
	case ir.BinEq:
		return MakeBool(a == b), nil
	case ir.BinNe:
		return MakeBool(a != b), nil
	default:
		return Value{}, diag.Errorf(diag.EvalBadInput, span, "%s on int", kind)
	}
	if !ok {
		return Value{}, diag.Errorf(diag.EvalOverflow, span, "integer overflow in %d %s %d", a, kind, b)
	}
	return MakeInt(r), nil
}

func floatBinary(kind ir.BinaryKind, a, b float64, span source.Span) (Value, error) {
	switch kind {
	case ir.BinAdd:
		return MakeFloat(a + b), nil
	case ir.BinSub:
		return MakeFloat(a - b), nil
	case ir.BinMul:
		return MakeFloat(a * b), nil
	case ir.BinDiv:
		return MakeFloat(a / b), nil
	case ir.BinLt:
		return MakeBool(a < b), nil
	case ir.BinLe:
		return MakeBool(a <= b), nil
	case ir.BinGt:
		return MakeBool(a > b), nil
	case ir.BinGe:
		return MakeBool(a >= b), nil
	case ir.BinEq:
		return MakeBool(a == b), nil
	case ir.BinNe:
		return MakeBool(a != b), nil
	}
	return Value{}, diag.Errorf(diag.EvalBadInput, span, "%s on float", kind)
}

func unary(kind ir.UnaryKind, x Value, span source.Span) (Value, error) {
	switch {
	case kind == ir.UnNot && x.Kind == VKBool:
		return MakeBool(!x.Bool), nil
	case kind == ir.UnNeg && x.Kind == VKFloat:
		return MakeFloat(-x.Float), nil
	case kind == ir.UnNeg && x.Kind == VKInt:
		if x.Int == math.MinInt64 {
			return Value{}, diag.Errorf(diag.EvalOverflow, span, "integer overflow negating %d", x.Int)
		}
		return MakeInt(-x.Int), nil
	}
	return Value{}, diag.Errorf(diag.EvalBadInput, span, "%s on %s", kind, x.Kind)
}

func convert(in *types.Interner, x Value, to types.TypeID) Value {
	switch {
	case to == in.Builtins().Float && x.Kind == VKInt:
		return MakeFloat(float64(x.Int))
	case to == in.Builtins().Int && x.Kind == VKFloat:
		return MakeInt(int64(x.Float))
	}
	return x
}
