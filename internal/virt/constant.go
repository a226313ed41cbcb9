package virt

import (
	"go/ast"
	"go/constant"
	"go/token"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/stage"
	"argon/internal/types"
)

// untyped returns the expression for a constant. It takes the type the
// context asks for when it is staged, or its default type otherwise.
func untyped(v constant.Value, span source.Span) expr {
	return expr{val: v, span: span, fn: func(fr *stage.Frame) (*ir.Sym, error) {
		return constSym(fr.State().Types(), v, types.NoTypeID, span)
	}}
}

// constSym materializes v as a constant of type to. NoTypeID picks the
// default type of v's kind.
func constSym(in *types.Interner, v constant.Value, to types.TypeID, span source.Span) (*ir.Sym, error) {
	b := in.Builtins()
	if to == types.NoTypeID {
		switch v.Kind() {
		case constant.Bool:
			to = b.Bool
		case constant.Float:
			to = b.Float
		default:
			to = b.Int
		}
	}
	switch {
	case to == b.Bool && v.Kind() == constant.Bool:
		return ir.ConstBool(in, constant.BoolVal(v), span), nil
	case to == b.Float && isNumeric(v):
		f, _ := constant.Float64Val(constant.ToFloat(v))
		return ir.ConstFloat(in, f, span), nil
	case to == b.Int && isNumeric(v):
		iv := constant.ToInt(v)
		if iv.Kind() != constant.Int {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "constant %s truncated to int", v)
		}
		n, ok := constant.Int64Val(iv)
		if !ok {
			return nil, diag.Errorf(diag.StgTypeMismatch, span, "constant %s overflows int", v)
		}
		return ir.ConstInt(in, n, span), nil
	}
	return nil, diag.Errorf(diag.StgTypeMismatch, span, "constant %s used as %s", v, in.Name(to))
}

func isNumeric(v constant.Value) bool {
	k := v.Kind()
	return k == constant.Int || k == constant.Float
}

// foldBinary evaluates a binary expression over two constants with Go's
// untyped constant rules. It reports and returns nil on invalid operands.
func (c *compiler) foldBinary(e *ast.BinaryExpr, x, y constant.Value) constant.Value {
	op := e.Op
	switch op {
	case token.LAND, token.LOR:
		if x.Kind() != constant.Bool || y.Kind() != constant.Bool {
			c.errorf(diag.RwBadConstant, e, "operator %s needs boolean constants, got %s", op, exprString(e))
			return nil
		}
		return constant.BinaryOp(x, op, y)
	case token.EQL, token.NEQ:
		if x.Kind() == constant.Bool && y.Kind() == constant.Bool {
			return constant.MakeBool(constant.Compare(x, op, y))
		}
		fallthrough
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		if !isNumeric(x) || !isNumeric(y) {
			c.errorf(diag.RwBadConstant, e, "mismatched constants in %s", exprString(e))
			return nil
		}
		return constant.MakeBool(constant.Compare(x, op, y))
	}
	if !isNumeric(x) || !isNumeric(y) {
		c.errorf(diag.RwBadConstant, e, "operator %s not defined on %s", op, exprString(e))
		return nil
	}
	ints := x.Kind() == constant.Int && y.Kind() == constant.Int
	if (op == token.REM || op == token.XOR) && !ints {
		c.errorf(diag.RwBadConstant, e, "operator %s not defined on untyped float", op)
		return nil
	}
	if (op == token.QUO || op == token.REM) && constant.Sign(y) == 0 {
		c.errorf(diag.RwBadConstant, e, "division by zero in %s", exprString(e))
		return nil
	}
	if op == token.QUO && ints {
		op = token.QUO_ASSIGN
	}
	return constant.BinaryOp(x, op, y)
}

// adapt stages e, giving an untyped constant the type typ.
func adapt(fr *stage.Frame, e expr, typ types.TypeID) (*ir.Sym, error) {
	if e.val != nil {
		return constSym(fr.State().Types(), e.val, typ, e.span)
	}
	return e.fn(fr)
}

// pair stages two operands that must share a type. A constant on either
// side takes the type of the other.
func pair(fr *stage.Frame, l, r expr) (x, y *ir.Sym, err error) {
	if l.val != nil && r.val == nil {
		if y, err = r.fn(fr); err != nil {
			return nil, nil, err
		}
		x, err = adapt(fr, l, y.Type)
		return x, y, err
	}
	if x, err = l.fn(fr); err != nil {
		return nil, nil, err
	}
	y, err = adapt(fr, r, x.Type)
	return x, y, err
}
