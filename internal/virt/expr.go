package virt

import (
	"bytes"
	"go/ast"
	"go/constant"
	"go/printer"
	"go/token"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/stage"
)

var binaryOps = map[token.Token]ir.BinaryKind{
	token.ADD:  ir.BinAdd,
	token.SUB:  ir.BinSub,
	token.MUL:  ir.BinMul,
	token.QUO:  ir.BinDiv,
	token.REM:  ir.BinRem,
	token.LSS:  ir.BinLt,
	token.LEQ:  ir.BinLe,
	token.GTR:  ir.BinGt,
	token.GEQ:  ir.BinGe,
	token.EQL:  ir.BinEq,
	token.NEQ:  ir.BinNe,
	token.LAND: ir.BinAnd,
	token.LOR:  ir.BinOr,
	token.XOR:  ir.BinXor,
}

func (c *compiler) expr(e ast.Expr) expr {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return c.expr(e.X)
	case *ast.BasicLit:
		return c.literal(e)
	case *ast.Ident:
		return c.ident(e)
	case *ast.UnaryExpr:
		return c.unary(e)
	case *ast.BinaryExpr:
		kind, ok := binaryOps[e.Op]
		if !ok {
			return c.badExpr(e, "operator "+e.Op.String())
		}
		x, y := c.expr(e.X), c.expr(e.Y)
		if x.val != nil && y.val != nil {
			if v := c.foldBinary(e, x.val, y.val); v != nil {
				return untyped(v, c.span(e))
			}
			return expr{}
		}
		return c.binary(kind, x, y, c.span(e))
	case *ast.CallExpr:
		return c.call(e)
	case *ast.FuncLit:
		return c.badExpr(e, "closures")
	default:
		return c.badExpr(e, "expression "+exprString(e))
	}
}

// literal parses a number at arbitrary precision. Narrowing happens only
// once a sign from an enclosing negation has been applied, so the most
// negative int is accepted.
func (c *compiler) literal(e *ast.BasicLit) expr {
	if e.Kind != token.INT && e.Kind != token.FLOAT {
		return c.badExpr(e, e.Kind.String()+" literals")
	}
	v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
	if v.Kind() == constant.Unknown {
		c.errorf(diag.RwBadLiteral, e, "malformed number %s", e.Value)
		return expr{}
	}
	return untyped(v, c.span(e))
}

func (c *compiler) ident(e *ast.Ident) expr {
	span := c.span(e)
	switch e.Name {
	case "true", "false":
		return untyped(constant.MakeBool(e.Name == "true"), span)
	case "nil":
		return c.badExpr(e, "nil")
	case "_":
		return c.badExpr(e, "reading _")
	}
	name := c.name(e)
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		return fr.Get(name, span)
	}}
}

func (c *compiler) unary(e *ast.UnaryExpr) expr {
	var kind ir.UnaryKind
	switch e.Op {
	case token.ADD:
		return c.expr(e.X)
	case token.SUB:
		kind = ir.UnNeg
	case token.NOT:
		kind = ir.UnNot
	default:
		return c.badExpr(e, "operator "+e.Op.String())
	}
	x := c.expr(e.X)
	span := c.span(e)
	if x.val != nil {
		if (kind == ir.UnNot) != (x.val.Kind() == constant.Bool) {
			c.errorf(diag.RwBadConstant, e, "operator %s not defined on %s", e.Op, exprString(e.X))
			return expr{}
		}
		return untyped(constant.UnaryOp(e.Op, x.val, 0), span)
	}
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		v, err := x.fn(fr)
		if err != nil {
			return nil, err
		}
		op, err := ir.NewUnary(fr.State().Types(), kind, v, span)
		if err != nil {
			return nil, err
		}
		return fr.State().Stage(op, span), nil
	}}
}

// binary stages x op y. A constant operand takes the type of the other
// one.
func (c *compiler) binary(kind ir.BinaryKind, l, r expr, span source.Span) expr {
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		x, y, err := pair(fr, l, r)
		if err != nil {
			return nil, err
		}
		op, err := ir.NewBinary(fr.State().Types(), kind, x, y, span)
		if err != nil {
			return nil, err
		}
		return fr.State().Stage(op, span), nil
	}}
}

func (c *compiler) call(e *ast.CallExpr) expr {
	id, ok := e.Fun.(*ast.Ident)
	if !ok {
		return c.badExpr(e.Fun, "calls of "+exprString(e.Fun))
	}
	if e.Ellipsis.IsValid() {
		return c.badExpr(e, "variadic calls")
	}
	name := key(id.Name)
	span := c.span(e)
	args := make([]expr, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.expr(a)
	}

	if b, ok := builtins[name]; ok {
		if b.arity >= 0 && len(args) != b.arity {
			c.errorf(diag.StgArity, e, "%s takes %d arguments, got %d", name, b.arity, len(args))
			return expr{}
		}
		return b.compile(args, span)
	}
	if !c.host[name] {
		if _, ok := c.funcs[name]; !ok {
			c.errorf(diag.RwUnknownFunc, e.Fun, "call to unknown function %s", name)
		}
	}
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		vals, err := c.callArgs(fr, name, args)
		if err != nil {
			return nil, err
		}
		return stage.Call(fr, span, name, vals)
	}}
}

func evalAll(fr *stage.Frame, args []expr) ([]*ir.Sym, error) {
	vals := make([]*ir.Sym, len(args))
	for i, a := range args {
		v, err := a.fn(fr)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// callArgs stages the arguments of a call to name. Constant arguments
// take the declared parameter type of a module function.
func (c *compiler) callArgs(fr *stage.Frame, name string, args []expr) ([]*ir.Sym, error) {
	f, ok := c.funcs[name]
	if !ok || len(f.Params) != len(args) {
		return evalAll(fr, args)
	}
	in := fr.State().Types()
	vals := make([]*ir.Sym, len(args))
	for i, a := range args {
		typ, _ := in.ByName(f.Params[i].Type)
		v, err := adapt(fr, a, typ)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

type builtin struct {
	arity   int // -1 for variadic
	compile func(args []expr, span source.Span) expr
}

var builtins = map[string]builtin{
	"ifelse":  {3, compileIfElse},
	"mux":     {3, compileMux},
	"float64": {1, convertTo("float64")},
	"int":     {1, convertTo("int")},
	"int64":   {1, convertTo("int")},
	"emit":    {-1, compileEmit},
}

// ifelse(c, a, b) is the conditional expression: a and b are each staged
// in their own branch block.
func compileIfElse(args []expr, span source.Span) expr {
	cond, a, b := args[0], args[1], args[2]
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		return stage.IfExpr(fr, span,
			func() (*ir.Sym, error) { return cond.fn(fr) },
			func() (*ir.Sym, error) { return a.fn(fr) },
			func() (*ir.Sym, error) { return b.fn(fr) },
		)
	}}
}

// mux(c, a, b) computes both values before selecting.
func compileMux(args []expr, span source.Span) expr {
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		c, err := args[0].fn(fr)
		if err != nil {
			return nil, err
		}
		a, b, err := pair(fr, args[1], args[2])
		if err != nil {
			return nil, err
		}
		return stage.Select(fr, span, c, a, b)
	}}
}

// convertTo stages typ(x). A constant converts exactly or not at all.
func convertTo(typ string) func([]expr, source.Span) expr {
	return func(args []expr, span source.Span) expr {
		x := args[0]
		return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
			in := fr.State().Types()
			to, _ := in.ByName(typ)
			if x.val != nil {
				return constSym(in, x.val, to, span)
			}
			v, err := x.fn(fr)
			if err != nil {
				return nil, err
			}
			if v.Type == to {
				return v, nil
			}
			op, err := ir.NewConvert(in, v, to, span)
			if err != nil {
				return nil, err
			}
			return fr.State().Stage(op, span), nil
		}}
	}
}

// emit(args...) stages a print that happens when the graph is lowered,
// unlike the whitelisted print which runs while staging.
func compileEmit(args []expr, span source.Span) expr {
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) {
		vals, err := evalAll(fr, args)
		if err != nil {
			return nil, err
		}
		st := fr.State()
		return st.Stage(ir.NewPrint(st.Types(), vals, true), span), nil
	}}
}

func exprString(e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), e); err != nil {
		return "?"
	}
	return buf.String()
}
