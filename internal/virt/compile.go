package virt

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"slices"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/stage"
)

type (
	stmtFn func(fr *stage.Frame) error
	exprFn func(fr *stage.Frame) (*ir.Sym, error)
)

// expr is a compiled expression. val is set for an untyped constant,
// which is folded while compiling and typed by the context it is used in.
type expr struct {
	fn   exprFn
	val  constant.Value
	span source.Span
}

type compiler struct {
	fs    *source.FileSet
	file  source.FileID
	base  int
	rep   diag.Reporter
	funcs map[string]*stage.Func
	host  map[string]bool

	// per function
	tr     *Tracker
	res    *resolver
	result string
}

var typeNames = map[string]bool{"int": true, "int64": true, "bool": true, "float64": true}

func (c *compiler) span(n ast.Node) source.Span {
	return c.fs.SpanOf(c.file, c.base, n.Pos(), n.End())
}

func (c *compiler) errorf(code diag.Code, n ast.Node, format string, args ...any) {
	c.rep.Report(code, diag.SevError, c.span(n), fmt.Sprintf(format, args...), nil)
}

// unsupported reports n and returns a statement that fails if it is ever
// run. A module with diagnostics is never returned, so it is not.
func (c *compiler) unsupported(n ast.Node, what string) stmtFn {
	err := diag.Errorf(diag.RwUnsupported, c.span(n), "%s not supported in staged code", what)
	c.rep.Report(err.Code, diag.SevError, err.Span, err.Message, nil)
	return func(*stage.Frame) error { return err }
}

func (c *compiler) badExpr(n ast.Node, what string) expr {
	fail := c.unsupported(n, what)
	return expr{fn: func(fr *stage.Frame) (*ir.Sym, error) { return nil, fail(fr) }}
}

func (c *compiler) funcDecl(d *ast.FuncDecl, f *stage.Func) {
	f.Span = c.span(d.Name)
	if d.Recv != nil {
		c.unsupported(d.Recv, "methods")
	}
	if d.Type.TypeParams != nil {
		c.unsupported(d.Type.TypeParams, "type parameters")
	}
	if d.Body == nil {
		c.errorf(diag.RwParse, d, "function %s has no body", f.Name)
		return
	}

	c.tr = NewTracker()
	c.res = newResolver(c)
	c.res.funcDecl(d)
	c.result = ""
	for _, field := range d.Type.Params.List {
		typ := c.typeName(field.Type)
		if len(field.Names) == 0 {
			c.unsupported(field, "unnamed parameters")
		}
		for _, n := range field.Names {
			name := c.name(n)
			f.Params = append(f.Params, stage.Param{Name: name, Type: typ})
			c.tr.Write(name)
		}
	}
	if res := d.Type.Results; res != nil {
		if len(res.List) != 1 || len(res.List[0].Names) > 0 {
			c.unsupported(res, "multiple or named results")
		} else {
			c.result = c.typeName(res.List[0].Type)
		}
	}
	f.Result = c.result

	body := c.stmts(d.Body.List, true)
	if c.result != "" && !terminates(d.Body.List) {
		c.errorf(diag.StgMissingReturn, d.Body, "missing return at end of %s", f.Name)
	}

	hasResult := c.result != ""
	f.Body = func(fr *stage.Frame) (*ir.Sym, error) {
		if err := body(fr); err != nil {
			return nil, err
		}
		if !hasResult {
			return nil, nil
		}
		res, _ := fr.Lookup(resultVar)
		return res, nil
	}
}

func (c *compiler) typeName(e ast.Expr) string {
	id, ok := e.(*ast.Ident)
	if !ok || !typeNames[id.Name] {
		c.errorf(diag.RwUnknownType, e, "unsupported type %s", exprString(e))
		return "int"
	}
	return id.Name
}

func seq(fns []stmtFn) stmtFn {
	return func(fr *stage.Frame) error {
		for _, fn := range fns {
			if err := fn(fr); err != nil {
				return err
			}
		}
		return nil
	}
}

// stmts compiles a statement list. In a terminal list return statements
// are allowed in tail position; an if statement that returns on some
// path receives the rest of the list as its continuation.
func (c *compiler) stmts(list []ast.Stmt, terminal bool) stmtFn {
	var fns []stmtFn
	for i := 0; i < len(list); i++ {
		rest := list[i+1:]
		switch s := list[i].(type) {
		case *ast.BlockStmt:
			list = slices.Concat(list[:i], s.List, rest)
			i--
		case *ast.ReturnStmt:
			switch {
			case !terminal:
				fns = append(fns, c.unsupported(s, "return inside a loop"))
			case len(rest) > 0:
				fns = append(fns, c.unsupported(rest[0], "unreachable code after return"))
			default:
				fns = append(fns, c.returnStmt(s))
			}
			return seq(fns)
		case *ast.IfStmt:
			if terminal && len(rest) > 0 && containsReturn(s) {
				fns = append(fns, c.ifStmt(s, rest, terminal))
				return seq(fns)
			}
			fns = append(fns, c.ifStmt(s, nil, terminal))
		default:
			fns = append(fns, c.stmt(s))
		}
	}
	return seq(fns)
}

func (c *compiler) stmt(s ast.Stmt) stmtFn {
	switch s := s.(type) {
	case *ast.AssignStmt:
		return c.assign(s)
	case *ast.IncDecStmt:
		return c.incDec(s)
	case *ast.DeclStmt:
		return c.declStmt(s)
	case *ast.ExprStmt:
		call, ok := s.X.(*ast.CallExpr)
		if !ok {
			return c.unsupported(s, "expression statements other than calls")
		}
		e := c.call(call)
		return func(fr *stage.Frame) error {
			_, err := e.fn(fr)
			return err
		}
	case *ast.ForStmt:
		return c.forStmt(s)
	case *ast.EmptyStmt:
		return func(*stage.Frame) error { return nil }
	case *ast.BranchStmt:
		return c.unsupported(s, s.Tok.String())
	case *ast.RangeStmt:
		return c.unsupported(s, "range loops")
	case *ast.SwitchStmt, *ast.TypeSwitchStmt:
		return c.unsupported(s, "switch")
	case *ast.SelectStmt:
		return c.unsupported(s, "select")
	case *ast.LabeledStmt:
		return c.unsupported(s, "labels")
	case *ast.DeferStmt:
		return c.unsupported(s, "defer")
	case *ast.GoStmt:
		return c.unsupported(s, "go statements")
	case *ast.SendStmt:
		return c.unsupported(s, "channel sends")
	default:
		return c.unsupported(s, fmt.Sprintf("%T", s))
	}
}

func (c *compiler) returnStmt(s *ast.ReturnStmt) stmtFn {
	if c.result == "" {
		if len(s.Results) > 0 {
			return c.unsupported(s, "returning a value from a function without result")
		}
		return func(*stage.Frame) error { return nil }
	}
	if len(s.Results) != 1 {
		return c.unsupported(s, "return without exactly one value")
	}
	val := c.coerced(c.expr(s.Results[0]), c.result)
	c.tr.Write(resultVar)
	return func(fr *stage.Frame) error {
		v, err := val(fr)
		if err != nil {
			return err
		}
		fr.Set(resultVar, v)
		return nil
	}
}

func (c *compiler) ifStmt(s *ast.IfStmt, cont []ast.Stmt, terminal bool) stmtFn {
	span := c.span(s)
	var init stmtFn
	if s.Init != nil {
		init = c.stmt(s.Init)
	}
	cond := c.expr(s.Cond)

	c.tr.Push()
	thenFn := c.stmts(withCont(s.Body.List, cont), terminal)
	thenR := c.tr.Pop()

	var elseFn stmtFn
	var elseR *Region
	switch e := s.Else.(type) {
	case nil:
		if len(cont) > 0 {
			c.tr.Push()
			elseFn = c.stmts(cont, terminal)
			elseR = c.tr.Pop()
		}
	case *ast.BlockStmt:
		c.tr.Push()
		elseFn = c.stmts(withCont(e.List, cont), terminal)
		elseR = c.tr.Pop()
	case *ast.IfStmt:
		c.tr.Push()
		elseFn = c.ifStmt(e, cont, terminal)
		elseR = c.tr.Pop()
	default:
		elseFn = c.unsupported(e, "else form")
	}
	c.tr.Fold(thenR, elseR)

	names := nameSet{}
	for n := range thenR.May {
		names.add(n)
	}
	if elseR != nil {
		for n := range elseR.May {
			names.add(n)
		}
	}
	written := c.visible(s, names.sorted())

	return func(fr *stage.Frame) error {
		if init != nil {
			if err := init(fr); err != nil {
				return err
			}
		}
		var els func() error
		if elseFn != nil {
			els = func() error { return elseFn(fr) }
		}
		return stage.If(fr, span, written,
			func() (*ir.Sym, error) { return cond.fn(fr) },
			func() error { return thenFn(fr) },
			els,
		)
	}
}

func withCont(list, cont []ast.Stmt) []ast.Stmt {
	if len(cont) == 0 || terminates(list) {
		return list
	}
	return slices.Concat(list, cont)
}

func (c *compiler) forStmt(s *ast.ForStmt) stmtFn {
	if s.Cond == nil {
		return c.unsupported(s, "for loop without a condition")
	}
	span := c.span(s)
	var init stmtFn
	if s.Init != nil {
		init = c.stmt(s.Init)
	}

	c.tr.Push()
	cond := c.expr(s.Cond)
	body := c.stmts(s.Body.List, false)
	var post stmtFn
	if s.Post != nil {
		post = c.stmt(s.Post)
	}
	region := c.tr.Pop()
	c.tr.Fold(region)

	binds := c.visible(s.Body, LoopBinds(region))
	writes := c.visible(s.Body, region.Writes())

	return func(fr *stage.Frame) error {
		if init != nil {
			if err := init(fr); err != nil {
				return err
			}
		}
		return stage.While(fr, span, binds, writes,
			func() (*ir.Sym, error) { return cond.fn(fr) },
			func() error {
				if err := body(fr); err != nil {
					return err
				}
				if post != nil {
					return post(fr)
				}
				return nil
			},
		)
	}
}

func (c *compiler) assign(s *ast.AssignStmt) stmtFn {
	if kind, ok := assignOps[s.Tok]; ok {
		if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
			return c.unsupported(s, "multi-value operator assignment")
		}
		id, ok := s.Lhs[0].(*ast.Ident)
		if !ok {
			return c.unsupported(s.Lhs[0], "assignment to non-variables")
		}
		name := c.name(id)
		span := c.span(s)
		rhs := c.expr(s.Rhs[0])
		c.tr.Write(name)
		lhs := expr{fn: func(fr *stage.Frame) (*ir.Sym, error) { return fr.Get(name, span) }}
		val := c.binary(kind, lhs, rhs, span)
		return func(fr *stage.Frame) error {
			v, err := val.fn(fr)
			if err != nil {
				return err
			}
			fr.Set(name, v)
			return nil
		}
	}
	if s.Tok != token.ASSIGN && s.Tok != token.DEFINE {
		return c.unsupported(s, s.Tok.String())
	}
	if len(s.Lhs) != len(s.Rhs) {
		return c.unsupported(s, "multi-value assignment")
	}
	rhs := make([]expr, len(s.Rhs))
	for i, e := range s.Rhs {
		rhs[i] = c.expr(e)
	}
	names := make([]string, len(s.Lhs))
	for i, l := range s.Lhs {
		id, ok := l.(*ast.Ident)
		if !ok {
			return c.unsupported(l, "assignment to non-variables")
		}
		names[i] = c.name(id)
		if names[i] != "_" {
			c.tr.Write(names[i])
		}
	}
	return func(fr *stage.Frame) error {
		vals := make([]*ir.Sym, len(rhs))
		for i, e := range rhs {
			var v *ir.Sym
			var err error
			if cur, ok := fr.Lookup(names[i]); ok {
				v, err = adapt(fr, e, cur.Type)
			} else {
				v, err = e.fn(fr)
			}
			if err != nil {
				return err
			}
			vals[i] = v
		}
		for i, n := range names {
			if n != "_" {
				fr.Set(n, vals[i])
			}
		}
		return nil
	}
}

var assignOps = map[token.Token]ir.BinaryKind{
	token.ADD_ASSIGN: ir.BinAdd,
	token.SUB_ASSIGN: ir.BinSub,
	token.MUL_ASSIGN: ir.BinMul,
	token.QUO_ASSIGN: ir.BinDiv,
	token.REM_ASSIGN: ir.BinRem,
	token.XOR_ASSIGN: ir.BinXor,
}

func (c *compiler) incDec(s *ast.IncDecStmt) stmtFn {
	id, ok := s.X.(*ast.Ident)
	if !ok {
		return c.unsupported(s, "increment of non-variables")
	}
	name := c.name(id)
	span := c.span(s)
	kind := ir.BinAdd
	if s.Tok == token.DEC {
		kind = ir.BinSub
	}
	c.tr.Write(name)
	return func(fr *stage.Frame) error {
		x, err := fr.Get(name, span)
		if err != nil {
			return err
		}
		st := fr.State()
		in := st.Types()
		one := ir.ConstInt(in, 1, span)
		if x.Type == in.Builtins().Float {
			one = ir.ConstFloat(in, 1, span)
		}
		op, err := ir.NewBinary(in, kind, x, one, span)
		if err != nil {
			return err
		}
		fr.Set(name, st.Stage(op, span))
		return nil
	}
}

func (c *compiler) declStmt(s *ast.DeclStmt) stmtFn {
	gd, ok := s.Decl.(*ast.GenDecl)
	if !ok || (gd.Tok != token.VAR && gd.Tok != token.CONST) {
		return c.unsupported(s, "declarations other than var and const")
	}
	var fns []stmtFn
	for _, spec := range gd.Specs {
		vs := spec.(*ast.ValueSpec)
		typ := ""
		if vs.Type != nil {
			typ = c.typeName(vs.Type)
		}
		if len(vs.Values) != 0 && len(vs.Values) != len(vs.Names) {
			fns = append(fns, c.unsupported(vs, "multi-value declaration"))
			continue
		}
		if len(vs.Values) == 0 && typ == "" {
			fns = append(fns, c.unsupported(vs, "declaration without type or value"))
			continue
		}
		vals := make([]exprFn, len(vs.Names))
		for i := range vs.Names {
			if len(vs.Values) == 0 {
				vals[i] = zeroValue(typ, c.span(vs))
				continue
			}
			e := c.expr(vs.Values[i])
			if typ != "" {
				vals[i] = c.coerced(e, typ)
			} else {
				vals[i] = e.fn
			}
		}
		for i, n := range vs.Names {
			name := c.name(n)
			if name == "_" {
				continue
			}
			c.tr.Write(name)
			val := vals[i]
			fns = append(fns, func(fr *stage.Frame) error {
				v, err := val(fr)
				if err != nil {
					return err
				}
				fr.Set(name, v)
				return nil
			})
		}
	}
	return seq(fns)
}

func zeroValue(typ string, span source.Span) exprFn {
	return func(fr *stage.Frame) (*ir.Sym, error) {
		in := fr.State().Types()
		switch typ {
		case "bool":
			return ir.ConstBool(in, false, span), nil
		case "float64":
			return ir.ConstFloat(in, 0, span), nil
		default:
			return ir.ConstInt(in, 0, span), nil
		}
	}
}

// coerced gives an untyped constant the type typ and checks everything
// else against it.
func (c *compiler) coerced(e expr, typ string) exprFn {
	return func(fr *stage.Frame) (*ir.Sym, error) {
		in := fr.State().Types()
		want, _ := in.ByName(typ)
		v, err := adapt(fr, e, want)
		if err != nil {
			return nil, err
		}
		if v.Type != want {
			return nil, diag.Errorf(diag.StgTypeMismatch, v.Span, "value of type %s used as %s", in.Name(v.Type), in.Name(want))
		}
		return v, nil
	}
}

// terminates reports whether every path through list ends in a return.
func terminates(list []ast.Stmt) bool {
	if len(list) == 0 {
		return false
	}
	switch s := list[len(list)-1].(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return terminates(s.List)
	case *ast.IfStmt:
		if s.Else == nil || !terminates(s.Body.List) {
			return false
		}
		switch e := s.Else.(type) {
		case *ast.BlockStmt:
			return terminates(e.List)
		case *ast.IfStmt:
			return terminates([]ast.Stmt{e})
		}
	}
	return false
}

func containsReturn(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.ReturnStmt:
			found = true
		case *ast.FuncLit:
			return false
		}
		return !found
	})
	return found
}
