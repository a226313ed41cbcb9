package virt

import (
	"fmt"
	"go/ast"
	"go/token"

	"argon/internal/diag"
)

// scope is one Go block: the function body, an if or for statement, or
// a braced block.
type scope struct {
	node ast.Node
	vars map[string]string // source name -> variable
	decl nameSet           // variables declared in this block or below
}

// resolver gives every declaration in a function its own variable name,
// so that a redeclaration in an inner block neither reads nor writes the
// outer variable. The first declaration of a name keeps the name; later
// ones get a "#n" suffix, which no Go identifier can contain.
type resolver struct {
	c      *compiler
	scopes []*scope
	count  map[string]int
	names  map[*ast.Ident]string
	locals map[ast.Node]nameSet
}

func newResolver(c *compiler) *resolver {
	return &resolver{
		c:      c,
		count:  make(map[string]int),
		names:  make(map[*ast.Ident]string),
		locals: make(map[ast.Node]nameSet),
	}
}

func (r *resolver) push(n ast.Node) {
	r.scopes = append(r.scopes, &scope{node: n, vars: map[string]string{}, decl: nameSet{}})
}

func (r *resolver) pop() {
	s := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	r.locals[s.node] = s.decl
	if len(r.scopes) > 0 {
		parent := r.scopes[len(r.scopes)-1]
		for n := range s.decl {
			parent.decl.add(n)
		}
	}
}

func (r *resolver) declare(id *ast.Ident) {
	if id.Name == "_" {
		return
	}
	src := key(id.Name)
	top := r.scopes[len(r.scopes)-1]
	if v, ok := top.vars[src]; ok {
		// x, y := ... with x already declared in this block assigns x.
		r.names[id] = v
		return
	}
	v := src
	if n := r.count[src]; n > 0 {
		v = fmt.Sprintf("%s#%d", src, n)
	}
	r.count[src]++
	top.vars[src] = v
	top.decl.add(v)
	r.names[id] = v
}

func (r *resolver) use(id *ast.Ident) {
	src := key(id.Name)
	switch src {
	case "_", "true", "false", "nil", "iota":
		return
	}
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if v, ok := r.scopes[i].vars[src]; ok {
			r.names[id] = v
			return
		}
	}
	if _, ok := r.c.funcs[src]; ok || r.c.host[src] {
		return
	}
	r.c.errorf(diag.RwUndefinedName, id, "undefined: %s", id.Name)
}

func (r *resolver) funcDecl(d *ast.FuncDecl) {
	r.push(d)
	for _, field := range d.Type.Params.List {
		for _, n := range field.Names {
			r.declare(n)
		}
	}
	// Parameters and the top-level body share one block.
	r.stmts(d.Body.List)
	r.pop()
}

func (r *resolver) stmts(list []ast.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		r.push(s)
		r.stmts(s.List)
		r.pop()
	case *ast.AssignStmt:
		for _, e := range s.Rhs {
			r.expr(e)
		}
		for _, l := range s.Lhs {
			id, ok := l.(*ast.Ident)
			switch {
			case ok && s.Tok == token.DEFINE:
				r.declare(id)
			case ok:
				r.use(id)
			default:
				r.expr(l)
			}
		}
	case *ast.IncDecStmt:
		r.expr(s.X)
	case *ast.DeclStmt:
		gd, ok := s.Decl.(*ast.GenDecl)
		if !ok {
			return
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, v := range vs.Values {
				r.expr(v)
			}
			for _, n := range vs.Names {
				r.declare(n)
			}
		}
	case *ast.ExprStmt:
		r.expr(s.X)
	case *ast.ReturnStmt:
		for _, e := range s.Results {
			r.expr(e)
		}
	case *ast.IfStmt:
		r.push(s)
		if s.Init != nil {
			r.stmt(s.Init)
		}
		r.expr(s.Cond)
		r.stmt(s.Body)
		if s.Else != nil {
			r.stmt(s.Else)
		}
		r.pop()
	case *ast.ForStmt:
		r.push(s)
		if s.Init != nil {
			r.stmt(s.Init)
		}
		if s.Cond != nil {
			r.expr(s.Cond)
		}
		if s.Post != nil {
			r.stmt(s.Post)
		}
		r.stmt(s.Body)
		r.pop()
	}
}

func (r *resolver) expr(e ast.Expr) {
	ast.Inspect(e, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			r.use(n)
		case *ast.CallExpr:
			if _, ok := n.Fun.(*ast.Ident); ok {
				for _, a := range n.Args {
					r.expr(a)
				}
				return false
			}
		case *ast.SelectorExpr:
			r.expr(n.X)
			return false
		case *ast.TypeAssertExpr:
			r.expr(n.X)
			return false
		case *ast.FuncLit, *ast.CompositeLit:
			return false
		}
		return true
	})
}

// name is the variable id refers to.
func (c *compiler) name(id *ast.Ident) string {
	if v, ok := c.res.names[id]; ok {
		return v
	}
	return key(id.Name)
}

// visible drops the variables declared inside n from names.
func (c *compiler) visible(n ast.Node, names []string) []string {
	locals := c.res.locals[n]
	if len(locals) == 0 {
		return names
	}
	out := names[:0:0]
	for _, name := range names {
		if !locals.has(name) {
			out = append(out, name)
		}
	}
	return out
}
