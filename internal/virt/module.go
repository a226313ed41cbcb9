package virt

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"argon/internal/diag"
	"argon/internal/source"
	"argon/internal/stage"
)

// Options configures the transformer.
type Options struct {
	// Whitelist names the host calls that run eagerly at stage time.
	// Nil means print and println.
	Whitelist []string
	// MaxDiagnostics bounds the diagnostics kept per file.
	MaxDiagnostics int
}

func (o Options) whitelist() []string {
	if o.Whitelist == nil {
		return []string{"print", "println"}
	}
	return o.Whitelist
}

// Module is one transformed file.
type Module struct {
	File  source.FileID
	Path  string
	Funcs map[string]*stage.Func
	Order []string
}

// Resolve implements stage.Resolver.
func (m *Module) Resolve(name string) (*stage.Func, bool) {
	f, ok := m.Funcs[name]
	return f, ok
}

// RewriteError reports every diagnostic of a file that failed to
// transform. It unwraps to the first error.
type RewriteError struct {
	Path string
	Bag  *diag.Bag
}

func (e *RewriteError) Error() string {
	if err := e.Bag.FirstError(); err != nil {
		return e.Path + ": " + err.Error()
	}
	return e.Path + ": rewrite failed"
}

func (e *RewriteError) Unwrap() error { return e.Bag.FirstError() }

// ParseSource adds src to fs as a virtual file and transforms it.
func ParseSource(fs *source.FileSet, name string, src []byte, opts Options) (*Module, error) {
	return ParseFile(fs, fs.AddVirtual(name, src), opts)
}

// ParseFile transforms a file already loaded into fs. On failure no
// Module is returned and the error is a *RewriteError.
func ParseFile(fs *source.FileSet, id source.FileID, opts Options) (*Module, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, diag.Errorf(diag.IOLoadFile, source.NoSpan, "unknown file id %d", id)
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	tfs := token.NewFileSet()
	file, err := parser.ParseFile(tfs, f.Path, f.Content, parser.SkipObjectResolution)
	if err != nil {
		reportParseError(rep, id, err)
		return nil, &RewriteError{Path: f.Path, Bag: bag}
	}

	c := &compiler{
		fs:    fs,
		file:  id,
		base:  tfs.File(file.Pos()).Base(),
		rep:   rep,
		funcs: make(map[string]*stage.Func),
		host:  make(map[string]bool),
	}
	for _, name := range opts.whitelist() {
		c.host[name] = true
	}
	mod := c.compileFile(file)
	mod.Path = f.Path
	if bag.HasErrors() {
		bag.Sort()
		return nil, &RewriteError{Path: f.Path, Bag: bag}
	}
	return mod, nil
}

func reportParseError(rep diag.Reporter, id source.FileID, err error) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		rep.Report(diag.RwParse, diag.SevError, source.Span{File: id}, err.Error(), nil)
		return
	}
	for _, e := range list {
		off := uint32(max(e.Pos.Offset, 0)) // #nosec G115 -- clamped to non-negative
		rep.Report(diag.RwParse, diag.SevError, source.Span{File: id, Start: off, End: off}, e.Msg, nil)
	}
}

func (c *compiler) compileFile(file *ast.File) *Module {
	mod := &Module{File: c.file, Funcs: c.funcs}
	var decls []*ast.FuncDecl
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			c.unsupported(d, "top-level declarations other than functions")
			continue
		}
		name := key(fd.Name.Name)
		if _, dup := c.funcs[name]; dup {
			c.errorf(diag.RwDuplicateFunc, fd.Name, "function %s declared twice", name)
			continue
		}
		// Registered before compiling bodies so calls may refer forward.
		c.funcs[name] = &stage.Func{Name: name}
		decls = append(decls, fd)
		mod.Order = append(mod.Order, name)
	}
	for _, fd := range decls {
		c.funcDecl(fd, c.funcs[key(fd.Name.Name)])
	}
	return mod
}
