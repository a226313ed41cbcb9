// Package capture drives one source file through rewrite, staging,
// validation and export, and runs such captures in parallel batches.
package capture

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/observ"
	"argon/internal/source"
	"argon/internal/stage"
	"argon/internal/state"
	"argon/internal/trace"
	"argon/internal/virt"
)

// Options configures a capture.
type Options struct {
	// Entry names the function to stage. Empty stages every function of
	// the file in declaration order.
	Entry string
	// Whitelist names the host calls that run at stage time. Nil means
	// print and println. Every name must be registered in Host.
	Whitelist []string
	// Host implements the whitelisted calls. Nil means
	// stage.DefaultWhitelist writing into Result.HostOutput.
	Host           func(out *bytes.Buffer) *stage.Whitelist
	MaxDiagnostics int
	Cache          *Cache
	Timer          *observ.Timer
	Progress       Sink
}

// Result is the outcome of capturing one file. On a cache hit only Graph,
// Funcs and HostOutput are set.
type Result struct {
	Path       string
	File       source.FileID
	Session    uuid.UUID
	Module     *virt.Module
	State      *state.State
	Funcs      map[string]*ir.Sym
	Order      []string
	Root       *ir.Block
	Graph      *ir.Graph
	HostOutput []byte
	Bag        *diag.Bag
	Cached     bool
	Err        error
}

// Failed reports whether the capture produced an error.
func (r *Result) Failed() bool { return r.Err != nil }

// File captures the file id of fs. The returned error equals Result.Err;
// the Result is always non-nil so its Bag can be rendered.
func File(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	f := fs.Get(id)
	if f == nil {
		err := diag.Errorf(diag.IOLoadFile, source.NoSpan, "unknown file id %d", id)
		return &Result{Bag: diag.NewBag(opts.MaxDiagnostics), Err: err}, err
	}
	res := &Result{Path: f.Path, File: id, Bag: diag.NewBag(opts.MaxDiagnostics)}
	ctx, sp := trace.BeginCtx(ctx, trace.ScopeCapture, "capture "+f.Path)
	err := res.run(ctx, fs, f, opts)
	if err != nil {
		res.Err = err
		sp.End("error: " + err.Error())
		emit(opts.Progress, Event{File: f.Path, Status: StatusError, Err: err})
		return res, err
	}
	sp.SetInt("funcs", len(res.Funcs)).SetInt("nodes", res.Graph.Count())
	if res.Cached {
		sp.Set("cache", "hit")
	}
	sp.End("")
	status := StatusDone
	if res.Cached {
		status = StatusCached
	}
	emit(opts.Progress, Event{File: f.Path, Status: status})
	return res, nil
}

func (r *Result) run(ctx context.Context, fs *source.FileSet, f *source.File, opts Options) error {
	key := Key(Digest(f.Hash), opts.Entry, opts.Whitelist)
	if ok, err := r.fromCache(opts.Cache, key); err != nil || ok {
		return err
	}

	var mod *virt.Module
	err := r.pass(ctx, opts, PassRewrite, func(context.Context) error {
		var err error
		mod, err = virt.ParseFile(fs, r.File, virt.Options{Whitelist: opts.Whitelist, MaxDiagnostics: opts.MaxDiagnostics})
		return err
	})
	if err != nil {
		return err
	}
	r.Module = mod

	var host bytes.Buffer
	wl := stage.DefaultWhitelist(&host)
	if opts.Host != nil {
		wl = opts.Host(&host)
	}
	for _, name := range opts.Whitelist {
		if !wl.Contains(name) {
			return r.fail(diag.Errorf(diag.CfgInvalid, source.NoSpan, "whitelisted call %s has no host implementation", name))
		}
	}

	r.Session = uuid.New()
	err = r.pass(ctx, opts, PassStage, func(ctx context.Context) error {
		r.State = state.New(state.WithTracer(trace.FromContext(ctx)), state.WithSession(r.Session))
		fr, err := stage.NewFrame(state.With(ctx, r.State), mod, wl)
		if err != nil {
			return err
		}
		names := mod.Order
		if opts.Entry != "" {
			if _, ok := mod.Funcs[opts.Entry]; !ok {
				return diag.Errorf(diag.RwUnknownFunc, source.Span{File: r.File}, "entry function %s is not declared in %s", opts.Entry, f.Path)
			}
			names = []string{opts.Entry}
		}
		r.Funcs = make(map[string]*ir.Sym, len(names))
		for _, name := range names {
			sym, err := stage.Define(fr, mod.Funcs[name])
			if err != nil {
				return err
			}
			r.Funcs[name] = sym
		}
		r.Order = slices.Clone(names)
		return nil
	})
	r.HostOutput = host.Bytes()
	if err != nil {
		return err
	}

	r.Root = r.State.Root().Block(nil)
	err = r.pass(ctx, opts, PassValidate, func(context.Context) error {
		return ir.Validate(r.Root)
	})
	if err != nil {
		return err
	}

	return r.pass(ctx, opts, PassExport, func(context.Context) error {
		r.Graph = ir.Export(f.Path, r.Root, r.State.Types())
		stats := r.State.Stats()
		err := opts.Cache.Put(key, &Payload{
			Path:       f.Path,
			Entry:      opts.Entry,
			Funcs:      r.Order,
			Graph:      r.Graph,
			HostOutput: r.HostOutput,
			Nodes:      stats.Nodes,
			Bounds:     stats.Bounds,
		})
		if err != nil {
			return diag.Errorf(diag.CacheFailed, source.NoSpan, "store %s: %v", f.Path, err)
		}
		return nil
	})
}

func (r *Result) fromCache(c *Cache, key Digest) (bool, error) {
	p, ok, err := c.Get(key)
	if err != nil {
		return false, r.fail(diag.Errorf(diag.CacheFailed, source.NoSpan, "load %s: %v", r.Path, err))
	}
	if !ok {
		return false, nil
	}
	r.Cached = true
	r.Graph = p.Graph
	r.Order = p.Funcs
	r.HostOutput = p.HostOutput
	return true, nil
}

// pass runs fn as one traced, timed pass and records its failure in the bag.
func (r *Result) pass(ctx context.Context, opts Options, name Pass, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	emit(opts.Progress, Event{File: r.Path, Pass: name, Status: StatusWorking})
	stop := opts.Timer.Start(string(name))
	pctx, sp := trace.BeginCtx(ctx, trace.ScopePass, string(name))
	began := time.Now()
	err := fn(pctx)
	if err != nil {
		sp.End("error")
		stop("")
		return r.fail(err)
	}
	sp.End("")
	stop("")
	emit(opts.Progress, Event{File: r.Path, Pass: name, Status: StatusWorking, Elapsed: time.Since(began)})
	return nil
}

// fail moves err into the bag. Rewrite errors carry their own bag and a
// joined validation error adds one diagnostic per member.
func (r *Result) fail(err error) error {
	var rw *virt.RewriteError
	if errors.As(err, &rw) {
		r.Bag.Merge(rw.Bag)
		return err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			r.addDiag(e)
		}
		return err
	}
	r.addDiag(err)
	return err
}

func (r *Result) addDiag(err error) {
	if de, ok := diag.AsError(err); ok {
		r.Bag.Add(de.Diagnostic())
		return
	}
	r.Bag.Add(diag.New(diag.SevError, diag.UnknownCode, source.Span{File: r.File}, err.Error()))
}
