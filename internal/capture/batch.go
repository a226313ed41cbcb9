package capture

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"argon/internal/diag"
	"argon/internal/source"
)

// Ext is the extension of staged source files.
const Ext = ".go"

// ListSources returns the sorted staged sources under dir, skipping
// testdata, hidden directories and _test files.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, Ext) && !strings.HasSuffix(name, "_test"+Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Expand turns each path argument into source files; directories are
// listed with ListSources.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ListSources(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// Batch loads every path into one FileSet and captures the files in
// parallel with at most jobs workers (0 means GOMAXPROCS). A file that
// fails does not stop the others; its Result carries the error. The
// returned error is non-nil only when ctx is cancelled.
func Batch(ctx context.Context, paths []string, jobs int, opts Options) (*source.FileSet, []*Result, error) {
	fset := source.NewFileSet()
	results := make([]*Result, len(paths))
	ids := make([]source.FileID, len(paths))
	loaded := make([]bool, len(paths))

	for i, path := range paths {
		emit(opts.Progress, Event{File: path, Pass: PassLoad, Status: StatusQueued})
		id, err := fset.Load(path)
		if err != nil {
			lerr := diag.Errorf(diag.IOLoadFile, source.NoSpan, "%s: %v", path, err)
			bag := diag.NewBag(opts.MaxDiagnostics)
			bag.Add(lerr.Diagnostic())
			results[i] = &Result{Path: path, Bag: bag, Err: lerr}
			emit(opts.Progress, Event{File: path, Pass: PassLoad, Status: StatusError, Err: lerr})
			continue
		}
		ids[i] = id
		loaded[i] = true
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i := range paths {
		if !loaded[i] {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Per-file failures live in the Result, not in the group.
			results[i], _ = File(gctx, fset, ids[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fset, results, err
	}
	return fset, results, ctx.Err()
}
