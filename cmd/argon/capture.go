package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"argon/internal/capture"
	"argon/internal/diag"
	"argon/internal/diagfmt"
	"argon/internal/source"
	"argon/internal/ui"
)

// batchFlags are shared by stage and check.
type batchFlags struct {
	entry   string
	jobs    int
	uiMode  string
	cache   bool
	noCache bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.entry, "entry", "", "function to stage (default: [stage].entry, or every function)")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "max parallel captures (0=auto)")
	cmd.Flags().StringVar(&f.uiMode, "ui", "auto", "progress display (auto|on|off)")
	cmd.Flags().BoolVar(&f.cache, "cache", false, "use the capture cache even when [cache].enabled is false")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the capture cache")
}

func (a *app) captureOptions(entry string, useCache bool) (capture.Options, error) {
	if entry == "" {
		entry = a.cfg.Stage.Entry
	}
	opts := capture.Options{
		Entry:          entry,
		Whitelist:      a.cfg.Stage.Whitelist,
		MaxDiagnostics: a.cfg.Stage.MaxDiagnostics,
		Timer:          a.timer,
	}
	if useCache {
		dir, err := a.cfg.CacheDir()
		if err != nil {
			return opts, err
		}
		opts.Cache, err = capture.OpenCache(dir)
		if err != nil {
			return opts, fmt.Errorf("open cache: %w", err)
		}
	}
	return opts, nil
}

// runBatch captures paths, showing the progress UI when asked to.
func (a *app) runBatch(cmd *cobra.Command, paths []string, f *batchFlags) (*source.FileSet, []*capture.Result, error) {
	mode, err := readUIMode(f.uiMode)
	if err != nil {
		return nil, nil, err
	}
	files, err := capture.Expand(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no %s files found", capture.Ext)
	}
	useCache := (a.cfg.Cache.Enabled || f.cache) && !f.noCache
	opts, err := a.captureOptions(f.entry, useCache)
	if err != nil {
		return nil, nil, err
	}
	if len(files) > 1 && shouldUseTUI(mode, cmd.ErrOrStderr()) {
		return runBatchWithUI(cmd.Context(), cmd.ErrOrStderr(), files, f.jobs, opts)
	}
	return capture.Batch(cmd.Context(), files, f.jobs, opts)
}

type batchOutcome struct {
	fs      *source.FileSet
	results []*capture.Result
	err     error
}

func runBatchWithUI(ctx context.Context, out io.Writer, files []string, jobs int, opts capture.Options) (*source.FileSet, []*capture.Result, error) {
	events := make(chan capture.Event, 256)
	done := make(chan batchOutcome, 1)
	go func() {
		opts.Progress = capture.ChannelSink{Ch: events}
		fs, results, err := capture.Batch(ctx, files, jobs, opts)
		done <- batchOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel("capturing", files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	outcome := <-done
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}

// reportFailures prints the diagnostics of every failed result and
// reports whether any failed.
func (a *app) reportFailures(w io.Writer, fs *source.FileSet, results []*capture.Result) (bool, error) {
	failed := false
	for _, r := range results {
		if r == nil || !r.Failed() {
			continue
		}
		failed = true
		r.Bag.Sort()
		if err := diagfmt.Pretty(w, r.Bag, fs, diagfmt.PrettyOpts{Color: a.color, ShowNotes: true}); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// mergeBags folds every result's diagnostics into one sorted bag.
func mergeBags(results []*capture.Result, max int) *diag.Bag {
	bag := diag.NewBag(max)
	for _, r := range results {
		if r != nil {
			bag.Merge(r.Bag)
		}
	}
	bag.Sort()
	return bag
}
