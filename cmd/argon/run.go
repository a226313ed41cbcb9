package main

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"argon/internal/capture"
	"argon/internal/diag"
	"argon/internal/diagfmt"
	"argon/internal/eval"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/types"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		entry string
		dump  bool
	)
	cmd := &cobra.Command{
		Use:   "run [flags] <file.go> [args...]",
		Short: "Stage a function and evaluate its graph with the given arguments",
		Long: `run stages the entry function of a file and interprets the captured graph.
Arguments are parsed according to the entry function's parameter types.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.cfg.EntryOr(entry)
			if err != nil {
				return fmt.Errorf("%w: pass --entry", err)
			}
			opts, err := a.captureOptions(name, false)
			if err != nil {
				return err
			}

			fs := source.NewFileSet()
			id, err := fs.Load(args[0])
			if err != nil {
				return err
			}
			res, err := capture.File(cmd.Context(), fs, id, opts)
			out := cmd.OutOrStdout()
			if _, werr := out.Write(res.HostOutput); werr != nil {
				return werr
			}
			if err != nil {
				return a.report(cmd, fs, res.Bag)
			}
			if dump {
				if err := ir.Dump(cmd.ErrOrStderr(), res.Root, res.State.Types()); err != nil {
					return err
				}
			}

			fn := res.Funcs[name]
			in := res.State.Types()
			vals, err := parseArgs(in, fn, args[1:])
			if err != nil {
				return err
			}

			m := eval.New(in, out)
			m.Tracer = a.tracer
			if a.cfg.Stage.MaxSteps > 0 {
				if m.MaxSteps, err = safecast.Conv[int](a.cfg.Stage.MaxSteps); err != nil {
					return fmt.Errorf("[stage].max_steps: %w", err)
				}
			}
			stop := a.timer.Start("eval")
			v, err := m.Call(fn, vals)
			stop("")
			if err != nil {
				bag := diag.NewBag(1)
				if de, ok := diag.AsError(err); ok {
					bag.Add(de.Diagnostic())
				} else {
					bag.Add(diag.New(diag.SevError, diag.UnknownCode, source.NoSpan, err.Error()))
				}
				return a.report(cmd, fs, bag)
			}
			_, err = fmt.Fprintln(out, v.String())
			return err
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "function to run (default: [stage].entry)")
	cmd.Flags().BoolVar(&dump, "dump", false, "print the captured graph to stderr before running")
	return cmd
}

func parseArgs(in *types.Interner, fn *ir.Sym, args []string) ([]eval.Value, error) {
	info, ok := in.FuncInfo(fn.Type)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", fn)
	}
	if len(args) != len(info.Params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", in.Name(fn.Type), len(info.Params), len(args))
	}
	vals := make([]eval.Value, len(args))
	for i, s := range args {
		v, err := eval.ParseArg(in, info.Params[i], s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func (a *app) report(cmd *cobra.Command, fs *source.FileSet, bag *diag.Bag) error {
	bag.Sort()
	if err := diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: a.color, ShowNotes: true}); err != nil {
		return err
	}
	return errReported
}
