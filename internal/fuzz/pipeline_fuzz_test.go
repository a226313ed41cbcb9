package fuzztests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"argon/internal/diag"
	"argon/internal/eval"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/stage"
	"argon/internal/state"
	"argon/internal/testkit"
	"argon/internal/virt"
)

// stageTimeout bounds one input; staging runs every host body once, so a
// slow input points at a runaway loop in the pipeline itself.
const stageTimeout = 5 * time.Second

type staged struct {
	fs    *source.FileSet
	st    *state.State
	funcs []*ir.Sym
}

// stageAll rewrites input and stages every function. A nil result with a
// nil error means the input was rejected the expected way.
func stageAll(input []byte) (*staged, error) {
	fs := source.NewFileSet()
	mod, err := virt.ParseSource(fs, "fuzz.go", input, virt.Options{MaxDiagnostics: 64})
	if err != nil {
		var rw *virt.RewriteError
		if !errors.As(err, &rw) {
			return nil, fmt.Errorf("rewrite failed without diagnostics: %w", err)
		}
		if !rw.Bag.HasErrors() {
			return nil, errors.New("rewrite error with an empty bag")
		}
		return nil, nil
	}
	st := state.New()
	fr, err := stage.NewFrame(state.With(context.Background(), st), mod, stage.DefaultWhitelist(io.Discard))
	if err != nil {
		return nil, err
	}
	out := &staged{fs: fs, st: st}
	for _, name := range mod.Order {
		sym, err := stage.Define(fr, mod.Funcs[name])
		if err != nil {
			if _, ok := diag.AsError(err); !ok {
				return nil, fmt.Errorf("staging %s failed without a code: %w", name, err)
			}
			return nil, nil
		}
		out.funcs = append(out.funcs, sym)
	}
	return out, nil
}

func FuzzRewriteAndStage(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		done := make(chan struct{})
		go func() {
			defer close(done)
			s, err := stageAll(input)
			if err != nil {
				t.Error(err)
				return
			}
			if s == nil {
				return
			}
			root := s.st.Root().Block(nil)
			if err := ir.Validate(root); err != nil {
				t.Errorf("staged graph does not validate: %v\n%s", err, ir.DumpString(root, s.st.Types()))
			}
			if err := testkit.CheckSpanInvariants(root, s.fs); err != nil {
				t.Errorf("span invariants: %v", err)
			}
		}()
		select {
		case <-done:
		case <-time.After(stageTimeout):
			t.Fatalf("staging took longer than %v on %q", stageTimeout, clamp(input, 200))
		}
	})
}

// FuzzEvalBounded runs every staged function whose parameters are all int
// with small arguments. Runtime errors are fine; they must carry a code.
func FuzzEvalBounded(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		s, err := stageAll(clamp(input, maxFuzzInput))
		if err != nil {
			t.Fatal(err)
		}
		if s == nil {
			return
		}
		in := s.st.Types()
		for _, fn := range s.funcs {
			info, ok := in.FuncInfo(fn.Type)
			if !ok {
				t.Fatalf("%s has non-function type %s", fn, in.Name(fn.Type))
			}
			args := make([]eval.Value, len(info.Params))
			allInt := true
			for i, p := range info.Params {
				if p != in.Builtins().Int {
					allInt = false
					break
				}
				args[i] = eval.MakeInt(int64(i + 3))
			}
			if !allInt {
				continue
			}
			m := eval.New(in, io.Discard)
			m.MaxSteps = 1000
			if _, err := m.Call(fn, args); err != nil {
				if _, ok := diag.AsError(err); !ok {
					t.Errorf("eval of %s failed without a code: %v", fn, err)
				}
			}
		}
	})
}
