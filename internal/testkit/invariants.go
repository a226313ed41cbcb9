// Package testkit holds invariant checks shared by tests and fuzz harnesses.
package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"argon/internal/ir"
	"argon/internal/source"
)

// CheckSpanInvariants verifies every statement span of b and its nested
// blocks: the file is known to fs, the span is not inverted, and its end
// lies within the file content. Spans equal to source.NoSpan are skipped.
func CheckSpanInvariants(b *ir.Block, fs *source.FileSet) error {
	if b == nil || fs == nil {
		return fmt.Errorf("nil block or file set")
	}
	var errs []error
	b.Walk(func(s *ir.Sym, _ int) {
		if err := checkSpan(s, fs); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

func checkSpan(s *ir.Sym, fs *source.FileSet) error {
	sp := s.Span
	if sp == source.NoSpan {
		return nil
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("%s: span points to unknown file %d", s, sp.File)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("%s: inverted span %d..%d", s, sp.Start, sp.End)
	}
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("%s: content length overflow: %w", s, err)
	}
	if sp.End > n {
		return fmt.Errorf("%s: span end %d beyond content %d of %s", s, sp.End, n, f.Path)
	}
	return nil
}
