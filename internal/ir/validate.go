package ir

import (
	"errors"
	"fmt"
)

// Validate checks graph invariants over b and its nested blocks:
// ids are unique and increase along every statement list, each operand
// is defined before its use, and each non-merge operand is visible from
// the using block.
func Validate(b *Block) error {
	v := &validator{seen: make(map[ID]struct{})}
	v.block(b, nil)
	return errors.Join(v.errs...)
}

type validator struct {
	seen map[ID]struct{}
	errs []error
}

type visScope struct {
	parent *visScope
	ids    map[ID]struct{}
}

func (s *visScope) visible(id ID) bool {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.ids[id]; ok {
			return true
		}
	}
	return false
}

func (v *validator) block(b *Block, parent *visScope) {
	scope := &visScope{parent: parent, ids: make(map[ID]struct{})}
	for _, in := range b.Inputs {
		if id, ok := in.ID(); ok {
			scope.ids[id] = struct{}{}
		}
	}

	var last ID
	for i, s := range b.Stmts {
		id, ok := s.ID()
		if !ok {
			v.errs = append(v.errs, fmt.Errorf("statement %d is a constant", i))
			continue
		}
		if i > 0 && id <= last {
			v.errs = append(v.errs, fmt.Errorf("%s: ids not increasing (after %%%d)", s, last))
		}
		last = id
		if _, dup := v.seen[id]; dup {
			v.errs = append(v.errs, fmt.Errorf("%s: id defined twice", s))
		}
		v.seen[id] = struct{}{}

		if op := s.Op(); op != nil {
			_, merge := op.(Merger)
			for _, in := range op.Inputs() {
				v.operand(s, in, scope, merge)
			}
			if n, ok := op.(Nester); ok {
				for _, nb := range n.Blocks() {
					v.block(nb.Block, scope)
				}
			}
		}
		scope.ids[id] = struct{}{}
	}
	if b.Result != nil {
		if id, ok := b.Result.ID(); ok && !scope.visible(id) {
			v.errs = append(v.errs, fmt.Errorf("result %s is not visible", b.Result))
		}
	}
}

func (v *validator) operand(user, in *Sym, scope *visScope, merge bool) {
	id, ok := in.ID()
	if !ok {
		if in.Def == nil {
			v.errs = append(v.errs, fmt.Errorf("%s: unassigned operand", user))
		}
		return
	}
	uid, _ := user.ID()
	if id >= uid {
		v.errs = append(v.errs, fmt.Errorf("%s: operand %s used before definition", user, in))
		return
	}
	if merge {
		if _, ok := v.seen[id]; !ok && !scope.visible(id) {
			v.errs = append(v.errs, fmt.Errorf("%s: merge operand %s never defined", user, in))
		}
		return
	}
	if !scope.visible(id) {
		v.errs = append(v.errs, fmt.Errorf("%s: operand %s is not visible", user, in))
	}
}
