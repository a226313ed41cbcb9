package virt

import (
	"maps"
	"slices"
)

type nameSet map[string]struct{}

func (s nameSet) add(n string) { s[n] = struct{}{} }

func (s nameSet) has(n string) bool {
	_, ok := s[n]
	return ok
}

func (s nameSet) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Region is the write summary of one syntactic region: every variable
// written on some path through it.
type Region struct {
	May nameSet
}

// Writes returns the may-write set in sorted order.
func (r *Region) Writes() []string { return r.May.sorted() }

// Tracker is the def-use tracker: a stack of regions, one per nested
// branch or loop. Variable names are already resolved to one name per
// declaration, so a region's writes never alias an inner declaration.
type Tracker struct {
	stack []*Region
}

func NewTracker() *Tracker {
	return &Tracker{stack: []*Region{{May: nameSet{}}}}
}

func (t *Tracker) top() *Region { return t.stack[len(t.stack)-1] }

func (t *Tracker) Write(name string) {
	t.top().May.add(name)
}

// Push opens a branch or loop region.
func (t *Tracker) Push() { t.stack = append(t.stack, &Region{May: nameSet{}}) }

// Pop closes the innermost region without folding it.
func (t *Tracker) Pop() *Region {
	r := t.top()
	t.stack = t.stack[:len(t.stack)-1]
	return r
}

// Fold merges closed regions into the current one. Nil regions, such as
// a missing else branch, are skipped.
func (t *Tracker) Fold(regions ...*Region) {
	parent := t.top()
	for _, r := range regions {
		if r == nil {
			continue
		}
		for n := range r.May {
			parent.May.add(n)
		}
	}
}

// LoopBinds returns the names a loop must carry: every name the loop may
// write. Names with no value before the loop are dropped at stage time.
func LoopBinds(r *Region) []string {
	return r.Writes()
}
