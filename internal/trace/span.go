package trace

import (
	"strconv"
	"sync/atomic"
	"time"
)

var (
	eventSeq atomic.Uint64
	spanSeq  atomic.Uint64
)

func nextSeq() uint64 { return eventSeq.Add(1) }

// Span is an open begin/end pair. A Span from a tracer that does not admit
// its scope is inert: every method is a no-op and ID returns 0.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   []Attr
}

// Begin emits the begin event of a new span. parent is 0 for roots.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	sp := &Span{
		tracer:  t,
		id:      spanSeq.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:   sp.started,
		Kind:   KindSpanBegin,
		Scope:  scope,
		Span:   sp.id,
		Parent: parent,
		Name:   name,
	})
	return sp
}

func (s *Span) live() bool { return s != nil && s.tracer != nil }

// Set records key=value on the end event; a later Set of the same key wins.
func (s *Span) Set(key, value string) *Span {
	if !s.live() {
		return s
	}
	for i := range s.attrs {
		if s.attrs[i].Key == key {
			s.attrs[i].Value = value
			return s
		}
	}
	s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	return s
}

// SetInt is Set with a decimal value.
func (s *Span) SetInt(key string, v int) *Span {
	return s.Set(key, strconv.Itoa(v))
}

// End emits the end event and returns the span's duration. Ending an inert
// span returns 0.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	now := time.Now()
	elapsed := now.Sub(s.started)
	s.tracer.Emit(&Event{
		Time:    now,
		Kind:    KindSpanEnd,
		Scope:   s.scope,
		Span:    s.id,
		Parent:  s.parent,
		Name:    s.name,
		Detail:  detail,
		Elapsed: elapsed,
		Attrs:   s.attrs,
	})
	return elapsed
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  scope,
		Parent: parent,
		Name:   name,
		Detail: detail,
	})
}
