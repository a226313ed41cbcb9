package trace

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"
)

// RingTracer keeps the last capacity admitted events in memory.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	next   int
	count  int
	level  Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	stored.Attrs = slices.Clone(ev.Attrs)
	t.mu.Lock()
	defer t.mu.Unlock()
	stored.Seq = nextSeq()
	t.events[t.next] = stored
	t.next = (t.next + 1) % len(t.events)
	t.count = min(t.count+1, len(t.events))
}

// Snapshot returns the stored events oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	start := (t.next - t.count + len(t.events)) % len(t.events)
	for i := range t.count {
		out = append(out, t.events[(start+i)%len(t.events)])
	}
	return out
}

// Dump writes the snapshot to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	var buf []byte
	for _, ev := range t.Snapshot() {
		buf = AppendEvent(buf[:0], &ev, formatFor(format, ""))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// SpanStat totals the finished spans sharing a scope and name.
type SpanStat struct {
	Scope Scope
	Name  string
	Count int
	Total time.Duration
}

// Summarize totals the span end events of events, slowest first. Spans
// that never ended are listed with Count 0 after the finished ones.
func Summarize(events []Event) []SpanStat {
	type key struct {
		scope Scope
		name  string
	}
	idx := make(map[key]int)
	var stats []SpanStat
	open := make(map[uint64]Event)
	for _, ev := range events {
		switch ev.Kind {
		case KindSpanBegin:
			open[ev.Span] = ev
		case KindSpanEnd:
			delete(open, ev.Span)
			k := key{ev.Scope, ev.Name}
			i, ok := idx[k]
			if !ok {
				i = len(stats)
				idx[k] = i
				stats = append(stats, SpanStat{Scope: ev.Scope, Name: ev.Name})
			}
			stats[i].Count++
			stats[i].Total += ev.Elapsed
		}
	}
	slices.SortStableFunc(stats, func(a, b SpanStat) int {
		return cmp.Compare(b.Total, a.Total)
	})
	ids := make([]uint64, 0, len(open))
	for id := range open {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		ev := open[id]
		stats = append(stats, SpanStat{Scope: ev.Scope, Name: ev.Name})
	}
	return stats
}

// WriteSummary writes Summarize of the snapshot, one span per line.
func (t *RingTracer) WriteSummary(w io.Writer) error {
	for _, s := range Summarize(t.Snapshot()) {
		var err error
		if s.Count == 0 {
			_, err = fmt.Fprintf(w, "  %-8s %-32s unfinished\n", s.Scope, s.Name)
		} else {
			_, err = fmt.Fprintf(w, "  %-8s %-32s %10s x%d\n", s.Scope, s.Name, s.Total.Round(time.Microsecond), s.Count)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
