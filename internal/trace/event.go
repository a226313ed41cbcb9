package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeDriver  Scope = iota + 1 // CLI command
	ScopePass                     // parse, rewrite, stage, validate, export
	ScopeCapture                  // one file, one staged function or one evaluation
	ScopeNode                     // one staged node or bound symbol
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeCapture:
		return "capture"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// depth is the indentation of the scope in text output.
func (s Scope) depth() int {
	if s == 0 {
		return 0
	}
	return int(s) - 1
}

// Attr is one key/value annotation of a span end event.
type Attr struct {
	Key   string
	Value string
}

// Event is a single trace record. Seq is assigned by the tracer that
// stores or writes the event.
type Event struct {
	Time    time.Time
	Seq     uint64
	Kind    Kind
	Scope   Scope
	Span    uint64
	Parent  uint64
	Name    string
	Detail  string
	Elapsed time.Duration // set on span end events
	Attrs   []Attr
}

// Attr returns the value recorded for key.
func (e *Event) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
