package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format is the output encoding of trace events.
type Format uint8

const (
	FormatAuto Format = iota
	FormatText
	FormatNDJSON
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// formatFor picks the encoding for an output path when format is FormatAuto.
func formatFor(format Format, path string) Format {
	if format != FormatAuto {
		return format
	}
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

// AppendEvent appends the encoding of ev to buf.
func AppendEvent(buf []byte, ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendNDJSON(buf, ev)
	}
	return appendText(buf, ev)
}

type jsonEvent struct {
	Time      string            `json:"time"`
	Seq       uint64            `json:"seq"`
	Kind      string            `json:"kind"`
	Scope     string            `json:"scope"`
	Span      uint64            `json:"span,omitempty"`
	Parent    uint64            `json:"parent,omitempty"`
	Name      string            `json:"name"`
	Detail    string            `json:"detail,omitempty"`
	ElapsedUS int64             `json:"elapsed_us,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

func appendNDJSON(buf []byte, ev *Event) []byte {
	je := jsonEvent{
		Time:      ev.Time.UTC().Format(time.RFC3339Nano),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		Span:      ev.Span,
		Parent:    ev.Parent,
		Name:      ev.Name,
		Detail:    ev.Detail,
		ElapsedUS: ev.Elapsed.Microseconds(),
	}
	if len(ev.Attrs) > 0 {
		je.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			je.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(je)
	if err != nil {
		return buf
	}
	buf = append(buf, data...)
	return append(buf, '\n')
}

// appendText renders "[seq] <indent>→ name (detail) 1.2ms k=v".
func appendText(buf []byte, ev *Event) []byte {
	buf = fmt.Appendf(buf, "[%06d] ", ev.Seq)
	for range ev.Scope.depth() {
		buf = append(buf, "  "...)
	}
	switch ev.Kind {
	case KindSpanBegin:
		buf = append(buf, "→ "...)
	case KindSpanEnd:
		buf = append(buf, "← "...)
	default:
		buf = append(buf, "• "...)
	}
	buf = append(buf, ev.Name...)
	if ev.Detail != "" {
		buf = fmt.Appendf(buf, " (%s)", ev.Detail)
	}
	if ev.Kind == KindSpanEnd {
		buf = fmt.Appendf(buf, " %s", ev.Elapsed.Round(time.Microsecond))
	}
	for _, a := range ev.Attrs {
		buf = fmt.Appendf(buf, " %s=%s", a.Key, a.Value)
	}
	return append(buf, '\n')
}
