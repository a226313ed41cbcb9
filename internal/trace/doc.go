// Package trace is the structured logging layer of argon.
//
// A Tracer receives Events: span begin/end pairs for the CLI command, the
// capture passes and every staged function or evaluation, and point events
// for individual staged nodes. Every event carries a Scope and is dropped
// when the tracer's Level does not admit it.
//
//	ctx, sp := trace.BeginCtx(ctx, trace.ScopePass, "rewrite")
//	defer func() { sp.SetInt("funcs", n).End("") }()
//
// StreamTracer writes text or NDJSON lines as events arrive; RingTracer
// keeps the most recent events so a failed run can dump them together
// with per-span totals.
package trace
