// Package diag defines the diagnostic and error model shared by the
// transformer, the staging runtime and the CLI.
//
// Two shapes are provided:
//
//   - Diagnostic records (severity, code, primary span, notes) collected in a
//     Bag through a Reporter. The transformer reports every unsupported
//     construct it meets this way so that `argon check` can list all of them.
//   - *Error values, returned through ordinary Go error paths. An Error carries
//     a Code and the span of the offending symbol, and matches the sentinels
//     ErrNoState, ErrTypeMismatch, ErrUnsupported and ErrUndefined with
//     errors.Is.
//
// Package diag performs no formatting beyond Error() strings; rendering with
// source excerpts lives in cmd/argon.
package diag
