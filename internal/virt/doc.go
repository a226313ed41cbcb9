// Package virt is the transformer. It parses a Go subset with go/parser
// and compiles each function into a closure tree whose control flow calls
// the stage combinators instead of running natively.
//
// Everything decidable from syntax happens here, once per file: which
// variables each branch writes, which variables a loop carries, and
// which constructs cannot be staged. The closures then stage one graph
// per State they are run against.
package virt
