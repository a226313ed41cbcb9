// Package stage holds the combinators a rewritten program calls while it
// is being staged: If, IfExpr, While, Select, Call and Define. They read
// and write variables through a Frame and append nodes to the State the
// Frame was created from.
package stage
