package virt

import "golang.org/x/text/unicode/norm"

// resultVar holds the value of the function's return statements. It can
// never collide with a Go identifier.
const resultVar = ".result"

// key canonicalises an identifier so that composed and decomposed
// spellings of the same name share one variable.
func key(name string) string {
	if norm.NFC.IsNormalString(name) {
		return name
	}
	return norm.NFC.String(name)
}
