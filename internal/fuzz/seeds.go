package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 16 << 10
)

var inlineSeeds = []string{
	"",
	"package p\n",
	"package p\nfunc f() {}\n",
	"package p\nfunc f(n int) int { if n > 0 { return 1 }; return 0 }\n",
	"package p\nfunc f(n int) int { for n > 0 { n-- }; return n }\n",
	"package p\nfunc f(b bool) int { x := 1; if b { x = 2 }; return x }\n",
	"package p\nfunc f(b bool) int { if b { y := 2; print(y) }; return 0 }\n",
	"package p\nfunc f(a, b float64) float64 { return ifelse(a > b, a, b) }\n",
	"package p\nfunc f(n int) int { return f(n) }\n",
	"package p\nfunc f(n int) int { for { n++ } }\n",
}

func addSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata", "programs")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		// #nosec G304 -- path comes from the repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clamp(src, maxSeedBytes))
		return nil
	})
}

func clamp(src []byte, n int) []byte {
	if len(src) > n {
		src = src[:n]
	}
	return append([]byte(nil), src...)
}
