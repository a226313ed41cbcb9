package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCollect_Defaults(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "  "
	if got := Collect().Version; got != "dev" {
		t.Errorf("Collect().Version = %q, want dev", got)
	}
	Version = " 1.2.3 "
	if got := Collect().Version; got != "1.2.3" {
		t.Errorf("Collect().Version = %q, want 1.2.3", got)
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []string{"0.1.0-dev", "1.2.3", "1.2.3+build.7", "dev", "1.2"}
	for _, v := range tests {
		if got := Colored(v); got != v {
			t.Errorf("Colored(%q) without color = %q", v, got)
		}
	}

	color.NoColor = false
	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Errorf("Colored(1.2.3) with color should add escapes")
	}
}
