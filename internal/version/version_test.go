package version

import "testing"

func TestStringIncludesAllFields(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	got := String()
	if got != "1.2.3 (commit unknown, built unknown)" {
		t.Fatalf("unexpected version string: %q", got)
	}
}
