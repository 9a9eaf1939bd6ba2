package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	if got := ExpandPath("/tmp/runs.db"); got != "/tmp/runs.db" {
		t.Errorf("expected absolute path unchanged, got %s", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("expected empty path unchanged, got %s", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/.llmmapper/cache"); got != filepath.Join(home, ".llmmapper", "cache") {
		t.Errorf("unexpected expansion: %s", got)
	}
}
