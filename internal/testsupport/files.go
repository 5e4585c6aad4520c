package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WritePlot writes plot text to name under dir and returns the path.
func WritePlot(t testing.TB, dir, name, plot string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(plot), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
