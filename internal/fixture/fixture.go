// Package fixture materializes txtar archives as on-disk package trees for
// tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// WriteTree writes every file of the txtar archive under a fresh temp dir
// and returns that dir.
func WriteTree(t testing.TB, archive string) string {
	t.Helper()
	root := t.TempDir()
	if err := Extract(root, archive); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return root
}

// Extract writes every file of the txtar archive under root.
func Extract(root, archive string) error {
	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
