// Package workspace manages the per-package .xcpack/ working directory.
//
// Directory layout:
//
//	<package>/.xcpack/
//	    settings.yaml                      # see internal/config
//	    project/                           # generated project, Info plists
//	    project/GeneratedModuleMap/<m>/    # synthesized module maps
//	    archives/<target>/<variant>/       # per-variant archives
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"xcpack/internal/config"
)

// Workspace is an initialized .xcpack directory.
type Workspace struct {
	Dir string
}

// Dir returns the workspace directory for the package at root: override
// when set, <root>/.xcpack otherwise.
func Dir(root, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(root, config.Dir)
}

// Init creates the workspace directory and errors if it already exists.
func Init(dir string) (*Workspace, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Open opens an existing workspace directory.
func Open(dir string) (*Workspace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace not found at %s (run 'xcpack init' first)", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", dir)
	}
	return &Workspace{Dir: dir}, nil
}

// ProjectDir holds the generated project, its Info plists and module maps.
func (w *Workspace) ProjectDir() string {
	return filepath.Join(w.Dir, "project")
}

// ArchiveDir is the per-variant archive directory of target.
func (w *Workspace) ArchiveDir(target, variant string) string {
	return filepath.Join(w.archivesDir(), target, variant)
}

func (w *Workspace) archivesDir() string {
	return filepath.Join(w.Dir, "archives")
}

// ResetArchive leaves the variant's archive directory existing and empty.
func (w *Workspace) ResetArchive(target, variant string) error {
	dir := w.ArchiveDir(target, variant)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("reset archive %s/%s: %w", target, variant, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reset archive %s/%s: %w", target, variant, err)
	}
	return nil
}

// ListArchives returns, per archived target, the variants that have an
// archive directory. Targets and variants are sorted.
func (w *Workspace) ListArchives() (map[string][]string, error) {
	targets, err := subdirs(w.archivesDir())
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(targets))
	for _, t := range targets {
		variants, err := subdirs(filepath.Join(w.archivesDir(), t))
		if err != nil {
			return nil, err
		}
		out[t] = variants
	}
	return out, nil
}

// Clean removes the archives of target, or every archive when target is
// empty. Removing nothing is not an error.
func (w *Workspace) Clean(target string) error {
	dir := w.archivesDir()
	if target != "" {
		dir = filepath.Join(dir, target)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clean archives: %w", err)
	}
	return nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
