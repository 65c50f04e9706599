package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"xcpack/internal/manifest"
)

// Filter excludes package-relative paths (forward slashes) from generation.
type Filter interface {
	IsDenied(relPath string) bool
}

var sourceExtensions = map[string]bool{
	".swift": true,
	".c":     true,
	".m":     true,
	".mm":    true,
	".cpp":   true,
	".cc":    true,
	".cxx":   true,
	".s":     true,
	".S":     true,
}

// collectSources returns the absolute paths of t's compilable files, sorted.
// Hidden directories, the target's manifest excludes and paths denied by
// filter are skipped.
func collectSources(t *manifest.Target, filter Filter) ([]string, error) {
	dir := t.Dir()
	pkgRoot := t.Package().Root
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if path != dir && excluded(t.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[filepath.Ext(path)] || excluded(t.Exclude, rel) {
			return nil
		}
		if filter != nil {
			pkgRel, _ := filepath.Rel(pkgRoot, path)
			if filter.IsDenied(filepath.ToSlash(pkgRel)) {
				return nil
			}
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("project: sources of %s: %w", t.Name, err)
	}
	sort.Strings(out)
	return out, nil
}

// excluded reports whether rel (relative to the target directory) equals or
// lies beneath one of the manifest's exclude entries.
func excluded(excludes []string, rel string) bool {
	for _, e := range excludes {
		e = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(e)), "/")
		if rel == e || strings.HasPrefix(rel, e+"/") {
			return true
		}
	}
	return false
}
