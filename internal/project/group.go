package project

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveGroup returns the group mirroring dir beneath parent, where parent
// mirrors root. One path segment is consumed per step: an existing child of
// that name is reused, otherwise a new child is created. When dir equals root
// the parent itself is returned. Resolving the same (dir, root) pair twice
// yields the same group.
func ResolveGroup(parent *Group, root, dir string) (*Group, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, fmt.Errorf("project: group for %s: %w", dir, err)
	}
	if rel == "." {
		return parent, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("project: group for %s: outside %s", dir, root)
	}
	head, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	next := filepath.Join(root, head)
	return ResolveGroup(parent.child(head, next), next, dir)
}
