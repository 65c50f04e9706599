package project

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ddddddO/gtree"
)

// DescribeOptions selects what Describe prints.
type DescribeOptions struct {
	Groups   bool
	Targets  bool
	Settings bool
}

// Describe prints the project as a tree: the group hierarchy and, per
// target, its phases, dependencies and optionally its build settings.
func Describe(w io.Writer, p *Project, opts DescribeOptions) error {
	root := gtree.NewRoot(p.Name)
	if opts.Groups {
		groups := root.Add("groups")
		for _, g := range p.MainGroup.Groups {
			addGroup(groups, g)
		}
	}
	if opts.Targets {
		targets := root.Add("targets")
		for _, t := range p.Targets {
			addTarget(targets, t, opts.Settings)
		}
	}
	return gtree.OutputProgrammably(w, root)
}

func addGroup(parent *gtree.Node, g *Group) {
	n := parent.Add(g.Name + "/")
	for _, c := range g.Groups {
		addGroup(n, c)
	}
	for _, f := range g.Files {
		n.Add(f.Name)
	}
}

func addTarget(parent *gtree.Node, t *NativeTarget, settings bool) {
	n := parent.Add(fmt.Sprintf("%s [%s]", t.Name, t.ModuleMap))
	for _, ph := range t.Phases {
		pn := n.Add(fmt.Sprintf("%s (%d)", ph.Kind, len(ph.Files)))
		base := commonDir(ph.Files)
		for _, bf := range ph.Files {
			label := relativeTo(base, bf.Ref)
			for _, a := range bf.Attributes {
				label += " @" + a
			}
			pn.Add(label)
		}
	}
	if len(t.Dependencies) > 0 {
		dn := n.Add("dependencies")
		for _, d := range t.Dependencies {
			dn.Add(d.Target.Name)
		}
	}
	if !settings {
		return
	}
	for _, c := range t.Configurations.Configurations {
		cn := n.Add(c.Name)
		for _, k := range sortedKeys(c.Settings) {
			cn.Add(fmt.Sprintf("%s = %s", k, c.Settings[k]))
		}
	}
}

// commonDir is the deepest directory holding every file of a phase. Labels
// are relative to it, so files sharing a name stay distinct nodes.
func commonDir(files []*BuildFile) string {
	if len(files) == 0 {
		return ""
	}
	base := filepath.Dir(files[0].Ref.Path)
	for _, bf := range files[1:] {
		for !within(base, bf.Ref.Path) {
			parent := filepath.Dir(base)
			if parent == base {
				break
			}
			base = parent
		}
	}
	return base
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func relativeTo(base string, ref *FileRef) string {
	if !within(base, ref.Path) {
		return ref.Name
	}
	rel, _ := filepath.Rel(base, ref.Path)
	return filepath.ToSlash(rel)
}
