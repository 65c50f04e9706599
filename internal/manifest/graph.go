package manifest

// graph.go - resolved package graph: the root package plus every package it
// transitively declares, loaded once each.

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Graph is the resolved dependency graph. It is read-only after LoadGraph.
type Graph struct {
	Root     *Package
	Packages []*Package

	byName   map[string]*Package
	byTarget map[string]*Package
}

// LoadGraph loads the package at root and all packages reachable through
// manifest dependencies. Package directories are visited breadth-first and
// each is loaded exactly once.
func LoadGraph(root string) (*Graph, error) {
	rootPkg, err := LoadPackage(root)
	if err != nil {
		return nil, err
	}
	g := &Graph{Root: rootPkg}
	if err := g.add(rootPkg); err != nil {
		return nil, err
	}

	visited := map[string]bool{rootPkg.Root: true}
	queue := []*Package{rootPkg}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, rel := range p.Dependencies {
			dir := rel
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(p.Root, rel)
			}
			dir = filepath.Clean(dir)
			if visited[dir] {
				continue
			}
			visited[dir] = true
			dep, err := LoadPackage(dir)
			if err != nil {
				return nil, fmt.Errorf("manifest: dependency %q of %q: %w", rel, p.Name, err)
			}
			if err := g.add(dep); err != nil {
				return nil, err
			}
			queue = append(queue, dep)
		}
	}
	return g, nil
}

// NewGraph assembles a graph from already-loaded packages. The first package
// is the root.
func NewGraph(pkgs ...*Package) (*Graph, error) {
	g := &Graph{}
	for _, p := range pkgs {
		for _, t := range p.Targets {
			t.pkg = p
			if t.Language == "" {
				t.Language = LanguageSwift
			}
		}
		if err := g.add(p); err != nil {
			return nil, err
		}
	}
	if len(pkgs) > 0 {
		g.Root = pkgs[0]
	}
	return g, nil
}

// add registers p. Target names are unique across the whole graph: a
// project holds one native target, product and Info descriptor per name.
func (g *Graph) add(p *Package) error {
	if g.byName == nil {
		g.byName = make(map[string]*Package)
		g.byTarget = make(map[string]*Package)
	}
	if _, dup := g.byName[p.Name]; dup {
		return &InvalidPackageError{Root: p.Root, Err: fmt.Errorf("package %q declared twice", p.Name)}
	}
	for _, t := range p.Targets {
		if owner, dup := g.byTarget[t.Name]; dup {
			if owner == p {
				return &InvalidPackageError{Root: p.Root, Err: fmt.Errorf("duplicate target %q", t.Name)}
			}
			return &InvalidPackageError{Root: p.Root, Err: fmt.Errorf("target %q of package %q conflicts with package %q", t.Name, p.Name, owner.Name)}
		}
		g.byTarget[t.Name] = p
	}
	g.byName[p.Name] = p
	g.Packages = append(g.Packages, p)
	return nil
}

// Package returns the loaded package with the given name, or nil.
func (g *Graph) Package(name string) *Package {
	return g.byName[name]
}

// FindTarget looks a target up by name, searching the root package first.
func (g *Graph) FindTarget(name string) *Target {
	if g.Root != nil {
		if t := g.Root.Target(name); t != nil {
			return t
		}
	}
	for _, p := range g.Packages {
		if t := p.Target(name); t != nil {
			return t
		}
	}
	return nil
}

// DirectDependencies resolves t's dependency entries to targets, in
// declaration order and without duplicates. Target entries resolve within
// t's package. Product entries resolve to the product's targets; products
// that are not libraries are product-only and contribute nothing.
func (g *Graph) DirectDependencies(t *Target) ([]*Target, error) {
	var out []*Target
	seen := make(map[*Target]bool)
	appendTarget := func(d *Target) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	for _, dep := range t.Dependencies {
		if dep.Target != "" {
			d := t.pkg.Target(dep.Target)
			if d == nil {
				return nil, unknownDependency(t.Name, dep)
			}
			appendTarget(d)
			continue
		}
		owner, product := g.resolveProduct(dep)
		if product == nil {
			return nil, unknownDependency(t.Name, dep)
		}
		if product.Kind != ProductLibrary {
			continue
		}
		for _, name := range product.Targets {
			appendTarget(owner.Target(name))
		}
	}
	return out, nil
}

func (g *Graph) resolveProduct(dep Dependency) (*Package, *Product) {
	if dep.Package != "" {
		p := g.byName[dep.Package]
		if p == nil {
			return nil, nil
		}
		return p, p.Product(dep.Product)
	}
	for _, p := range g.Packages {
		if pr := p.Product(dep.Product); pr != nil {
			return p, pr
		}
	}
	return nil, nil
}

// ReachableLibraries returns every target in the closure of the root
// package's library products, sorted by name. When the root vends no library
// product, its library targets seed the closure instead. Any non-library
// target reached on the way is an UnsupportedTargetKindError.
func (g *Graph) ReachableLibraries() ([]*Target, error) {
	if g == nil || g.Root == nil {
		return nil, &InvalidPackageError{Err: fmt.Errorf("graph has no root package")}
	}

	var seeds []*Target
	for _, pr := range g.Root.Products {
		if pr.Kind != ProductLibrary {
			continue
		}
		for _, name := range pr.Targets {
			seeds = append(seeds, g.Root.Target(name))
		}
	}
	if len(seeds) == 0 {
		for _, t := range g.Root.Targets {
			if t.Kind == KindLibrary {
				seeds = append(seeds, t)
			}
		}
	}

	visited := make(map[*Target]bool)
	var out []*Target
	var visit func(t *Target, via string) error
	visit = func(t *Target, via string) error {
		if visited[t] {
			return nil
		}
		visited[t] = true
		if t.Kind != KindLibrary {
			return &UnsupportedTargetKindError{Target: t.Name, Kind: t.Kind, Via: via}
		}
		out = append(out, t)
		deps, err := g.DirectDependencies(t)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if err := visit(d, t.Name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, s := range seeds {
		if err := visit(s, ""); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].pkg.Name < out[j].pkg.Name
	})
	return out, nil
}
