package project

// builder.go - graph to project translation.
//
// Generation order is fixed so output is reproducible: targets are created in
// name order, then each target's sources, headers and module map are
// resolved, and finally dependency edges and link phases are added once every
// native target exists.

import (
	"fmt"
	"path/filepath"
	"strings"

	"xcpack/internal/manifest"
	"xcpack/internal/modulemap"
)

// BuildOptions parameterizes one generation run.
type BuildOptions struct {
	// ProjectDir receives Info descriptors and generated module maps.
	ProjectDir string
	// Platforms become SUPPORTED_PLATFORMS when non-empty.
	Platforms []string
	// DeploymentTargets are extra project settings, e.g.
	// IPHONEOS_DEPLOYMENT_TARGET: "15.0".
	DeploymentTargets map[string]string
	// BundleIDPrefix prefixes every PRODUCT_BUNDLE_IDENTIFIER.
	BundleIDPrefix string
	// Filter, when set, hides source files from every target.
	Filter Filter
	// Policy resolves module-map strategies; a fresh one is used when nil.
	Policy *modulemap.Policy
}

type builder struct {
	graph   *manifest.Graph
	opts    BuildOptions
	policy  *modulemap.Policy
	project *Project
}

// pending carries a target between the per-target pass and the dependency
// pass.
type pending struct {
	source  *manifest.Target
	native  *NativeTarget
	sources *BuildPhase
	headers *BuildPhase
}

// Generate translates the reachable library closure of g into a Project.
func Generate(g *manifest.Graph, opts BuildOptions) (*Project, error) {
	if g == nil || g.Root == nil {
		return nil, &manifest.InvalidPackageError{Err: fmt.Errorf("graph has no root package")}
	}
	if opts.ProjectDir == "" {
		return nil, fmt.Errorf("project: build options: empty project dir")
	}
	libs, err := g.ReachableLibraries()
	if err != nil {
		return nil, err
	}

	b := &builder{graph: g, opts: opts, policy: opts.Policy}
	if b.policy == nil {
		if b.policy, err = modulemap.NewPolicy(modulemap.DefaultCacheSize); err != nil {
			return nil, err
		}
	}
	b.project = &Project{
		Name:           g.Root.Name,
		Dir:            opts.ProjectDir,
		Configurations: projectConfigurations(opts),
		MainGroup:      newGroup("", ""),
		ProductsGroup:  newGroup("Products", ""),
	}

	all := make([]*pending, 0, len(libs))
	byTarget := make(map[*manifest.Target]*pending, len(libs))
	for _, t := range libs {
		p, err := b.target(t)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
		byTarget[t] = p
		b.project.Targets = append(b.project.Targets, p.native)
	}

	for _, p := range all {
		if err := b.link(p, byTarget); err != nil {
			return nil, err
		}
	}
	return b.project, nil
}

// target creates the native target of t with its sources, headers and module
// map.
func (b *builder) target(t *manifest.Target) (*pending, error) {
	module := t.ModuleName()
	info, err := writeInfoPlist(b.opts.ProjectDir, module)
	if err != nil {
		return nil, err
	}
	nt := &NativeTarget{
		Name:        t.Name,
		ModuleName:  module,
		ProductType: ProductTypeFramework,
		InfoPlist:   info,
		Product:     b.project.ProductsGroup.file(module + ".framework"),
	}
	nt.Configurations = targetConfigurations(nt, b.opts.BundleIDPrefix, nil)
	p := &pending{source: t, native: nt, sources: &BuildPhase{Kind: PhaseSources}}

	files, err := collectSources(t, b.opts.Filter)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		ref, err := b.fileRef(t.Package(), f)
		if err != nil {
			return nil, err
		}
		p.sources.Files = append(p.sources.Files, &BuildFile{Ref: ref})
	}

	if t.Language.IsCFamily() {
		if err := b.moduleMap(t, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// moduleMap applies the target's module-map strategy.
func (b *builder) moduleMap(t *manifest.Target, p *pending) error {
	nt := p.native
	nt.ModuleMap = b.policy.Resolve(modulemap.InputFor(t))
	switch nt.ModuleMap.Kind() {
	case modulemap.KindUmbrellaHeader:
		p.headers = &BuildPhase{Kind: PhaseHeaders}
		for _, h := range b.policy.Headers(t.IncludeDir()) {
			ref, err := b.fileRef(t.Package(), h)
			if err != nil {
				return err
			}
			p.headers.Files = append(p.headers.Files, &BuildFile{Ref: ref, Attributes: []string{AttributePublic}})
		}
	case modulemap.KindGenerated:
		path, err := modulemap.Generate(b.opts.ProjectDir, nt.ModuleName, t.IncludeDir(), nt.ModuleMap.GeneratedKind())
		if err != nil {
			return err
		}
		nt.ModuleMapPath = path
	case modulemap.KindCustom:
		nt.ModuleMapPath = nt.ModuleMap.Path()
	}
	if nt.ModuleMapPath != "" {
		nt.Configurations.setAll("MODULEMAP_FILE", nt.ModuleMapPath)
	}
	return nil
}

// link adds one dependency edge and one link-phase entry per direct
// dependency, then fixes the phase order.
func (b *builder) link(p *pending, byTarget map[*manifest.Target]*pending) error {
	deps, err := b.graph.DirectDependencies(p.source)
	if err != nil {
		return err
	}
	frameworks := &BuildPhase{Kind: PhaseFrameworks}
	var searchPaths []string
	for _, d := range deps {
		dp, ok := byTarget[d]
		if !ok {
			return &manifest.UnsupportedTargetKindError{Target: d.Name, Kind: d.Kind, Via: p.source.Name}
		}
		p.native.Dependencies = append(p.native.Dependencies, &TargetDependency{Target: dp.native})
		if p.source.Kind == manifest.KindLibrary {
			frameworks.Files = append(frameworks.Files, &BuildFile{Ref: dp.native.Product})
		}
		if inc := d.IncludeDir(); inc != "" {
			searchPaths = append(searchPaths, fmt.Sprintf("%q", inc))
		}
	}
	if len(searchPaths) > 0 {
		p.native.Configurations.setAll("HEADER_SEARCH_PATHS", "$(inherited) "+strings.Join(searchPaths, " "))
	}

	p.native.Phases = append(p.native.Phases, p.sources, frameworks)
	if p.headers != nil {
		p.native.Phases = append(p.native.Phases, p.headers)
	}
	return nil
}

// fileRef attaches path to the group tree of its package and returns the
// file reference.
func (b *builder) fileRef(pkg *manifest.Package, path string) (*FileRef, error) {
	pkgGroup := b.project.MainGroup.child(pkg.Name, pkg.Root)
	g, err := ResolveGroup(pkgGroup, pkg.Root, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return g.file(path), nil
}
