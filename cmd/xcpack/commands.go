package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xcpack/internal/archive"
	"xcpack/internal/config"
	"xcpack/internal/manifest"
	"xcpack/internal/project"
	"xcpack/internal/publish"
	"xcpack/internal/workspace"
	"xcpack/internal/xcodebuild"
)

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

type InitCmd struct {
	Yes bool `help:"Accept the defaults without prompting." short:"y"`
}

var initQuestions = []question{
	{Key: "configuration", Prompt: "Build configuration (debug/release)", Default: "release", Check: func(v string) error {
		_, err := manifest.ParseBuildConfiguration(v)
		return err
	}},
	{Key: "variants", Prompt: "Variants, comma separated", Default: "ios,ios-simulator", Check: func(v string) error {
		_, err := splitVariants(v)
		return err
	}},
	{Key: "output", Prompt: "Output directory", Default: "build"},
}

func (c *InitCmd) Run(a *app) error {
	dir, err := a.workspaceDir()
	if err != nil {
		return err
	}
	if _, err := workspace.Init(dir); err != nil {
		return err
	}
	a.printf("created workspace at %s\n", dir)

	if _, err := os.Stat(config.Path(a.root)); err == nil {
		a.printf("keeping existing %s\n", config.Path(a.root))
		return nil
	}
	answers := defaults(initQuestions)
	if !c.Yes {
		if answers, err = promptQuestions(initQuestions); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}
	s, err := settingsFromAnswers(answers)
	if err != nil {
		return err
	}
	if err := config.Save(a.root, s); err != nil {
		return err
	}
	a.printf("wrote %s\n", config.Path(a.root))
	return nil
}

func settingsFromAnswers(answers map[string]string) (*config.Settings, error) {
	cfg, err := manifest.ParseBuildConfiguration(answers["configuration"])
	if err != nil {
		return nil, err
	}
	variants, err := splitVariants(answers["variants"])
	if err != nil {
		return nil, err
	}
	return &config.Settings{Build: config.Build{
		Configuration: strings.ToLower(cfg.String()),
		Variants:      variants,
		Output:        strings.TrimSpace(answers["output"]),
	}}, nil
}

// splitVariants parses a comma-separated variant list, skipping blanks.
func splitVariants(list string) ([]string, error) {
	var variants []string
	for _, v := range strings.Split(list, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := archive.LookupVariant(v); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// ---------------------------------------------------------------------------
// generate / describe
// ---------------------------------------------------------------------------

type GenerateCmd struct {
	BundlePrefix string `help:"Prefix of every bundle identifier." placeholder:"com.example"`
}

func (c *GenerateCmd) Run(a *app) error {
	p, ws, err := a.generate(c.BundlePrefix)
	if err != nil {
		return err
	}
	path, err := project.YAMLWriter{}.Write(p, ws.ProjectDir())
	if err != nil {
		return err
	}
	a.printf("generated %d targets → %s\n", len(p.Targets), path)
	return nil
}

type DescribeCmd struct {
	Groups   bool `help:"Print the group tree." default:"true" negatable:""`
	Targets  bool `help:"Print targets, phases and dependencies." default:"true" negatable:""`
	Settings bool `help:"Print target build settings."`
}

func (c *DescribeCmd) Run(a *app) error {
	p, _, err := a.generate("")
	if err != nil {
		return err
	}
	return project.Describe(a.stdout, p, project.DescribeOptions{
		Groups:   c.Groups,
		Targets:  c.Targets,
		Settings: c.Settings,
	})
}

// generate builds the project model of the package into the workspace.
func (a *app) generate(bundlePrefix string) (*project.Project, *workspace.Workspace, error) {
	s, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	ws, err := a.workspace()
	if err != nil {
		return nil, nil, err
	}
	g, err := manifest.LoadGraph(a.root)
	if err != nil {
		return nil, nil, err
	}
	sdks, err := platforms(s.Build.Variants)
	if err != nil {
		return nil, nil, err
	}
	p, err := project.Generate(g, project.BuildOptions{
		ProjectDir:     ws.ProjectDir(),
		Platforms:      sdks,
		BundleIDPrefix: bundlePrefix,
		Filter:         s,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, ws, nil
}

// platforms maps variant identifiers to their distinct SDK names.
func platforms(variants []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, id := range variants {
		v, err := archive.LookupVariant(id)
		if err != nil {
			return nil, err
		}
		if !seen[v.SDK] {
			seen[v.SDK] = true
			out = append(out, v.SDK)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// assemble
// ---------------------------------------------------------------------------

type AssembleCmd struct {
	Product       string   `arg:"" help:"Library product or library target to assemble."`
	Output        string   `help:"Directory receiving the merged framework." short:"o" type:"path"`
	Overwrite     bool     `help:"Replace an existing merged framework."`
	DebugSymbols  bool     `help:"Embed each variant's debug symbols."`
	Variant       []string `help:"Platform variant, repeatable. See 'xcpack variants'." short:"p"`
	Configuration string   `help:"Build configuration: debug or release."`
	Publish       bool     `help:"Upload the merged framework to the configured bucket."`
}

func (c *AssembleCmd) Run(a *app) error {
	s, err := a.config()
	if err != nil {
		return err
	}
	ws, err := a.workspace()
	if err != nil {
		return err
	}
	g, err := manifest.LoadGraph(a.root)
	if err != nil {
		return err
	}
	target, err := resolveTarget(g, c.Product)
	if err != nil {
		return err
	}
	cfg, err := manifest.ParseBuildConfiguration(firstSet(c.Configuration, s.Build.Configuration))
	if err != nil {
		return err
	}
	variants := c.Variant
	if len(variants) == 0 {
		variants = s.Build.Variants
	}
	// Only listed variants are accepted on the command line.
	if _, err := platforms(variants); err != nil {
		return err
	}
	output := firstSet(c.Output, s.Build.Output, "build")

	var reporter archive.Reporter = archive.NopReporter{}
	if a.verbose {
		reporter = archive.LogReporter{Logger: a.logger}
	}
	o := &archive.Orchestrator{
		Planner:   &archive.Planner{Dirs: ws},
		Toolchain: &xcodebuild.Toolchain{PackageRoot: a.root},
		Symbols:   &xcodebuild.SymbolExtractor{},
		Reporter:  reporter,
	}
	art, err := o.Assemble(a.ctx, archive.Request{
		Product:           archive.NewBuildProduct(target.Name, cfg, variants...),
		OutputDir:         absUnder(a.root, output),
		Overwrite:         c.Overwrite || s.Build.Overwrite,
		EmbedDebugSymbols: c.DebugSymbols || s.Build.DebugSymbols,
	})
	if err != nil {
		return err
	}
	a.printf("assembled %s (%d variants) → %s\n", target.Name, len(art.Inputs), art.Path)

	if !c.Publish {
		return nil
	}
	pub, err := publish.New(s.Publish)
	if errors.Is(err, publish.ErrDisabled) {
		return fmt.Errorf("--publish: set publish.endpoint and publish.bucket in %s or %s/%s", config.Path(a.root), config.EnvS3Endpoint, config.EnvS3Bucket)
	}
	if err != nil {
		return err
	}
	keys, err := pub.Publish(a.ctx, art.Path)
	if err != nil {
		return err
	}
	a.printf("published %d objects to %s\n", len(keys), s.Publish.Bucket)
	return nil
}

// resolveTarget maps a root library product with a single target, or a
// root library target, to that target.
func resolveTarget(g *manifest.Graph, name string) (*manifest.Target, error) {
	if p := g.Root.Product(name); p != nil {
		if p.Kind != manifest.ProductLibrary {
			return nil, fmt.Errorf("product %q is a %s, not a library", name, p.Kind)
		}
		if len(p.Targets) != 1 {
			return nil, fmt.Errorf("product %q has %d targets; assemble one of %s", name, len(p.Targets), strings.Join(p.Targets, ", "))
		}
		name = p.Targets[0]
	}
	t := g.Root.Target(name)
	if t == nil {
		return nil, fmt.Errorf("no library product or target %q in %s", name, g.Root.Name)
	}
	if t.Kind != manifest.KindLibrary {
		return nil, &manifest.UnsupportedTargetKindError{Target: t.Name, Kind: t.Kind}
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// variants / clean
// ---------------------------------------------------------------------------

type VariantsCmd struct{}

func (c *VariantsCmd) Run(a *app) error {
	for _, id := range archive.VariantIDs() {
		v, _ := archive.LookupVariant(id)
		a.printf("%-20s %-18s %s\n", v.ID, v.SDK, v.Destination)
	}
	return nil
}

type CleanCmd struct {
	Target string `arg:"" optional:"" help:"Target whose archives are removed; all when omitted."`
}

func (c *CleanCmd) Run(a *app) error {
	ws, err := a.workspace()
	if err != nil {
		return err
	}
	archives, err := ws.ListArchives()
	if err != nil {
		return err
	}
	if err := ws.Clean(c.Target); err != nil {
		return err
	}
	n := 0
	for t, variants := range archives {
		if c.Target == "" || t == c.Target {
			n += len(variants)
		}
	}
	a.printf("removed %d archives\n", n)
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// absUnder resolves a settings path relative to the package root.
func absUnder(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
