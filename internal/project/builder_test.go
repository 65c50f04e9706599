package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcpack/internal/fixture"
	"xcpack/internal/manifest"
	"xcpack/internal/modulemap"
	"xcpack/internal/project"
)

// generate loads the package tree and generates its project into a temp dir.
func generate(t *testing.T, archive string) (*project.Project, string) {
	t.Helper()
	root := fixture.WriteTree(t, archive)
	g, err := manifest.LoadGraph(root)
	require.NoError(t, err)
	projectDir := filepath.Join(root, "build")
	p, err := project.Generate(g, project.BuildOptions{ProjectDir: projectDir, BundleIDPrefix: "com.example"})
	require.NoError(t, err)
	return p, root
}

func phaseFiles(t *testing.T, nt *project.NativeTarget, kind project.PhaseKind) []string {
	t.Helper()
	ph := nt.Phase(kind)
	require.NotNil(t, ph, "missing %s phase on %s", kind, nt.Name)
	var names []string
	for _, f := range ph.Files {
		names = append(names, f.Ref.Name)
	}
	return names
}

func dependencyNames(nt *project.NativeTarget) []string {
	var names []string
	for _, d := range nt.Dependencies {
		names = append(names, d.Target.Name)
	}
	return names
}

// ---------------------------------------------------------------------------
// Targets and phases
// ---------------------------------------------------------------------------

func TestGeneratePureSourceTarget(t *testing.T) {
	p, root := generate(t, `
-- package.yaml --
name: App
targets:
  - name: Core
    kind: library
-- Sources/Core/Core.swift --
-- Sources/Core/Sub/Util.swift --
-- Sources/Core/README.md --
-- Sources/Core/.hidden/Skip.swift --
`)
	require.Len(t, p.Targets, 1)
	core := p.Target("Core")
	require.NotNil(t, core)

	assert.Equal(t, project.ProductTypeFramework, core.ProductType)
	assert.Equal(t, "Core.framework", core.Product.Name)
	assert.Equal(t, modulemap.KindNone, core.ModuleMap.Kind())
	assert.Equal(t, []string{"Core.swift", "Util.swift"}, phaseFiles(t, core, project.PhaseSources))
	assert.Empty(t, phaseFiles(t, core, project.PhaseFrameworks))
	assert.Nil(t, core.Phase(project.PhaseHeaders))

	infoPath := filepath.Join(root, "build", "Core_Info.plist")
	assert.Equal(t, infoPath, core.InfoPlist)
	data, err := os.ReadFile(infoPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<string>Core</string>")

	require.Len(t, p.Configurations.Configurations, 2)
	assert.Equal(t, "-Onone", p.Configurations.Get("Debug").Settings["SWIFT_OPTIMIZATION_LEVEL"])
	assert.Equal(t, "-O", p.Configurations.Get("Release").Settings["SWIFT_OPTIMIZATION_LEVEL"])
	release := core.Configurations.Get("Release").Settings
	assert.Equal(t, "Core", release["PRODUCT_NAME"])
	assert.Equal(t, "com.example.Core", release["PRODUCT_BUNDLE_IDENTIFIER"])
	assert.Equal(t, infoPath, release["INFOPLIST_FILE"])

	_, err = os.Stat(filepath.Join(root, "build", modulemap.GeneratedDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateUmbrellaHeaderTarget(t *testing.T) {
	p, root := generate(t, `
-- package.yaml --
name: App
targets:
  - name: Net
    kind: library
    language: c
-- Sources/Net/net.c --
-- Sources/Net/include/Net.h --
-- Sources/Net/include/socket.h --
`)
	net := p.Target("Net")
	require.NotNil(t, net)
	assert.Equal(t, modulemap.KindUmbrellaHeader, net.ModuleMap.Kind())
	assert.Empty(t, net.ModuleMapPath)

	headers := net.Phase(project.PhaseHeaders)
	require.NotNil(t, headers)
	require.Len(t, headers.Files, 2)
	assert.Equal(t, "Net.h", headers.Files[0].Ref.Name)
	for _, f := range headers.Files {
		assert.Equal(t, []string{project.AttributePublic}, f.Attributes)
	}
	assert.Equal(t, []string{"net.c"}, phaseFiles(t, net, project.PhaseSources))

	_, err := os.Stat(modulemap.GeneratedPath(filepath.Join(root, "build"), "Net"))
	assert.True(t, os.IsNotExist(err), "no module map may be generated for an umbrella header")
	_, ok := net.Configurations.Get("Debug").Settings["MODULEMAP_FILE"]
	assert.False(t, ok)
}

func TestGenerateSynthesizesModuleMap(t *testing.T) {
	p, root := generate(t, `
-- package.yaml --
name: App
targets:
  - name: Parser
    kind: library
    language: c
-- Sources/Parser/parse.c --
-- Sources/Parser/include/tokens.h --
`)
	parser := p.Target("Parser")
	assert.Equal(t, modulemap.KindGenerated, parser.ModuleMap.Kind())
	want := modulemap.GeneratedPath(filepath.Join(root, "build"), "Parser")
	assert.Equal(t, want, parser.ModuleMapPath)
	assert.FileExists(t, want)
	assert.Equal(t, want, parser.Configurations.Get("Release").Settings["MODULEMAP_FILE"])
	assert.Nil(t, parser.Phase(project.PhaseHeaders))
}

func TestGeneratePassesCustomModuleMapThrough(t *testing.T) {
	p, root := generate(t, `
-- package.yaml --
name: App
targets:
  - name: Parser
    kind: library
    language: c
    module_map:
      kind: custom
      path: custom.modulemap
-- Sources/Parser/parse.c --
-- Sources/Parser/include/Parser.h --
-- Sources/Parser/include/custom.modulemap --
`)
	parser := p.Target("Parser")
	want := filepath.Join(root, "Sources", "Parser", "include", "custom.modulemap")
	assert.Equal(t, modulemap.Custom(want), parser.ModuleMap)
	assert.Equal(t, want, parser.ModuleMapPath)
	assert.Nil(t, parser.Phase(project.PhaseHeaders))
	assert.NoDirExists(t, filepath.Join(root, "build", modulemap.GeneratedDirName))
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

const dependencyTree = `
-- Sources/A/A.swift --
-- Sources/B/B.swift --
-- Sources/C/c.c --
-- Sources/C/include/C.h --
`

func TestGenerateDependencyEdges(t *testing.T) {
	p, root := generate(t, dependencyTree+`
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
    dependencies: [{target: B}, {target: C}]
  - name: B
    kind: library
  - name: C
    kind: library
    language: c
products:
  - name: App
    kind: library
    targets: [A]
`)
	a := p.Target("A")
	assert.Equal(t, []string{"B", "C"}, dependencyNames(a))
	assert.Equal(t, []string{"B.framework", "C.framework"}, phaseFiles(t, a, project.PhaseFrameworks))
	assert.Same(t, p.Target("B"), a.Dependencies[0].Target)
	assert.Same(t, p.Target("B").Product, a.Phase(project.PhaseFrameworks).Files[0].Ref)

	search := a.Configurations.Get("Debug").Settings["HEADER_SEARCH_PATHS"]
	assert.Contains(t, search, filepath.Join(root, "Sources", "C", "include"))

	var kinds []project.PhaseKind
	for _, ph := range a.Phases {
		kinds = append(kinds, ph.Kind)
	}
	assert.Equal(t, []project.PhaseKind{project.PhaseSources, project.PhaseFrameworks}, kinds)

	// Dropping B removes exactly its edge and its link reference.
	p2, _ := generate(t, dependencyTree+`
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
    dependencies: [{target: C}]
  - name: C
    kind: library
    language: c
products:
  - name: App
    kind: library
    targets: [A]
`)
	a2 := p2.Target("A")
	assert.Equal(t, []string{"C"}, dependencyNames(a2))
	assert.Equal(t, []string{"C.framework"}, phaseFiles(t, a2, project.PhaseFrameworks))
	assert.Nil(t, p2.Target("B"))
}

func TestGenerateTargetsSortedByName(t *testing.T) {
	p, _ := generate(t, dependencyTree+`
-- package.yaml --
name: App
targets:
  - name: C
    kind: library
    language: c
  - name: B
    kind: library
  - name: A
    kind: library
`)
	var names []string
	for _, nt := range p.Targets {
		names = append(names, nt.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestGenerateRejectsUnsupportedKinds(t *testing.T) {
	root := fixture.WriteTree(t, `
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
    dependencies: [{target: Gen}]
  - name: Gen
    kind: plugin
-- Sources/A/A.swift --
`)
	g, err := manifest.LoadGraph(root)
	require.NoError(t, err)
	_, err = project.Generate(g, project.BuildOptions{ProjectDir: t.TempDir()})
	assert.ErrorIs(t, err, manifest.ErrUnsupportedTargetKind)
}

func TestGenerateWithoutRoot(t *testing.T) {
	_, err := project.Generate(&manifest.Graph{}, project.BuildOptions{ProjectDir: t.TempDir()})
	assert.ErrorIs(t, err, manifest.ErrInvalidPackage)
	_, err = project.Generate(nil, project.BuildOptions{ProjectDir: t.TempDir()})
	assert.ErrorIs(t, err, manifest.ErrInvalidPackage)
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

func TestGenerateSharesGroupPrefixes(t *testing.T) {
	p, _ := generate(t, `
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
    path: Sources/Shared/A
  - name: B
    kind: library
    path: Sources/Shared/B
-- Sources/Shared/A/a.swift --
-- Sources/Shared/B/b.swift --
-- Sources/Shared/B/Deep/d.swift --
`)
	app := p.MainGroup.Child("App")
	require.NotNil(t, app)
	require.Len(t, app.Groups, 1)
	sources := app.Child("Sources")
	require.Len(t, sources.Groups, 1)
	shared := sources.Child("Shared")
	require.Len(t, shared.Groups, 2)
	assert.Equal(t, "A", shared.Groups[0].Name)
	assert.Equal(t, "B", shared.Groups[1].Name)
	assert.NotNil(t, shared.Child("B").Child("Deep"))
}

func TestResolveGroupIdempotent(t *testing.T) {
	p, root := generate(t, `
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
-- Sources/A/x/a.swift --
`)
	app := p.MainGroup.Child("App")
	dir := filepath.Join(root, "Sources", "A", "x")

	first, err := project.ResolveGroup(app, root, dir)
	require.NoError(t, err)
	second, err := project.ResolveGroup(app, root, dir)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, app.Groups, 1)

	self, err := project.ResolveGroup(app, root, root)
	require.NoError(t, err)
	assert.Same(t, app, self)

	_, err = project.ResolveGroup(app, root, filepath.Dir(root))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

type denyPrefix string

func (d denyPrefix) IsDenied(rel string) bool { return strings.HasPrefix(rel, string(d)) }

func TestGenerateHonorsExcludesAndFilter(t *testing.T) {
	root := fixture.WriteTree(t, `
-- package.yaml --
name: App
targets:
  - name: A
    kind: library
    exclude: [Legacy]
-- Sources/A/a.swift --
-- Sources/A/Legacy/old.swift --
-- Sources/A/Generated/gen.swift --
`)
	g, err := manifest.LoadGraph(root)
	require.NoError(t, err)
	p, err := project.Generate(g, project.BuildOptions{
		ProjectDir: t.TempDir(),
		Filter:     denyPrefix("Sources/A/Generated/"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.swift"}, phaseFiles(t, p.Target("A"), project.PhaseSources))
}
