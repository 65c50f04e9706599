package archive_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcpack/internal/archive"
	"xcpack/internal/manifest"
)

type archiveDirs string

func (d archiveDirs) ArchiveDir(target, variant string) string {
	return filepath.Join(string(d), target, variant)
}

func (d archiveDirs) ResetArchive(target, variant string) error {
	dir := d.ArchiveDir(target, variant)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// fakeToolchain records every external invocation in order.
type fakeToolchain struct {
	calls      []string
	failOn     string
	mergeErr   error
	symbolsErr map[string]error
	// sawOutput records whether the artifact path existed when Merge ran.
	sawOutput bool
	merged    archive.Merge
}

func (f *fakeToolchain) Archive(_ context.Context, op archive.ArchiveOperation) error {
	f.calls = append(f.calls, "archive "+op.Variant.ID)
	if op.Variant.ID == f.failOn {
		return errors.New("exit status 65")
	}
	return os.MkdirAll(op.BinaryPath(), 0o755)
}

func (f *fakeToolchain) Merge(_ context.Context, m archive.Merge) error {
	f.calls = append(f.calls, fmt.Sprintf("merge %d", len(m.Inputs)))
	f.merged = m
	if _, err := os.Stat(m.Output); err == nil {
		f.sawOutput = true
		return fmt.Errorf("a file already exists at %s", m.Output)
	}
	if f.mergeErr != nil {
		return f.mergeErr
	}
	return os.MkdirAll(m.Output, 0o755)
}

func (f *fakeToolchain) Extract(_ context.Context, binary string) (string, error) {
	f.calls = append(f.calls, "extract "+filepath.Base(binary))
	if err := f.symbolsErr[binary]; err != nil {
		return "", err
	}
	return binary + ".dSYM", nil
}

func newOrchestrator(t *testing.T, tc *fakeToolchain) (*archive.Orchestrator, string) {
	t.Helper()
	work := t.TempDir()
	return &archive.Orchestrator{
		Planner:   &archive.Planner{Dirs: archiveDirs(work)},
		Toolchain: tc,
		Symbols:   tc,
		Reporter:  archive.NopReporter{},
	}, work
}

// ---------------------------------------------------------------------------
// Planner
// ---------------------------------------------------------------------------

func TestPlan(t *testing.T) {
	p := &archive.Planner{Dirs: archiveDirs("/work")}

	ops, err := p.Plan(archive.NewBuildProduct("Core", manifest.Release, "tvos", "ios", "tvos", "ios-simulator"))
	require.NoError(t, err)
	var ids []string
	for _, op := range ops {
		ids = append(ids, op.Variant.ID)
	}
	assert.Equal(t, []string{"tvos", "ios", "ios-simulator"}, ids)
	assert.Equal(t, filepath.Join("/work", "Core", "ios"), ops[1].Dir)
	assert.Equal(t, filepath.Join("/work", "Core", "ios", "Core.xcarchive", "Products", "Library", "Frameworks", "Core.framework"), ops[1].BinaryPath())
	assert.Equal(t, "generic/platform=iOS Simulator", ops[2].Variant.Destination)

	_, err = p.Plan(archive.NewBuildProduct("Core", manifest.Release))
	assert.ErrorIs(t, err, archive.ErrNoVariantsRequested)

	ops, err = p.Plan(archive.NewBuildProduct("Core", manifest.Release, "ios", "DriverKit"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, archive.Variant{ID: "DriverKit", Destination: "generic/platform=DriverKit"}, ops[1].Variant)
	assert.Equal(t, filepath.Join("/work", "Core", "DriverKit"), ops[1].Dir)

	for _, bad := range []string{"", " ", "..", "a/b"} {
		_, err = p.Plan(archive.NewBuildProduct("Core", manifest.Release, "ios", bad))
		assert.ErrorIs(t, err, archive.ErrUnknownVariant, "variant %q", bad)
	}
}

func TestAssembleArbitraryVariantIdentifiers(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)

	art, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "deviceA", "simulatorB"),
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"archive deviceA", "archive simulatorB", "merge 2"}, tc.calls)
	require.Len(t, art.Inputs, 2)
	assert.Equal(t, "deviceA", art.Inputs[0].Variant)
	assert.Equal(t, "simulatorB", art.Inputs[1].Variant)
}

func TestNewBuildProductCanonicalModule(t *testing.T) {
	bp := archive.NewBuildProduct("my-lib", manifest.Debug, "ios")
	assert.Equal(t, "my_lib", bp.Module)
	assert.Equal(t, manifest.Debug, bp.Configuration)
}

func TestVariantIDs(t *testing.T) {
	ids := archive.VariantIDs()
	assert.Len(t, ids, 10)
	assert.Contains(t, ids, "maccatalyst")
	assert.IsIncreasing(t, ids)
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

func TestAssembleSourceOnlyTarget(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)
	out := t.TempDir()

	art, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios", "ios-simulator"),
		OutputDir: out,
		Overwrite: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"archive ios", "archive ios-simulator", "merge 2"}, tc.calls)
	assert.Equal(t, filepath.Join(out, "Core.xcframework"), art.Path)
	assert.DirExists(t, art.Path)

	require.Len(t, tc.merged.Inputs, 2)
	assert.Equal(t, "ios", tc.merged.Inputs[0].Variant)
	assert.Equal(t, "ios-simulator", tc.merged.Inputs[1].Variant)
	for _, in := range tc.merged.Inputs {
		assert.Empty(t, in.DebugSymbols)
	}
}

func TestAssembleStopsAtFirstArchiveFailure(t *testing.T) {
	tc := &fakeToolchain{failOn: "macos"}
	o, _ := newOrchestrator(t, tc)

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios", "macos", "tvos"),
		OutputDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.Equal(t, []string{"archive ios", "archive macos"}, tc.calls)
	assert.ErrorIs(t, err, archive.ErrArchiveFailed)

	var se *archive.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, archive.StageArchiving, se.Stage)
	assert.Equal(t, "Core", se.Target)
	assert.Equal(t, "macos", se.Variant)
	assert.Contains(t, err.Error(), "exit status 65")
}

func TestAssembleKeepsPriorArtifactWithoutOverwrite(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)
	out := t.TempDir()
	prior := filepath.Join(out, "Core.xcframework", "Info.plist")
	require.NoError(t, os.MkdirAll(filepath.Dir(prior), 0o755))
	require.NoError(t, os.WriteFile(prior, []byte("old"), 0o644))

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios"),
		OutputDir: out,
	})
	assert.ErrorIs(t, err, archive.ErrMergeFailed)
	assert.True(t, tc.sawOutput, "merge must run against the existing artifact")
	assert.FileExists(t, prior)
}

func TestAssembleOverwriteRemovesPriorArtifactBeforeMerge(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)
	out := t.TempDir()
	prior := filepath.Join(out, "Core.xcframework", "Info.plist")
	require.NoError(t, os.MkdirAll(filepath.Dir(prior), 0o755))
	require.NoError(t, os.WriteFile(prior, []byte("old"), 0o644))

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios"),
		OutputDir: out,
		Overwrite: true,
	})
	require.NoError(t, err)
	assert.False(t, tc.sawOutput)
	assert.NoFileExists(t, prior)
}

func TestAssembleFailedArchiveKeepsPriorArtifact(t *testing.T) {
	tc := &fakeToolchain{failOn: "ios-simulator"}
	o, _ := newOrchestrator(t, tc)
	out := t.TempDir()
	prior := filepath.Join(out, "Core.xcframework")
	require.NoError(t, os.MkdirAll(prior, 0o755))

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios", "ios-simulator"),
		OutputDir: out,
		Overwrite: true,
	})
	assert.ErrorIs(t, err, archive.ErrArchiveFailed)
	assert.DirExists(t, prior)
}

func TestAssembleEmbedsDebugSymbols(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)

	art, err := o.Assemble(context.Background(), archive.Request{
		Product:           archive.NewBuildProduct("Core", manifest.Release, "ios", "macos"),
		OutputDir:         t.TempDir(),
		EmbedDebugSymbols: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"archive ios", "archive macos",
		"extract Core.framework", "extract Core.framework",
		"merge 2",
	}, tc.calls)
	for _, in := range art.Inputs {
		assert.Equal(t, in.Framework+".dSYM", in.DebugSymbols)
	}
}

func TestAssembleExtractionFailureBlocksMerge(t *testing.T) {
	tc := &fakeToolchain{}
	o, work := newOrchestrator(t, tc)
	macos := filepath.Join(work, "Core", "macos", "Core.xcarchive", "Products", "Library", "Frameworks", "Core.framework")
	tc.symbolsErr = map[string]error{macos: errors.New("not found")}

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:           archive.NewBuildProduct("Core", manifest.Release, "ios", "macos"),
		OutputDir:         t.TempDir(),
		EmbedDebugSymbols: true,
	})
	assert.ErrorIs(t, err, archive.ErrDebugSymbolExtraction)
	var se *archive.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, archive.StageExtracting, se.Stage)
	assert.Equal(t, "macos", se.Variant)
	assert.NotContains(t, tc.calls, "merge 2")
}

func TestAssembleWithoutVariants(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release),
		OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, archive.ErrNoVariantsRequested)
	assert.Empty(t, tc.calls)
	var se *archive.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, archive.StagePlanning, se.Stage)
	assert.Equal(t, "archive: planning Core: no variants requested", err.Error())
}

func TestAssembleClearsStaleArchives(t *testing.T) {
	tc := &fakeToolchain{}
	o, work := newOrchestrator(t, tc)
	stale := filepath.Join(work, "Core", "ios", "leftover")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, nil, 0o644))

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios"),
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestAssembleCancelled(t *testing.T) {
	tc := &fakeToolchain{}
	o, _ := newOrchestrator(t, tc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Assemble(ctx, archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios"),
		OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, archive.ErrArchiveFailed)
	assert.Empty(t, tc.calls)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	tc := &fakeToolchain{failOn: "macos"}
	o, _ := newOrchestrator(t, tc)
	o.Reporter = archive.LogReporter{Logger: log.New(&buf, "", 0)}

	_, err := o.Assemble(context.Background(), archive.Request{
		Product:   archive.NewBuildProduct("Core", manifest.Release, "ios", "macos"),
		OutputDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.Equal(t, "Core: planning\n"+
		"Core: archiving ios\n"+
		"Core: archiving macos\n"+
		"Core: failed: archive: archiving Core (macos): archive failed: exit status 65\n", buf.String())
}
