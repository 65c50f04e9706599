package xcodebuild

import (
	"context"
	"errors"

	"xcpack/internal/archive"
)

var (
	_ archive.Toolchain       = (*Toolchain)(nil)
	_ archive.SymbolExtractor = (*SymbolExtractor)(nil)
)

// Toolchain archives and merges through xcodebuild, run in PackageRoot.
type Toolchain struct {
	PackageRoot string
	Runner      Runner
	// Path overrides the xcodebuild binary.
	Path string
}

func (t *Toolchain) binary() string {
	if t.Path != "" {
		return t.Path
	}
	return "xcodebuild"
}

// ArchiveCommand is the invocation that archives op.
func (t *Toolchain) ArchiveCommand(op archive.ArchiveOperation) Command {
	return Command{
		Dir:  t.PackageRoot,
		Name: t.binary(),
		Args: []string{
			"archive",
			"-scheme", op.Target,
			"-destination", op.Variant.Destination,
			"-archivePath", op.ArchivePath(),
			"-configuration", op.Configuration.String(),
			"SKIP_INSTALL=NO",
			"BUILD_LIBRARY_FOR_DISTRIBUTION=YES",
		},
	}
}

// MergeCommand is the invocation that creates the universal framework.
func (t *Toolchain) MergeCommand(m archive.Merge) Command {
	args := []string{"-create-xcframework"}
	for _, in := range m.Inputs {
		args = append(args, "-framework", in.Framework)
		if in.DebugSymbols != "" {
			args = append(args, "-debug-symbols", in.DebugSymbols)
		}
	}
	args = append(args, "-output", m.Output)
	return Command{Dir: t.PackageRoot, Name: t.binary(), Args: args}
}

func (t *Toolchain) Archive(ctx context.Context, op archive.ArchiveOperation) error {
	return t.runner().Run(ctx, t.ArchiveCommand(op))
}

func (t *Toolchain) Merge(ctx context.Context, m archive.Merge) error {
	if len(m.Inputs) == 0 {
		return errors.New("xcodebuild: merge without inputs")
	}
	return t.runner().Run(ctx, t.MergeCommand(m))
}

func (t *Toolchain) runner() Runner {
	if t.Runner != nil {
		return t.Runner
	}
	return ExecRunner{}
}
