package archive

import (
	"path/filepath"

	"xcpack/internal/manifest"
)

// BuildProduct is a library target together with the build configuration
// and the variants it is assembled for, in request order.
type BuildProduct struct {
	Target        string
	Module        string
	Configuration manifest.BuildConfiguration
	Variants      []string
}

// NewBuildProduct derives the module name from target.
func NewBuildProduct(target string, cfg manifest.BuildConfiguration, variants ...string) BuildProduct {
	return BuildProduct{
		Target:        target,
		Module:        manifest.CanonicalModuleName(target),
		Configuration: cfg,
		Variants:      variants,
	}
}

// ArchiveOperation archives one product for one variant into Dir.
type ArchiveOperation struct {
	Target        string
	Module        string
	Configuration manifest.BuildConfiguration
	Variant       Variant
	// Dir is the per-variant directory; it is cleared before archiving.
	Dir string
}

// ArchivePath is the .xcarchive bundle the build tool writes.
func (op ArchiveOperation) ArchivePath() string {
	return filepath.Join(op.Dir, op.Module+".xcarchive")
}

// BinaryPath is the framework inside the archive.
func (op ArchiveOperation) BinaryPath() string {
	return filepath.Join(op.ArchivePath(), "Products", "Library", "Frameworks", op.Module+".framework")
}

// ArchiveDirs owns the per-variant archive directories.
type ArchiveDirs interface {
	ArchiveDir(target, variant string) string
	// ResetArchive leaves the directory existing and empty.
	ResetArchive(target, variant string) error
}

// Planner turns a build product into archive operations.
type Planner struct {
	Dirs ArchiveDirs
}

// Plan returns one operation per requested variant in request order.
// Repeated variants are planned once, at their first position. Identifiers
// outside the variant table are resolved by ResolveVariant.
func (p *Planner) Plan(product BuildProduct) ([]ArchiveOperation, error) {
	if len(product.Variants) == 0 {
		return nil, ErrNoVariantsRequested
	}
	seen := make(map[string]bool, len(product.Variants))
	ops := make([]ArchiveOperation, 0, len(product.Variants))
	for _, id := range product.Variants {
		if seen[id] {
			continue
		}
		seen[id] = true
		v, err := ResolveVariant(id)
		if err != nil {
			return nil, err
		}
		ops = append(ops, ArchiveOperation{
			Target:        product.Target,
			Module:        product.Module,
			Configuration: product.Configuration,
			Variant:       v,
			Dir:           p.Dirs.ArchiveDir(product.Target, v.ID),
		})
	}
	return ops, nil
}
