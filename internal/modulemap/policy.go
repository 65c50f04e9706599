package modulemap

// policy.go - module-map strategy selection.
//
// Precedence, first match wins:
//   1. a module map declared in the manifest          -> Custom(declared)
//   2. a header named after the module (recursive)    -> Umbrella(header)
//   3. automatic kind and at least one public header  -> Generated(UmbrellaDirectory)
//   4. include/module.modulemap present on disk       -> Custom(found)
//   5. otherwise                                      -> None

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"xcpack/internal/manifest"
)

// DefaultCacheSize bounds the number of include directories whose header
// listings are kept in memory.
const DefaultCacheSize = 256

// Input is everything the policy looks at for one target.
type Input struct {
	ModuleName   string
	IncludeDir   string
	DeclaredKind manifest.ModuleMapKind
	// CustomPath is the manifest-declared module map, if any.
	CustomPath string
}

// InputFor derives the policy input of a target.
func InputFor(t *manifest.Target) Input {
	return Input{
		ModuleName:   t.ModuleName(),
		IncludeDir:   t.IncludeDir(),
		DeclaredKind: t.ModuleMapKind(),
		CustomPath:   t.CustomModuleMapPath(),
	}
}

// Policy resolves module-map strategies. Header listings are cached per
// include directory; a Policy must not outlive the generation run whose
// filesystem state it observed.
type Policy struct {
	headers *lru.Cache[string, []string]
}

// NewPolicy creates a policy caching up to size directory listings.
func NewPolicy(size int) (*Policy, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &Policy{headers: c}, nil
}

// Resolve returns exactly one strategy for in.
func (p *Policy) Resolve(in Input) Strategy {
	if in.CustomPath != "" {
		return Custom(in.CustomPath)
	}
	headers := p.Headers(in.IncludeDir)
	for _, h := range headers {
		if strings.TrimSuffix(filepath.Base(h), ".h") == in.ModuleName {
			return Umbrella(h)
		}
	}
	if in.DeclaredKind == manifest.ModuleMapAutomatic && len(headers) > 0 {
		return Generated(UmbrellaDirectory)
	}
	if in.IncludeDir != "" {
		onDisk := filepath.Join(in.IncludeDir, "module.modulemap")
		if info, err := os.Stat(onDisk); err == nil && !info.IsDir() {
			return Custom(onDisk)
		}
	}
	return None()
}

// Headers lists every .h file under dir, recursively and sorted. A missing or
// unreadable directory has no headers.
func (p *Policy) Headers(dir string) []string {
	if dir == "" {
		return nil
	}
	if cached, ok := p.headers.Get(dir); ok {
		return cached
	}
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".h" {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	p.headers.Add(dir, out)
	return out
}
