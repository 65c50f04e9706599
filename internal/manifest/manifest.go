// Package manifest loads package manifests (package.yaml) and resolves them
// into the dependency graph consumed by project generation and assembly.
//
// Manifest layout:
//
//	<root>/package.yaml
//	    name: Networking
//	    targets:
//	      - name: Core
//	        kind: library
//	        dependencies: [{target: Net}, {product: Logging, package: swift-log}]
//	    products:
//	      - name: Networking
//	        kind: library
//	        targets: [Core]
//	    dependencies: [../swift-log]
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest file expected at every package root.
const FileName = "package.yaml"

// TargetKind is the kind of build unit a target produces.
type TargetKind string

const (
	KindLibrary    TargetKind = "library"
	KindExecutable TargetKind = "executable"
	KindTest       TargetKind = "test"
	KindBinary     TargetKind = "binary"
	KindSystem     TargetKind = "system"
	KindPlugin     TargetKind = "plugin"
)

// Language is the source language of a target.
type Language string

const (
	LanguageSwift Language = "swift"
	LanguageC     Language = "c"
	LanguageCXX   Language = "cxx"
	LanguageObjC  Language = "objc"
)

// IsCFamily reports whether targets in this language expose public headers.
func (l Language) IsCFamily() bool {
	switch l {
	case LanguageC, LanguageCXX, LanguageObjC:
		return true
	default:
		return false
	}
}

// ModuleMapKind is the module-map declaration of a C-family target.
type ModuleMapKind string

const (
	ModuleMapNone      ModuleMapKind = "none"
	ModuleMapAutomatic ModuleMapKind = "automatic"
	ModuleMapCustom    ModuleMapKind = "custom"
)

// ModuleMapDecl is the manifest's module_map block.
type ModuleMapDecl struct {
	Kind ModuleMapKind `yaml:"kind,omitempty" validate:"omitempty,oneof=none automatic custom"`
	// Path is relative to the target's include directory; only read for custom.
	Path string `yaml:"path,omitempty" validate:"required_if=Kind custom"`
}

// Dependency is one entry of a target's dependency list: either a target in
// the same package or a product vended by another package.
type Dependency struct {
	Target  string `yaml:"target,omitempty" validate:"required_without=Product,excluded_with=Product"`
	Product string `yaml:"product,omitempty" validate:"required_without=Target"`
	Package string `yaml:"package,omitempty" validate:"excluded_with=Target"`
}

// Target is a named build unit declared by a package.
type Target struct {
	Name         string        `yaml:"name" validate:"required"`
	Kind         TargetKind    `yaml:"kind" validate:"required,oneof=library executable test binary system plugin"`
	Path         string        `yaml:"path,omitempty"`
	Language     Language      `yaml:"language,omitempty" validate:"omitempty,oneof=swift c cxx objc"`
	Include      string        `yaml:"include,omitempty"`
	ModuleMap    ModuleMapDecl `yaml:"module_map,omitempty"`
	Dependencies []Dependency  `yaml:"dependencies,omitempty" validate:"dive"`
	Exclude      []string      `yaml:"exclude,omitempty"`

	pkg *Package
}

// ProductKind is the kind of a vended product.
type ProductKind string

const (
	ProductLibrary    ProductKind = "library"
	ProductExecutable ProductKind = "executable"
	ProductPlugin     ProductKind = "plugin"
)

// Product groups targets under a name other packages can depend on.
type Product struct {
	Name    string      `yaml:"name" validate:"required"`
	Kind    ProductKind `yaml:"kind" validate:"required,oneof=library executable plugin"`
	Targets []string    `yaml:"targets" validate:"required,min=1"`
}

// Package is one loaded package.yaml.
type Package struct {
	Name         string     `yaml:"name" validate:"required"`
	Targets      []*Target  `yaml:"targets" validate:"dive"`
	Products     []*Product `yaml:"products,omitempty" validate:"dive"`
	Dependencies []string   `yaml:"dependencies,omitempty"`

	// Root is the absolute package directory.
	Root string `yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadPackage reads and validates <root>/package.yaml.
func LoadPackage(root string) (*Package, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", root, err)
	}
	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidPackageError{Root: abs, Err: err}
	}
	var pkg Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, &InvalidPackageError{Root: abs, Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	if err := validate.Struct(&pkg); err != nil {
		return nil, &InvalidPackageError{Root: abs, Err: err}
	}
	pkg.Root = abs

	seen := make(map[string]bool, len(pkg.Targets))
	for _, t := range pkg.Targets {
		if seen[t.Name] {
			return nil, &InvalidPackageError{Root: abs, Err: fmt.Errorf("duplicate target %q", t.Name)}
		}
		seen[t.Name] = true
		if t.Language == "" {
			t.Language = LanguageSwift
		}
		t.pkg = &pkg
	}
	for _, p := range pkg.Products {
		for _, name := range p.Targets {
			if !seen[name] {
				return nil, &InvalidPackageError{Root: abs, Err: fmt.Errorf("product %q names unknown target %q", p.Name, name)}
			}
		}
	}
	return &pkg, nil
}

// Target returns the package's target with the given name, or nil.
func (p *Package) Target(name string) *Target {
	for _, t := range p.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Product returns the package's product with the given name, or nil.
func (p *Package) Product(name string) *Product {
	for _, pr := range p.Products {
		if pr.Name == name {
			return pr
		}
	}
	return nil
}

// Package returns the package that declares t.
func (t *Target) Package() *Package { return t.pkg }

// Dir is the absolute source directory; defaults to Sources/<Name>.
func (t *Target) Dir() string {
	rel := t.Path
	if rel == "" {
		rel = filepath.Join("Sources", t.Name)
	}
	if t.pkg == nil {
		return rel
	}
	return filepath.Join(t.pkg.Root, rel)
}

// IncludeDir is the absolute public-header directory of a C-family target,
// or "" for other languages.
func (t *Target) IncludeDir() string {
	if !t.Language.IsCFamily() {
		return ""
	}
	rel := t.Include
	if rel == "" {
		rel = "include"
	}
	return filepath.Join(t.Dir(), rel)
}

// CustomModuleMapPath is the absolute declared module map, or "" when the
// manifest declares none.
func (t *Target) CustomModuleMapPath() string {
	if t.ModuleMap.Kind != ModuleMapCustom || t.ModuleMap.Path == "" {
		return ""
	}
	if filepath.IsAbs(t.ModuleMap.Path) {
		return t.ModuleMap.Path
	}
	return filepath.Join(t.IncludeDir(), t.ModuleMap.Path)
}

// ModuleMapKind returns the declared module-map kind. An undeclared kind on a
// C-family target is automatic.
func (t *Target) ModuleMapKind() ModuleMapKind {
	if t.ModuleMap.Kind != "" {
		return t.ModuleMap.Kind
	}
	if t.Language.IsCFamily() {
		return ModuleMapAutomatic
	}
	return ModuleMapNone
}

// ModuleName is the target's canonical module name.
func (t *Target) ModuleName() string { return CanonicalModuleName(t.Name) }

// CanonicalModuleName turns a target name into a C99 identifier: every rune
// outside [A-Za-z0-9_] becomes '_' and a leading digit gets a '_' prefix.
func CanonicalModuleName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
