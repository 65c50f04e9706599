// Package project builds the in-memory build-project model of a resolved
// package graph: one native target per reachable library, the group tree
// mirroring their sources, build phases, and target dependency edges.
package project

import (
	"path/filepath"

	"xcpack/internal/modulemap"
)

// PhaseKind is the kind of a build phase.
type PhaseKind string

const (
	PhaseSources    PhaseKind = "sources"
	PhaseFrameworks PhaseKind = "frameworks"
	PhaseHeaders    PhaseKind = "headers"
)

// AttributePublic marks a header exported by a headers phase.
const AttributePublic = "Public"

// FileRef is a reference to one file on disk.
type FileRef struct {
	Name string
	Path string
	Type string
}

// BuildFile is one entry of a build phase.
type BuildFile struct {
	Ref        *FileRef
	Attributes []string
}

// BuildPhase is an ordered list of build inputs.
type BuildPhase struct {
	Kind  PhaseKind
	Files []*BuildFile
}

// Group mirrors one directory. Children are owned by their parent and
// indexed by name, so a directory maps to exactly one group per parent.
type Group struct {
	Name   string
	Path   string
	Groups []*Group
	Files  []*FileRef

	groupIndex map[string]*Group
	fileIndex  map[string]*FileRef
}

func newGroup(name, path string) *Group {
	return &Group{
		Name:       name,
		Path:       path,
		groupIndex: make(map[string]*Group),
		fileIndex:  make(map[string]*FileRef),
	}
}

// Child returns the child group called name, or nil.
func (g *Group) Child(name string) *Group { return g.groupIndex[name] }

// child returns the child group called name, creating it when absent.
func (g *Group) child(name, path string) *Group {
	if c, ok := g.groupIndex[name]; ok {
		return c
	}
	c := newGroup(name, path)
	g.groupIndex[name] = c
	g.Groups = append(g.Groups, c)
	return c
}

// file returns the reference to path inside g, creating it when absent.
func (g *Group) file(path string) *FileRef {
	name := filepath.Base(path)
	if f, ok := g.fileIndex[name]; ok {
		return f
	}
	f := &FileRef{Name: name, Path: path, Type: fileType(path)}
	g.fileIndex[name] = f
	g.Files = append(g.Files, f)
	return f
}

// Configuration is one named set of build settings.
type Configuration struct {
	Name     string
	Settings map[string]string
}

// ConfigurationList holds the Debug and Release configurations of a project
// or target.
type ConfigurationList struct {
	Configurations []*Configuration
	Default        string
}

// Get returns the configuration called name, or nil.
func (l *ConfigurationList) Get(name string) *Configuration {
	for _, c := range l.Configurations {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ProductTypeFramework is the product type of every generated target.
const ProductTypeFramework = "com.apple.product-type.framework"

// NativeTarget is one buildable target of the project.
type NativeTarget struct {
	Name           string
	ModuleName     string
	ProductType    string
	Configurations *ConfigurationList
	Product        *FileRef
	Phases         []*BuildPhase
	Dependencies   []*TargetDependency
	InfoPlist      string

	ModuleMap modulemap.Strategy
	// ModuleMapPath is the module map the writer references: the custom or
	// generated file, empty for umbrella and none.
	ModuleMapPath string
}

// Phase returns the target's phase of the given kind, or nil.
func (t *NativeTarget) Phase(kind PhaseKind) *BuildPhase {
	for _, p := range t.Phases {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// TargetDependency is a target-to-target edge.
type TargetDependency struct {
	Target *NativeTarget
}

// Project is the generated project. It is not mutated once Generate returns.
type Project struct {
	Name           string
	Dir            string
	Configurations *ConfigurationList
	MainGroup      *Group
	ProductsGroup  *Group
	Targets        []*NativeTarget
}

// Target returns the native target called name, or nil.
func (p *Project) Target(name string) *NativeTarget {
	for _, t := range p.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

var fileTypes = map[string]string{
	".swift":     "sourcecode.swift",
	".c":         "sourcecode.c.c",
	".h":         "sourcecode.c.h",
	".m":         "sourcecode.c.objc",
	".mm":        "sourcecode.cpp.objcpp",
	".cpp":       "sourcecode.cpp.cpp",
	".cc":        "sourcecode.cpp.cpp",
	".cxx":       "sourcecode.cpp.cpp",
	".s":         "sourcecode.asm",
	".S":         "sourcecode.asm",
	".plist":     "text.plist.xml",
	".modulemap": "sourcecode.module-map",
	".framework": "wrapper.framework",
}

func fileType(path string) string {
	if t, ok := fileTypes[filepath.Ext(path)]; ok {
		return t
	}
	return "file"
}
