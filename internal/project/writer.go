package project

// writer.go - project serialization.
//
// The native project encoding belongs to an external writer; YAMLWriter is
// the built-in stand-in. It writes <dir>/<Name>.xcodeproj/project.yaml and
// always replaces a previous file.

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Writer serializes a project below dir.
type Writer interface {
	Write(p *Project, dir string) (string, error)
}

// YAMLWriter writes the project model as YAML.
type YAMLWriter struct{}

type projectDoc struct {
	Name           string             `yaml:"name"`
	Configurations []configurationDoc `yaml:"configurations"`
	MainGroup      groupDoc           `yaml:"main_group"`
	Products       []string           `yaml:"products"`
	Targets        []targetDoc        `yaml:"targets"`
}

type configurationDoc struct {
	Name     string            `yaml:"name"`
	Settings map[string]string `yaml:"settings"`
}

type groupDoc struct {
	Name   string     `yaml:"name,omitempty"`
	Path   string     `yaml:"path,omitempty"`
	Groups []groupDoc `yaml:"groups,omitempty"`
	Files  []string   `yaml:"files,omitempty"`
}

type targetDoc struct {
	Name           string             `yaml:"name"`
	Module         string             `yaml:"module"`
	ProductType    string             `yaml:"product_type"`
	Product        string             `yaml:"product"`
	InfoPlist      string             `yaml:"info_plist"`
	ModuleMap      string             `yaml:"module_map"`
	ModuleMapFile  string             `yaml:"module_map_file,omitempty"`
	Configurations []configurationDoc `yaml:"configurations"`
	Phases         []phaseDoc         `yaml:"phases"`
	Dependencies   []string           `yaml:"dependencies,omitempty"`
}

type phaseDoc struct {
	Kind  PhaseKind `yaml:"kind"`
	Files []fileDoc `yaml:"files,omitempty"`
}

type fileDoc struct {
	Path       string   `yaml:"path"`
	Attributes []string `yaml:"attributes,omitempty"`
}

// Path is where Write places the project of the given name.
func (YAMLWriter) Path(name, dir string) string {
	return filepath.Join(dir, name+".xcodeproj", "project.yaml")
}

// Write encodes p and returns the written path.
func (w YAMLWriter) Write(p *Project, dir string) (string, error) {
	data, err := yaml.Marshal(toDoc(p))
	if err != nil {
		return "", fmt.Errorf("project: marshal %s: %w", p.Name, err)
	}
	path := w.Path(p.Name, dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("project: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("project: write %s: %w", path, err)
	}
	return path, nil
}

func toDoc(p *Project) projectDoc {
	doc := projectDoc{
		Name:           p.Name,
		Configurations: toConfigurationDocs(p.Configurations),
		MainGroup:      toGroupDoc(p.MainGroup),
	}
	for _, f := range p.ProductsGroup.Files {
		doc.Products = append(doc.Products, f.Name)
	}
	for _, t := range p.Targets {
		td := targetDoc{
			Name:           t.Name,
			Module:         t.ModuleName,
			ProductType:    t.ProductType,
			Product:        t.Product.Name,
			InfoPlist:      t.InfoPlist,
			ModuleMap:      t.ModuleMap.Kind().String(),
			ModuleMapFile:  t.ModuleMapPath,
			Configurations: toConfigurationDocs(t.Configurations),
		}
		for _, ph := range t.Phases {
			pd := phaseDoc{Kind: ph.Kind}
			for _, bf := range ph.Files {
				pd.Files = append(pd.Files, fileDoc{Path: bf.Ref.Path, Attributes: bf.Attributes})
			}
			td.Phases = append(td.Phases, pd)
		}
		for _, d := range t.Dependencies {
			td.Dependencies = append(td.Dependencies, d.Target.Name)
		}
		doc.Targets = append(doc.Targets, td)
	}
	return doc
}

func toConfigurationDocs(l *ConfigurationList) []configurationDoc {
	var out []configurationDoc
	for _, c := range l.Configurations {
		out = append(out, configurationDoc{Name: c.Name, Settings: c.Settings})
	}
	return out
}

func toGroupDoc(g *Group) groupDoc {
	d := groupDoc{Name: g.Name, Path: g.Path}
	for _, c := range g.Groups {
		d.Groups = append(d.Groups, toGroupDoc(c))
	}
	for _, f := range g.Files {
		d.Files = append(d.Files, f.Name)
	}
	return d
}
