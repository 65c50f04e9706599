// Package config loads xcpack settings from .xcpack/settings.yaml and the
// environment.
//
// The deny list uses a permission-style syntax: patterns may be written as
// bare globs ("Sources/Vendor/**") or wrapped in a Read() verb
// ("Read(./Sources/Vendor/**)").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Dir is the per-package settings directory.
const Dir = ".xcpack"

// Settings holds xcpack configuration.
type Settings struct {
	Permissions Permissions `yaml:"permissions"`
	Build       Build       `yaml:"build"`
	Publish     Publish     `yaml:"publish"`
	// Workspace overrides where archives and generated files go.
	Workspace string `yaml:"workspace,omitempty"`
}

// Permissions controls which source files generation reads.
type Permissions struct {
	// Deny is a list of glob patterns, relative to the package root, for
	// files that are never added to a target.
	// Example: ["Read(./Sources/Core/Generated/**)"]
	Deny []string `yaml:"deny,omitempty"`
}

// Build holds assemble defaults; command-line flags override them.
type Build struct {
	Configuration string   `yaml:"configuration,omitempty" validate:"omitempty,oneof=debug release Debug Release"`
	Variants      []string `yaml:"variants,omitempty" validate:"dive,required"`
	Output        string   `yaml:"output,omitempty"`
	DebugSymbols  bool     `yaml:"debug_symbols,omitempty"`
	Overwrite     bool     `yaml:"overwrite,omitempty"`
}

// Publish configures upload of merged artifacts to an S3-compatible store.
// Credentials are read from the environment only.
type Publish struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty" validate:"required_with=Endpoint"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Enabled reports whether publishing is configured.
func (p Publish) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Path is the settings file of the package at root.
func Path(root string) string {
	return filepath.Join(root, Dir, "settings.yaml")
}

// Load reads the settings of the package at root. A missing file yields
// zero settings, not an error.
func Load(root string) (*Settings, error) {
	s, err := read(root)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", Path(root), err)
	}
	return s, nil
}

func read(root string) (*Settings, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks field constraints.
func (s *Settings) Validate() error {
	return validate.Struct(s)
}

// Save writes s to the settings file of the package at root, creating the
// settings directory if needed.
func Save(root string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// IsDenied reports whether relPath (forward-slash, relative to the package
// root) matches any deny rule. Safe to call on a nil *Settings receiver.
func (s *Settings) IsDenied(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Permissions.Deny {
		if matchDenyPattern(parseDenyRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseDenyRule extracts the path glob from a deny rule.
//
//	"Read(./Sources/Vendor/**)" → "Sources/Vendor/**"
//	"Sources/Vendor/**"         → "Sources/Vendor/**"
func parseDenyRule(rule string) string {
	rule = strings.TrimSpace(rule)
	if inner, ok := strings.CutPrefix(rule, "Read("); ok && strings.HasSuffix(inner, ")") {
		rule = strings.TrimSuffix(inner, ")")
	}
	return strings.TrimPrefix(rule, "./")
}

// matchDenyPattern reports whether path matches a deny glob pattern.
//
// "prefix/**" matches the prefix directory itself and every path beneath it,
// "**/name" matches name in any directory. All other patterns use
// filepath.Match semantics (single * does not cross /).
func matchDenyPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	if name, ok := strings.CutPrefix(pattern, "**/"); ok {
		for rest := path; ; {
			if matchDenyPattern(name, rest) {
				return true
			}
			_, after, found := strings.Cut(rest, "/")
			if !found {
				return false
			}
			rest = after
		}
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
