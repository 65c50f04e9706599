package modulemap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lithammer/dedent"
)

// GeneratedDirName is the directory, under the project directory, holding
// synthesized module maps.
const GeneratedDirName = "GeneratedModuleMap"

var ErrGeneration = errors.New("module map generation failed")

// GenerationError reports a module map that could not be synthesized.
type GenerationError struct {
	Module string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrGeneration, e.Module, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// GeneratedPath is <projectDir>/GeneratedModuleMap/<module>/module.modulemap.
func GeneratedPath(projectDir, module string) string {
	return filepath.Join(projectDir, GeneratedDirName, module, "module.modulemap")
}

// Render returns the module map text of a generated strategy.
func Render(module, includeDir string, kind GeneratedKind) (string, error) {
	switch kind {
	case UmbrellaDirectory:
		return fmt.Sprintf(dedent.Dedent(`
			module %s {
			    umbrella %q
			    export *
			}
		`)[1:], module, includeDir), nil
	default:
		return "", fmt.Errorf("unknown generated module map kind %q", kind)
	}
}

// Generate writes the module map of a generated strategy under projectDir
// and returns its path. Existing files are overwritten.
func Generate(projectDir, module, includeDir string, kind GeneratedKind) (string, error) {
	if includeDir == "" {
		return "", &GenerationError{Module: module, Err: errors.New("target has no include directory")}
	}
	text, err := Render(module, includeDir, kind)
	if err != nil {
		return "", &GenerationError{Module: module, Err: err}
	}
	path := GeneratedPath(projectDir, module)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &GenerationError{Module: module, Err: err}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", &GenerationError{Module: module, Err: err}
	}
	return path, nil
}
