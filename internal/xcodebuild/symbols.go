package xcodebuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound means no debug-symbol bundle exists or could be produced for
// a binary.
var ErrNotFound = errors.New("debug symbols not found")

// SymbolExtractor locates the dSYM bundle of an archived framework,
// extracting it with dsymutil when the archive does not carry one.
type SymbolExtractor struct {
	Runner Runner
	// Path overrides the dsymutil binary.
	Path string
}

// BundlePath is where the dSYM of framework is expected: the archive's
// dSYMs directory for archived frameworks, a sibling bundle otherwise.
func BundlePath(framework string) string {
	name := filepath.Base(framework)
	dir := filepath.Dir(framework)
	if strings.HasSuffix(filepath.ToSlash(dir), "/Products/Library/Frameworks") {
		archiveRoot := filepath.Dir(filepath.Dir(filepath.Dir(dir)))
		return filepath.Join(archiveRoot, "dSYMs", name+".dSYM")
	}
	return framework + ".dSYM"
}

// Extract returns the dSYM bundle of framework.
func (e *SymbolExtractor) Extract(ctx context.Context, framework string) (string, error) {
	bundle := BundlePath(framework)
	if exists(bundle) {
		return bundle, nil
	}
	module := strings.TrimSuffix(filepath.Base(framework), filepath.Ext(framework))
	executable := filepath.Join(framework, module)
	if !exists(executable) {
		return "", fmt.Errorf("%w: %s has no executable", ErrNotFound, framework)
	}
	if err := os.MkdirAll(filepath.Dir(bundle), 0o755); err != nil {
		return "", fmt.Errorf("xcodebuild: %w", err)
	}
	cmd := Command{Name: e.binary(), Args: []string{executable, "-o", bundle}}
	if err := e.runner().Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if !exists(bundle) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, bundle)
	}
	return bundle, nil
}

func (e *SymbolExtractor) binary() string {
	if e.Path != "" {
		return e.Path
	}
	return "dsymutil"
}

func (e *SymbolExtractor) runner() Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return ExecRunner{}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
