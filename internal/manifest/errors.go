package manifest

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPackage        = errors.New("invalid package")
	ErrUnsupportedTargetKind = errors.New("unsupported target kind")
	ErrUnknownDependency     = errors.New("unknown dependency")
)

// InvalidPackageError reports a graph without a resolvable root package or a
// manifest that failed to load.
type InvalidPackageError struct {
	Root string
	Err  error
}

func (e *InvalidPackageError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("%s: %v", ErrInvalidPackage, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", ErrInvalidPackage, e.Root, e.Err)
}

func (e *InvalidPackageError) Unwrap() error { return e.Err }

func (e *InvalidPackageError) Is(target error) bool { return target == ErrInvalidPackage }

// UnsupportedTargetKindError reports a non-library target reached through a
// library's dependency closure.
type UnsupportedTargetKindError struct {
	Target string
	Kind   TargetKind
	// Via is the dependent that pulled Target in; empty for product roots.
	Via string
}

func (e *UnsupportedTargetKindError) Error() string {
	if e.Via == "" {
		return fmt.Sprintf("%s %q for target %q", ErrUnsupportedTargetKind, e.Kind, e.Target)
	}
	return fmt.Sprintf("%s %q for target %q (required by %q)", ErrUnsupportedTargetKind, e.Kind, e.Target, e.Via)
}

func (e *UnsupportedTargetKindError) Unwrap() error { return ErrUnsupportedTargetKind }

func unknownDependency(target string, dep Dependency) error {
	name := dep.Target
	if name == "" {
		name = dep.Product
		if dep.Package != "" {
			name = dep.Package + "/" + name
		}
	}
	return fmt.Errorf("%w %q of target %q", ErrUnknownDependency, name, target)
}
