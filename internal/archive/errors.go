package archive

import (
	"errors"
	"fmt"
)

var (
	ErrNoVariantsRequested   = errors.New("no variants requested")
	ErrUnknownVariant        = errors.New("unknown variant")
	ErrArchiveFailed         = errors.New("archive failed")
	ErrDebugSymbolExtraction = errors.New("debug symbol extraction failed")
	ErrPrepareOutput         = errors.New("prepare output failed")
	ErrMergeFailed           = errors.New("merge failed")
)

// StageError is the failure of one assembly. Kind is one of the Err*
// sentinels; Err is the underlying cause, if any. Variant is empty for
// stages that do not run per variant.
type StageError struct {
	Stage   Stage
	Target  string
	Variant string
	Kind    error
	Err     error
}

func (e *StageError) Error() string {
	where := e.Target
	if e.Variant != "" {
		where += " (" + e.Variant + ")"
	}
	switch {
	case e.Err == nil:
		return fmt.Sprintf("archive: %s %s: %v", e.Stage, where, e.Kind)
	case errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("archive: %s %s: %v", e.Stage, where, e.Err)
	default:
		return fmt.Sprintf("archive: %s %s: %v: %v", e.Stage, where, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
