// Package modulemap decides how a C-family target exposes its public headers
// as an importable module, and synthesizes module maps when it has to.
package modulemap

import "fmt"

// Kind enumerates the module-map strategies.
type Kind int

const (
	KindNone Kind = iota
	KindCustom
	KindUmbrellaHeader
	KindGenerated
)

func (k Kind) String() string {
	switch k {
	case KindCustom:
		return "custom"
	case KindUmbrellaHeader:
		return "umbrella-header"
	case KindGenerated:
		return "generated"
	default:
		return "none"
	}
}

// GeneratedKind is the shape of a synthesized module map.
type GeneratedKind string

// UmbrellaDirectory exports every header under the include directory.
const UmbrellaDirectory GeneratedKind = "umbrella-directory"

// Strategy is the resolved module-map strategy of one target. The zero value
// is None.
type Strategy struct {
	kind      Kind
	path      string
	generated GeneratedKind
}

// Custom uses a module map that already exists at path.
func Custom(path string) Strategy { return Strategy{kind: KindCustom, path: path} }

// Umbrella exposes the module through the umbrella header at path.
func Umbrella(path string) Strategy { return Strategy{kind: KindUmbrellaHeader, path: path} }

// Generated synthesizes a module map of the given kind.
func Generated(kind GeneratedKind) Strategy { return Strategy{kind: KindGenerated, generated: kind} }

// None exposes no module.
func None() Strategy { return Strategy{} }

func (s Strategy) Kind() Kind { return s.kind }

// Path is the custom module map or the umbrella header; empty otherwise.
func (s Strategy) Path() string { return s.path }

// GeneratedKind is set only for KindGenerated.
func (s Strategy) GeneratedKind() GeneratedKind { return s.generated }

func (s Strategy) String() string {
	switch s.kind {
	case KindCustom, KindUmbrellaHeader:
		return fmt.Sprintf("%s(%s)", s.kind, s.path)
	case KindGenerated:
		return fmt.Sprintf("%s(%s)", s.kind, s.generated)
	default:
		return s.kind.String()
	}
}
