// Package resolve turns parsed bound lists into type-checked capability
// constraints. It resolves capability names against the scanned package,
// the built-in alias registry, and configured extra imports, then checks
// the directive expression's type against every bound with the go/types
// satisfaction rules the compiler itself applies.
package resolve

import (
	"fmt"
	"go/token"
	"sort"
)

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError indicates a violation that must abort generation.
	SeverityError Severity = iota
	// SeverityWarning indicates a finding that does not block generation.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// Kind classifies a diagnostic.
type Kind int

// Diagnostic kinds. Every kind except KindStaleOutput is an error that
// terminates the enclosing package's generation.
const (
	// KindSyntax is a malformed directive or bound list.
	KindSyntax Kind = iota
	// KindUnknownCapability is a bound name that resolves to nothing,
	// or to something that is not an interface.
	KindUnknownCapability
	// KindNotSatisfied is an expression type failing a declared bound.
	KindNotSatisfied
	// KindScopeInsufficient is a wrap scope the expression type cannot
	// meet, or an undeclared scope name.
	KindScopeInsufficient
	// KindDuplicateDirective is a directive name used twice in a package.
	KindDuplicateDirective
	// KindInvalidName is a directive name that is not a Go identifier.
	KindInvalidName
	// KindStaleOutput is a generated file that no longer matches its
	// directives (reported by vet only).
	KindStaleOutput
	// KindInternal is a failure of the tool itself.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindUnknownCapability:
		return "unknown-capability"
	case KindNotSatisfied:
		return "capability-not-satisfied"
	case KindScopeInsufficient:
		return "scope-insufficient"
	case KindDuplicateDirective:
		return "duplicate-directive"
	case KindInvalidName:
		return "invalid-name"
	case KindStaleOutput:
		return "stale-output"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Diagnostic represents a finding against a directive.
type Diagnostic struct {
	Kind      Kind           `json:"kind"`
	Severity  Severity       `json:"severity"`
	Directive string         `json:"directive,omitempty"` // directive name, when known
	Bound     string         `json:"bound,omitempty"`     // violated bound, for satisfaction failures
	Type      string         `json:"type,omitempty"`      // checked type, for satisfaction failures
	Pos       token.Position `json:"pos"`
	Message   string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// errorf builds an error diagnostic.
func errorf(kind Kind, pos token.Position, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	}
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by file, line, column for stable output.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Pos, diags[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
