// Package directive discovers boundcheck directives in Go source.
// A directive is a comment line of the form
//
//	//boundcheck:assert Name = expr => Bound1 + Bound2
//	//boundcheck:wrap   Name = expr => Bound1 + Bound2 ; scope
//
// attached anywhere in a package's files. The expression and bound list
// are kept as raw text here; typing and satisfaction checking happen in
// the resolve package.
package directive

import (
	"fmt"
	"go/token"
	"strings"
)

// Prefix is the comment marker introducing a directive.
const Prefix = "//boundcheck:"

// Kind identifies the directive form.
type Kind int

// Directive kinds.
const (
	// KindAssert defers evaluation and verifies bounds on invocation
	// of the generated callable.
	KindAssert Kind = iota
	// KindWrap evaluates eagerly and erases the concrete type behind
	// the declared capability set.
	KindWrap
)

func (k Kind) String() string {
	switch k {
	case KindAssert:
		return "assert"
	case KindWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// Directive is one parsed directive line. Expr and Bounds are verbatim
// source text; Pos/Position locate the comment for diagnostics.
type Directive struct {
	Kind     Kind
	Name     string // generated identifier
	Expr     string // expression text, spliced into generated code
	Bounds   string // raw bound-list text, parsed by pkg/bound
	Pos      token.Pos
	Position token.Position
}

// Problem is a malformed directive line. It is reported as a syntax
// diagnostic by the caller; the scan itself continues.
type Problem struct {
	Position token.Position
	Message  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Position, p.Message)
}

// parseLine parses one directive comment line (without its position).
// The comment text includes the "//boundcheck:" prefix.
func parseLine(text string) (Directive, error) {
	rest := strings.TrimPrefix(text, Prefix)

	var kind Kind
	switch {
	case strings.HasPrefix(rest, "assert"):
		kind = KindAssert
		rest = rest[len("assert"):]
	case strings.HasPrefix(rest, "wrap"):
		kind = KindWrap
		rest = rest[len("wrap"):]
	default:
		word := rest
		if i := strings.IndexAny(word, " \t"); i >= 0 {
			word = word[:i]
		}
		return Directive{}, fmt.Errorf("unknown directive %q: want assert or wrap", word)
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return Directive{}, fmt.Errorf("malformed directive: expected space after %q", kind)
	}
	rest = strings.TrimSpace(rest)

	name, rest, ok := strings.Cut(rest, "=")
	if !ok {
		return Directive{}, fmt.Errorf("malformed %s directive: missing '=' after name", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Directive{}, fmt.Errorf("malformed %s directive: missing name", kind)
	}

	// The bound list cannot contain "=>", so the last occurrence
	// separates expression from bounds even when the expression
	// contains one (e.g. in a string literal).
	sep := strings.LastIndex(rest, "=>")
	if sep < 0 {
		return Directive{}, fmt.Errorf("malformed %s directive: missing '=>' before bound list", kind)
	}
	expr := strings.TrimSpace(rest[:sep])
	bounds := strings.TrimSpace(rest[sep+len("=>"):])

	if expr == "" {
		return Directive{}, fmt.Errorf("malformed %s directive: missing expression", kind)
	}
	if bounds == "" {
		return Directive{}, fmt.Errorf("malformed %s directive: empty bound list", kind)
	}

	return Directive{Kind: kind, Name: name, Expr: expr, Bounds: bounds}, nil
}
