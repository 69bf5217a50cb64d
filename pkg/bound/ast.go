// Package bound implements the capability bound-list grammar used by
// boundcheck directives. A bound list is one or more capability bounds
// joined by '+', each a dotted identifier path with optional bracketed
// type arguments, followed by an optional '; scope' qualifier:
//
//	fmt.Stringer + Ordered + Matcher[int, []byte] ; session
//
// Type arguments are arbitrary type expressions and may nest. The angle
// bracket form Matcher<int> is accepted as an alias for the bracket form
// and normalized during parsing.
package bound

import "strings"

// Position tracks source location for error reporting. Line and Column
// are relative to the bound-list text itself; callers that embed bound
// lists in larger documents translate positions before display.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all bound grammar AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// Arg is a single type argument of a parameterized bound. The argument
// text is kept verbatim (brackets balanced, outer whitespace trimmed);
// resolution of the text is the caller's concern.
type Arg struct {
	nodeBase
	Text string
}

// Bound is one capability bound: a dotted identifier path plus optional
// type arguments. Bounds are immutable once parsed and compare by
// syntax only; no semantic deduplication happens at this layer.
type Bound struct {
	nodeBase
	Path []string // e.g. ["fmt", "Stringer"]
	Args []*Arg   // nil when the bound is not parameterized
}

// Name returns the dotted capability name without type arguments.
func (b *Bound) Name() string {
	return strings.Join(b.Path, ".")
}

// String renders the bound in canonical form, bracket arguments included.
func (b *Bound) String() string {
	if len(b.Args) == 0 {
		return b.Name()
	}
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.Text
	}
	return b.Name() + "[" + strings.Join(parts, ", ") + "]"
}

// Scope is the optional trailing validity qualifier of a bound list.
type Scope struct {
	nodeBase
	Name string
}

// List is a parsed bound list: an ordered, non-empty conjunction of
// bounds plus an optional scope qualifier. Order is preserved for
// diagnostics; satisfaction treats the list as an unordered conjunction.
type List struct {
	nodeBase
	Bounds []*Bound
	Scope  *Scope // nil when no qualifier was given
}

// String renders the list in canonical form.
func (l *List) String() string {
	parts := make([]string, len(l.Bounds))
	for i, b := range l.Bounds {
		parts[i] = b.String()
	}
	s := strings.Join(parts, " + ")
	if l.Scope != nil {
		s += "; " + l.Scope.Name
	}
	return s
}
