package resolve

// DefaultScope is the implicit validity scope of every wrap directive.
// Go values live for the whole process, so the default scope is always
// satisfied.
const DefaultScope = "process"

// ScopeDef declares a named validity scope. Requires optionally names a
// capability (in bound-list syntax) the wrapped type must additionally
// satisfy to be considered valid for the scope.
type ScopeDef struct {
	Name     string `koanf:"name"`
	Requires string `koanf:"requires"`
}

// ScopeSet is the set of scopes a project declares, keyed by name.
// The process scope is always present and never carries a requirement.
type ScopeSet map[string]ScopeDef

// NewScopeSet builds a scope set from declared scopes plus the builtin
// process scope.
func NewScopeSet(defs []ScopeDef) ScopeSet {
	set := ScopeSet{DefaultScope: {Name: DefaultScope}}
	for _, d := range defs {
		set[d.Name] = d
	}
	return set
}
