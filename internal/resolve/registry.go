package resolve

import (
	"sort"
	"strings"
	"sync"
)

// Alias maps a bare capability name to a Go interface. PkgPath is empty
// for universe types (error, comparable, any).
type Alias struct {
	Name     string `json:"name"`
	PkgPath  string `json:"pkg_path,omitempty"`
	TypeName string `json:"type_name"`
	BuiltIn  bool   `json:"built_in"`
}

// Target returns the dotted form of the alias target, e.g. "fmt.Stringer".
func (a Alias) Target() string {
	if a.PkgPath == "" {
		return a.TypeName
	}
	return a.PkgPath + "." + a.TypeName
}

// globalRegistry is the single global registry for capability aliases.
var globalRegistry = &Registry{
	aliases: make(map[string]Alias),
}

// Registry stores capability aliases for bare-name resolution.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]Alias // keyed by alias name
}

// Register adds an alias to the global registry. Later registrations
// replace earlier ones, which lets project config shadow built-ins.
func Register(a Alias) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.aliases[a.Name] = a
}

// RegisterPath registers an alias given its dotted target, e.g.
// "encoding/json.Marshaler". The segment after the last dot is the type
// name; everything before it is the import path.
func RegisterPath(name, target string) Alias {
	a := Alias{Name: name, TypeName: target}
	if i := strings.LastIndex(target, "."); i >= 0 {
		a.PkgPath, a.TypeName = target[:i], target[i+1:]
	}
	Register(a)
	return a
}

// Lookup returns the alias registered under name.
func Lookup(name string) (Alias, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	a, ok := globalRegistry.aliases[name]
	return a, ok
}

// All returns every registered alias, sorted by name.
func All() []Alias {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	aliases := make([]Alias, 0, len(globalRegistry.aliases))
	for _, a := range globalRegistry.aliases {
		aliases = append(aliases, a)
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Name < aliases[j].Name })
	return aliases
}

// Built-in aliases cover the capabilities directives reach for most
// often. Projects extend or shadow these via the aliases config map.
func init() {
	builtins := []Alias{
		{Name: "Any", TypeName: "any"},
		{Name: "Comparable", TypeName: "comparable"},
		{Name: "Error", TypeName: "error"},
		{Name: "Ordered", PkgPath: "cmp", TypeName: "Ordered"},
		{Name: "Stringer", PkgPath: "fmt", TypeName: "Stringer"},
		{Name: "GoStringer", PkgPath: "fmt", TypeName: "GoStringer"},
		{Name: "Reader", PkgPath: "io", TypeName: "Reader"},
		{Name: "Writer", PkgPath: "io", TypeName: "Writer"},
		{Name: "Closer", PkgPath: "io", TypeName: "Closer"},
		{Name: "ReadWriter", PkgPath: "io", TypeName: "ReadWriter"},
		{Name: "ReadCloser", PkgPath: "io", TypeName: "ReadCloser"},
		{Name: "WriteCloser", PkgPath: "io", TypeName: "WriteCloser"},
		{Name: "TextMarshaler", PkgPath: "encoding", TypeName: "TextMarshaler"},
		{Name: "TextUnmarshaler", PkgPath: "encoding", TypeName: "TextUnmarshaler"},
		{Name: "BinaryMarshaler", PkgPath: "encoding", TypeName: "BinaryMarshaler"},
		{Name: "BinaryUnmarshaler", PkgPath: "encoding", TypeName: "BinaryUnmarshaler"},
		{Name: "JSONMarshaler", PkgPath: "encoding/json", TypeName: "Marshaler"},
		{Name: "JSONUnmarshaler", PkgPath: "encoding/json", TypeName: "Unmarshaler"},
	}
	for _, a := range builtins {
		a.BuiltIn = true
		Register(a)
	}
}
