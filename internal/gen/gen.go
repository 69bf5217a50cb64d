// Package gen emits the generated verifier/wrapper file for a package's
// checked directives. Output is deterministic: directives appear in
// source order, imports are sorted, and nothing in the file depends on
// time or randomness, so regeneration over unchanged input is a no-op.
//
// Generation uses text/template + go/format for readable output. The
// emitted constructs are what the compiler re-checks on every build:
//
//   - assert: a generic verifier func whose constraint embeds every
//     bound, plus a zero-argument callable that evaluates the directive
//     expression exactly once per call and routes a reference through
//     the verifier.
//   - wrap: an interface type embedding exactly the declared capability
//     set, an erasure func, and a package-level value initialized
//     eagerly, typed only as that interface.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/go/packages"

	"github.com/leapstack-labs/boundcheck/internal/directive"
	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

// Generator renders generated files for checked packages.
type Generator struct {
	// Version is stamped into the generated file header.
	Version string
	// FileName is the per-package output file name.
	FileName string

	Logger *slog.Logger
}

// importSet tracks the packages the generated file must import,
// preferring the local name the directive expression already uses.
type importSet struct {
	names map[string]string // path -> local name
}

func newImportSet() *importSet {
	return &importSet{names: make(map[string]string)}
}

// add records a package under name unless the path is already present.
func (s *importSet) add(path, name string) string {
	if existing, ok := s.names[path]; ok {
		return existing
	}
	s.names[path] = name
	return name
}

// sorted returns the import lines, sorted by path.
func (s *importSet) sorted() []importLine {
	paths := make([]string, 0, len(s.names))
	for p := range s.names {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lines := make([]importLine, len(paths))
	for i, p := range paths {
		lines[i] = importLine{Path: p, Name: s.names[p]}
	}
	return lines
}

type importLine struct {
	Path string
	Name string
}

// Aliased reports whether the import needs an explicit local name.
func (l importLine) Aliased() bool {
	base := l.Path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return l.Name != base
}

type directiveData struct {
	Assert bool
	Name   string
	Expr   string
	Type   string   // rendered expression type
	Bounds []string // rendered bound types, declaration order
	Scope  string   // wrap only
}

type fileData struct {
	Version    string
	PkgName    string
	Imports    []importLine
	Directives []directiveData
}

var fileTemplate = template.Must(template.New("boundcheck").Parse(`// Code generated by boundcheck{{if .Version}} {{.Version}}{{end}}. DO NOT EDIT.

package {{.PkgName}}
{{if .Imports}}
import (
{{- range .Imports}}
	{{if .Aliased}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{end}}
{{- range .Directives}}
{{- if .Assert}}
// {{.Name}} returns the asserted expression's value. Constructing or
// inspecting {{.Name}} never evaluates the expression; each call
// evaluates it exactly once.
func {{.Name}}() {{.Type}} {
	v := {{.Expr}}
	_assert{{.Name}}(&v)
	return v
}

// _assert{{.Name}} fails to compile if its type argument does not
// satisfy every declared bound.
func _assert{{.Name}}[T interface{ {{range $i, $b := .Bounds}}{{if $i}}; {{end}}{{$b}}{{end}} }](*T) {}
{{- else}}
// {{.Name}}Caps is the declared capability set of {{.Name}} (scope:
// {{.Scope}}). Code holding {{.Name}} can use these operations and no
// others.
type {{.Name}}Caps interface {
{{- range .Bounds}}
	{{.}}
{{- end}}
}

func _wrap{{.Name}}[T {{.Name}}Caps](v T) {{.Name}}Caps { return v }

// {{.Name}} is evaluated once, at package initialization; its concrete
// type is hidden behind {{.Name}}Caps.
var {{.Name}} {{.Name}}Caps = _wrap{{.Name}}[{{.Type}}]({{.Expr}})
{{- end}}
{{end}}`))

// File renders the generated file for one package. The checked slice
// must be error-free; callers skip generation for packages with error
// diagnostics.
func (g *Generator) File(pkg *packages.Package, checked []*resolve.Checked) ([]byte, error) {
	imports := newImportSet()

	// Expression imports first so their local names win over the
	// default package names the type renderer would pick.
	for _, ck := range checked {
		for _, u := range ck.ExprUses {
			imports.add(u.Path, u.Name)
		}
	}

	qual := func(p *types.Package) string {
		if p == pkg.Types {
			return ""
		}
		return imports.add(p.Path(), p.Name())
	}

	data := fileData{
		Version: g.Version,
		PkgName: pkg.Types.Name(),
	}
	for _, ck := range checked {
		dd := directiveData{
			Assert: ck.Directive.Kind == directive.KindAssert,
			Name:   ck.Directive.Name,
			Expr:   ck.Directive.Expr,
			Type:   types.TypeString(ck.ExprType, qual),
			Scope:  ck.Scope.Name,
		}
		for _, b := range ck.Bounds {
			dd.Bounds = append(dd.Bounds, types.TypeString(b.Type, qual))
		}
		data.Directives = append(data.Directives, dd)
	}
	data.Imports = imports.sorted()

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render generated file: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		// The unformatted text is the only clue to what went wrong.
		return nil, fmt.Errorf("generated code does not parse: %w\n%s", err, buf.Bytes())
	}
	return src, nil
}

// OutputPath returns the generated file path for a package.
func (g *Generator) OutputPath(pkg *packages.Package) (string, error) {
	if len(pkg.CompiledGoFiles) == 0 {
		return "", fmt.Errorf("package %s has no Go files", pkg.PkgPath)
	}
	return filepath.Join(filepath.Dir(pkg.CompiledGoFiles[0]), g.FileName), nil
}

// Write renders and writes the generated file for a package, replacing
// any previous output. Writing goes through a temp file and rename so a
// failed run never leaves a half-written file behind.
func (g *Generator) Write(pkg *packages.Package, checked []*resolve.Checked) (string, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path, err := g.OutputPath(pkg)
	if err != nil {
		return "", err
	}

	// No directives: remove stale output rather than emit an empty file.
	if len(checked) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to remove stale output: %w", err)
		}
		return path, nil
	}

	src, err := g.File(pkg, checked)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".boundcheck-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write generated file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move generated file into place: %w", err)
	}

	logger.Debug("wrote generated file", "path", path, "directives", len(checked))
	return path, nil
}

// Stale reports whether the on-disk generated file differs from what
// generation would produce now. Used by vet, which never writes.
func (g *Generator) Stale(pkg *packages.Package, checked []*resolve.Checked) (bool, string, error) {
	path, err := g.OutputPath(pkg)
	if err != nil {
		return false, "", err
	}

	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return len(checked) > 0, path, nil
	}
	if err != nil {
		return false, path, err
	}

	if len(checked) == 0 {
		return true, path, nil // file exists but no directives remain
	}

	want, err := g.File(pkg, checked)
	if err != nil {
		return false, path, err
	}
	return !bytes.Equal(existing, want), path, nil
}
