package directive

import (
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

// loadMode requests everything resolution needs: syntax for comment
// scanning, full type information for expression checking, and the
// import graph for capability lookup.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Package is a scanned package with its directives in source order.
type Package struct {
	PPkg       *packages.Package
	Directives []Directive
	Problems   []Problem // malformed directive lines
}

// Program is the result of a Load: the packages selected by the caller's
// patterns plus a lookup table over every package the load pulled in,
// which resolution uses for alias and forced-import capability lookup.
type Program struct {
	Packages []*Package

	mu   sync.Mutex
	deps map[string]*packages.Package
}

// Loader scans Go packages for boundcheck directives.
type Loader struct {
	// GeneratedFile is the per-package output file name; files with
	// this base name are skipped during scanning.
	GeneratedFile string
	// ExtraImports are package paths loaded in addition to the
	// caller's patterns so bounds can name capabilities the scanned
	// files do not import.
	ExtraImports []string
	// Dir is the working directory for the load; empty means CWD.
	Dir string

	Logger *slog.Logger
}

// Load loads and scans the packages matched by patterns.
func (l *Loader) Load(patterns ...string) (*Program, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Mode: loadMode,
		Dir:  l.Dir,
	}

	all := append(append([]string{}, patterns...), l.ExtraImports...)
	pkgs, err := packages.Load(cfg, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	extra := make(map[string]bool, len(l.ExtraImports))
	for _, p := range l.ExtraImports {
		extra[p] = true
	}

	prog := &Program{deps: make(map[string]*packages.Package)}
	var scanned []*packages.Package
	for _, p := range pkgs {
		prog.index(p)
		if extra[p.PkgPath] {
			continue
		}
		if len(p.Errors) > 0 {
			// Surface the first load error; later phases cannot
			// type-check against a broken package.
			return nil, fmt.Errorf("package %s: %s", p.PkgPath, p.Errors[0].Msg)
		}
		scanned = append(scanned, p)
	}

	prog.Packages = make([]*Package, len(scanned))
	var g errgroup.Group
	for i, p := range scanned {
		g.Go(func() error {
			prog.Packages[i] = l.Scan(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(prog.Packages, func(i, j int) bool {
		return prog.Packages[i].PPkg.PkgPath < prog.Packages[j].PPkg.PkgPath
	})
	for _, p := range prog.Packages {
		logger.Debug("scanned package",
			"package", p.PPkg.PkgPath,
			"directives", len(p.Directives),
			"problems", len(p.Problems))
	}
	return prog, nil
}

// Dep returns a loaded package by import path, following the whole
// import graph of the load.
func (p *Program) Dep(path string) (*packages.Package, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pkg, ok := p.deps[path]
	return pkg, ok
}

// index records pkg and its transitive imports in the dep table.
func (p *Program) index(pkg *packages.Package) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var walk func(*packages.Package)
	walk = func(q *packages.Package) {
		if _, seen := p.deps[q.PkgPath]; seen {
			return
		}
		p.deps[q.PkgPath] = q
		for _, imp := range q.Imports {
			walk(imp)
		}
	}
	walk(pkg)
}

// Scan walks one already-loaded package's comments for directive lines.
// Load calls it for every package it matches; it is exported for callers
// that obtain packages some other way.
func (l *Loader) Scan(p *packages.Package) *Package {
	out := &Package{PPkg: p}

	for _, f := range p.Syntax {
		name := p.Fset.Position(f.Pos()).Filename
		if l.GeneratedFile != "" && filepath.Base(name) == l.GeneratedFile {
			continue
		}
		for _, group := range f.Comments {
			for _, c := range group.List {
				if !strings.HasPrefix(c.Text, Prefix) {
					continue
				}
				pos := p.Fset.Position(c.Slash)
				d, err := parseLine(c.Text)
				if err != nil {
					out.Problems = append(out.Problems, Problem{
						Position: pos,
						Message:  err.Error(),
					})
					continue
				}
				d.Pos = c.Slash
				d.Position = pos
				out.Directives = append(out.Directives, d)
			}
		}
	}

	// Comment groups surface in file order already, but files come in
	// compile order; sort so generation is deterministic.
	sort.SliceStable(out.Directives, func(i, j int) bool {
		return lessPosition(out.Directives[i].Position, out.Directives[j].Position)
	})
	sort.SliceStable(out.Problems, func(i, j int) bool {
		return lessPosition(out.Problems[i].Position, out.Problems[j].Position)
	})

	return out
}

func lessPosition(a, b token.Position) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
