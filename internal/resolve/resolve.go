package resolve

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/leapstack-labs/boundcheck/internal/directive"
	"github.com/leapstack-labs/boundcheck/pkg/bound"
)

// Checker resolves and verifies directives against a loaded package.
type Checker struct {
	// Scopes is the project's declared scope set (always contains the
	// process scope).
	Scopes ScopeSet
	// Deps looks up any package the load pulled in, by import path.
	// Used to resolve registry aliases and forced imports.
	Deps func(path string) (*packages.Package, bool)
	// ExtraImports are the configured forced-import paths, tried when
	// a dotted bound qualifier matches none of the file's imports.
	ExtraImports []string

	Logger *slog.Logger
}

// ResolvedBound is one capability bound resolved to a type and checked.
type ResolvedBound struct {
	Bound     *bound.Bound
	Type      types.Type // interface (or constraint) type, instantiated
	Satisfied bool
	Reason    string // explanation when not satisfied
}

// Use records an imported package the directive expression references,
// under the local name the source file imports it as.
type Use struct {
	Name string
	Path string
}

// Checked is a fully resolved directive ready for code generation.
type Checked struct {
	Directive directive.Directive
	List      *bound.List
	ExprType  types.Type // defaulted type of the directive expression
	ExprUses  []Use      // imported packages the expression references
	Bounds    []*ResolvedBound
	Scope     ScopeDef // wrap only; zero value for assert
}

// Satisfied reports whether every bound (and the scope requirement)
// held for the directive.
func (c *Checked) Satisfied() bool {
	for _, b := range c.Bounds {
		if !b.Satisfied {
			return false
		}
	}
	return true
}

// CheckPackage verifies every directive of a scanned package. The
// returned Checked slice holds one entry per well-formed directive, in
// source order; directives that failed resolution are absent. All
// findings, including satisfaction failures on returned entries, are in
// the diagnostics.
func (c *Checker) CheckPackage(pkg *directive.Package) ([]*Checked, []Diagnostic) {
	var (
		checked []*Checked
		diags   []Diagnostic
	)

	for _, p := range pkg.Problems {
		diags = append(diags, errorf(KindSyntax, p.Position, "%s", p.Message))
	}

	seen := make(map[string]token.Position)
	for _, d := range pkg.Directives {
		if !token.IsIdentifier(d.Name) {
			dg := errorf(KindInvalidName, d.Position, "directive name %q is not a valid Go identifier", d.Name)
			dg.Directive = d.Name
			diags = append(diags, dg)
			continue
		}
		if first, dup := seen[d.Name]; dup {
			dg := errorf(KindDuplicateDirective, d.Position, "directive name %q already used at %s", d.Name, first)
			dg.Directive = d.Name
			diags = append(diags, dg)
			continue
		}
		seen[d.Name] = d.Position

		ck, ds := c.check(pkg.PPkg, d)
		diags = append(diags, ds...)
		if ck != nil {
			checked = append(checked, ck)
		}
	}

	Sort(diags)
	return checked, diags
}

// check resolves a single directive. A nil Checked means the directive
// could not be resolved at all; satisfaction failures still return the
// Checked so callers can report every violated bound.
func (c *Checker) check(pkg *packages.Package, d directive.Directive) (*Checked, []Diagnostic) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	list, err := bound.Parse(d.Bounds, d.Position.Filename)
	if err != nil {
		dg := errorf(KindSyntax, d.Position, "invalid bound list: %v", err)
		dg.Directive = d.Name
		return nil, []Diagnostic{dg}
	}

	if list.Scope != nil && d.Kind == directive.KindAssert {
		dg := errorf(KindSyntax, d.Position, "scope qualifier %q is only valid on wrap directives", list.Scope.Name)
		dg.Directive = d.Name
		return nil, []Diagnostic{dg}
	}

	exprType, uses, dg := c.typeExpr(pkg, d)
	if dg != nil {
		return nil, []Diagnostic{*dg}
	}

	ck := &Checked{Directive: d, List: list, ExprType: exprType, ExprUses: uses}
	var diags []Diagnostic

	for _, b := range list.Bounds {
		rb, dg := c.resolveBound(pkg, d, b)
		if dg != nil {
			diags = append(diags, *dg)
			return nil, diags
		}
		if d.Kind == directive.KindWrap {
			if iface := rb.Type.Underlying().(*types.Interface); !iface.IsMethodSet() {
				dg := errorf(KindNotSatisfied, d.Position,
					"bound %s is a constraint interface and cannot type an opaque value", b.String())
				dg.Directive, dg.Bound = d.Name, b.String()
				diags = append(diags, dg)
				return nil, diags
			}
		}
		rb.Satisfied, rb.Reason = satisfies(exprType, rb.Type.Underlying().(*types.Interface))
		if !rb.Satisfied {
			dg := errorf(KindNotSatisfied, d.Position,
				"type %s does not satisfy bound %s: %s", typeString(exprType, pkg), b.String(), rb.Reason)
			dg.Directive, dg.Bound, dg.Type = d.Name, b.String(), typeString(exprType, pkg)
			diags = append(diags, dg)
		}
		ck.Bounds = append(ck.Bounds, rb)
	}

	if d.Kind == directive.KindWrap {
		scopeDiags := c.checkScope(pkg, d, list, ck)
		diags = append(diags, scopeDiags...)
	}

	logger.Debug("checked directive",
		"directive", d.Name,
		"kind", d.Kind.String(),
		"type", typeString(exprType, pkg),
		"satisfied", ck.Satisfied())

	return ck, diags
}

// checkScope resolves the wrap directive's scope qualifier and verifies
// its requirement, if any.
func (c *Checker) checkScope(pkg *packages.Package, d directive.Directive, list *bound.List, ck *Checked) []Diagnostic {
	name := DefaultScope
	if list.Scope != nil {
		name = list.Scope.Name
	}

	def, ok := c.Scopes[name]
	if !ok {
		dg := errorf(KindScopeInsufficient, d.Position,
			"scope %q is not declared; declare it under scopes in boundcheck.yaml", name)
		dg.Directive = d.Name
		return []Diagnostic{dg}
	}
	ck.Scope = def

	if def.Requires == "" {
		return nil
	}

	req, err := bound.Parse(def.Requires, "boundcheck.yaml")
	if err != nil {
		dg := errorf(KindInternal, d.Position,
			"scope %q has an unparseable requirement %q: %v", name, def.Requires, err)
		dg.Directive = d.Name
		return []Diagnostic{dg}
	}

	var diags []Diagnostic
	for _, b := range req.Bounds {
		rb, dg := c.resolveBound(pkg, d, b)
		if dg != nil {
			diags = append(diags, *dg)
			return diags
		}
		if sat, reason := satisfies(ck.ExprType, rb.Type.Underlying().(*types.Interface)); !sat {
			dg := errorf(KindScopeInsufficient, d.Position,
				"type %s is not valid for scope %q: requires %s (%s)",
				typeString(ck.ExprType, pkg), name, b.String(), reason)
			dg.Directive, dg.Bound, dg.Type = d.Name, b.String(), typeString(ck.ExprType, pkg)
			diags = append(diags, dg)
		}
	}
	return diags
}

// typeExpr type-checks the directive expression in the package scope at
// the directive's position, so the expression sees exactly the
// identifiers the surrounding file sees. The expression is never
// evaluated; only its type is computed.
func (c *Checker) typeExpr(pkg *packages.Package, d directive.Directive) (types.Type, []Use, *Diagnostic) {
	expr, err := parser.ParseExpr(d.Expr)
	if err != nil {
		dg := errorf(KindSyntax, d.Position, "invalid expression %q: %v", d.Expr, err)
		dg.Directive = d.Name
		return nil, nil, &dg
	}

	info := newInfo()
	if err := types.CheckExpr(pkg.Fset, pkg.Types, d.Pos, expr, info); err != nil {
		dg := errorf(KindSyntax, d.Position, "expression %q does not type-check: %v", d.Expr, err)
		dg.Directive = d.Name
		return nil, nil, &dg
	}

	tv, ok := info.Types[expr]
	if !ok || !tv.IsValue() {
		dg := errorf(KindSyntax, d.Position, "directive expression %q must be a value expression", d.Expr)
		dg.Directive = d.Name
		return nil, nil, &dg
	}

	// Untyped constants take their default type; that is the type the
	// generated code will see when the expression is assigned.
	t := types.Default(tv.Type)

	var uses []Use
	seen := make(map[string]bool)
	for _, obj := range info.Uses {
		if pn, ok := obj.(*types.PkgName); ok {
			imp := pn.Imported()
			if !seen[imp.Path()] {
				seen[imp.Path()] = true
				uses = append(uses, Use{Name: pn.Name(), Path: imp.Path()})
			}
		}
	}
	sort.Slice(uses, func(i, j int) bool { return uses[i].Path < uses[j].Path })

	return t, uses, nil
}

// newInfo allocates the type info maps CheckExpr fills in.
func newInfo() *types.Info {
	return &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Uses:  make(map[*ast.Ident]types.Object),
	}
}

// resolveBound resolves one bound to an interface type, instantiating
// parameterized bounds with their type arguments.
func (c *Checker) resolveBound(pkg *packages.Package, d directive.Directive, b *bound.Bound) (*ResolvedBound, *Diagnostic) {
	t, dg := c.resolveHead(pkg, d, b)
	if dg != nil {
		return nil, dg
	}

	named, _ := t.(*types.Named)
	nparams := 0
	if named != nil {
		nparams = named.TypeParams().Len()
	}

	switch {
	case len(b.Args) > 0 && nparams == 0:
		dg := errorf(KindUnknownCapability, d.Position, "capability %s is not parameterized", b.Name())
		dg.Directive, dg.Bound = d.Name, b.String()
		return nil, &dg
	case len(b.Args) == 0 && nparams > 0:
		dg := errorf(KindUnknownCapability, d.Position,
			"capability %s requires %d type argument(s)", b.Name(), nparams)
		dg.Directive, dg.Bound = d.Name, b.String()
		return nil, &dg
	case len(b.Args) > 0:
		if len(b.Args) != nparams {
			dg := errorf(KindUnknownCapability, d.Position,
				"capability %s requires %d type argument(s), got %d", b.Name(), nparams, len(b.Args))
			dg.Directive, dg.Bound = d.Name, b.String()
			return nil, &dg
		}
		targs := make([]types.Type, len(b.Args))
		for i, a := range b.Args {
			at, adg := c.typeFromString(pkg, d, a.Text)
			if adg != nil {
				return nil, adg
			}
			targs[i] = at
		}
		inst, err := types.Instantiate(types.NewContext(), named, targs, true)
		if err != nil {
			dg := errorf(KindUnknownCapability, d.Position, "cannot instantiate bound %s: %v", b.String(), err)
			dg.Directive, dg.Bound = d.Name, b.String()
			return nil, &dg
		}
		t = inst
	}

	if _, ok := t.Underlying().(*types.Interface); !ok {
		dg := errorf(KindUnknownCapability, d.Position,
			"capability %s resolves to %s, which is not an interface", b.Name(), typeString(t, pkg))
		dg.Directive, dg.Bound = d.Name, b.String()
		return nil, &dg
	}

	return &ResolvedBound{Bound: b, Type: t}, nil
}

// resolveHead resolves the dotted capability name to a type, before any
// instantiation. Resolution order for bare names: the scanned package's
// own scope, then the alias registry, then the universe scope. Dotted
// names resolve through the file's imports, then configured forced
// imports.
func (c *Checker) resolveHead(pkg *packages.Package, d directive.Directive, b *bound.Bound) (types.Type, *Diagnostic) {
	unknown := func(format string, args ...any) *Diagnostic {
		dg := errorf(KindUnknownCapability, d.Position, format, args...)
		dg.Directive, dg.Bound = d.Name, b.String()
		return &dg
	}

	if len(b.Path) == 1 {
		name := b.Path[0]

		if obj := pkg.Types.Scope().Lookup(name); obj != nil {
			if tn, ok := obj.(*types.TypeName); ok {
				return tn.Type(), nil
			}
		}
		if a, ok := Lookup(name); ok {
			return c.resolveAlias(a, unknown)
		}
		if obj := types.Universe.Lookup(name); obj != nil {
			if tn, ok := obj.(*types.TypeName); ok {
				return tn.Type(), nil
			}
		}
		return nil, unknown("unknown capability %s: not an alias, package type, or universe type", name)
	}

	qualifier := strings.Join(b.Path[:len(b.Path)-1], ".")
	typeName := b.Path[len(b.Path)-1]

	// File imports first: the directive sees what its file sees.
	if scope := pkg.Types.Scope().Innermost(d.Pos); scope != nil {
		if _, obj := scope.LookupParent(qualifier, d.Pos); obj != nil {
			if pn, ok := obj.(*types.PkgName); ok {
				return lookupIn(pn.Imported(), typeName, b.Name(), unknown)
			}
		}
	}

	// Fall back to forced imports from config.
	for _, path := range c.ExtraImports {
		if path != qualifier && !strings.HasSuffix(path, "/"+qualifier) {
			continue
		}
		if dep, ok := c.dep(path); ok {
			return lookupIn(dep.Types, typeName, b.Name(), unknown)
		}
	}

	return nil, unknown("unknown capability %s: package %q is not imported here; add it to imports in boundcheck.yaml", b.Name(), qualifier)
}

// resolveAlias resolves a registry alias to its type.
func (c *Checker) resolveAlias(a Alias, unknown func(string, ...any) *Diagnostic) (types.Type, *Diagnostic) {
	if a.PkgPath == "" {
		if obj := types.Universe.Lookup(a.TypeName); obj != nil {
			if tn, ok := obj.(*types.TypeName); ok {
				return tn.Type(), nil
			}
		}
		return nil, unknown("alias %s points at unknown universe type %s", a.Name, a.TypeName)
	}
	dep, ok := c.dep(a.PkgPath)
	if !ok {
		return nil, unknown("alias %s resolves to %s, but package %s is not loaded; add it to imports in boundcheck.yaml",
			a.Name, a.Target(), a.PkgPath)
	}
	return lookupIn(dep.Types, a.TypeName, a.Name, unknown)
}

// typeFromString resolves a type-argument expression in the directive's
// file context.
func (c *Checker) typeFromString(pkg *packages.Package, d directive.Directive, text string) (types.Type, *Diagnostic) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		dg := errorf(KindSyntax, d.Position, "invalid type argument %q: %v", text, err)
		dg.Directive = d.Name
		return nil, &dg
	}

	info := newInfo()
	if err := types.CheckExpr(pkg.Fset, pkg.Types, d.Pos, expr, info); err != nil {
		dg := errorf(KindUnknownCapability, d.Position, "cannot resolve type argument %q: %v", text, err)
		dg.Directive = d.Name
		return nil, &dg
	}
	tv := info.Types[expr]
	if !tv.IsType() {
		dg := errorf(KindSyntax, d.Position, "type argument %q is not a type", text)
		dg.Directive = d.Name
		return nil, &dg
	}
	return tv.Type, nil
}

func (c *Checker) dep(path string) (*packages.Package, bool) {
	if c.Deps == nil {
		return nil, false
	}
	return c.Deps(path)
}

// lookupIn finds an interface type name in a package scope.
func lookupIn(p *types.Package, typeName, boundName string, unknown func(string, ...any) *Diagnostic) (types.Type, *Diagnostic) {
	if p == nil {
		return nil, unknown("capability %s: package not type-checked", boundName)
	}
	obj := p.Scope().Lookup(typeName)
	if obj == nil {
		return nil, unknown("capability %s: %s has no type %s", boundName, p.Path(), typeName)
	}
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, unknown("capability %s: %s.%s is not a type", boundName, p.Path(), typeName)
	}
	return tn.Type(), nil
}

// typeString renders a type relative to the scanned package.
func typeString(t types.Type, pkg *packages.Package) string {
	return types.TypeString(t, types.RelativeTo(pkg.Types))
}
