package commands

import (
	"github.com/leapstack-labs/boundcheck/internal/directive"
	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

// checkResult is the shared output of the scan+resolve pipeline used by
// both generate and vet.
type checkResult struct {
	Prog    *directive.Program
	Checked map[string][]*resolve.Checked // keyed by package path
	Failed  map[string]bool               // packages with error diagnostics
	Diags   []resolve.Diagnostic
}

// runCheck loads the packages matched by patterns and verifies every
// directive against the configured scopes and aliases.
func runCheck(cmdCtx *CommandContext, patterns []string) (*checkResult, error) {
	loader := &directive.Loader{
		GeneratedFile: cmdCtx.Cfg.GeneratedFile,
		ExtraImports:  cmdCtx.Cfg.Imports,
		Logger:        cmdCtx.Logger,
	}

	prog, err := loader.Load(patterns...)
	if err != nil {
		return nil, err
	}

	checker := &resolve.Checker{
		Scopes:       cmdCtx.Scopes,
		Deps:         prog.Dep,
		ExtraImports: cmdCtx.Cfg.Imports,
		Logger:       cmdCtx.Logger,
	}

	res := &checkResult{
		Prog:    prog,
		Checked: make(map[string][]*resolve.Checked),
		Failed:  make(map[string]bool),
	}

	for _, pkg := range prog.Packages {
		checked, diags := checker.CheckPackage(pkg)
		res.Checked[pkg.PPkg.PkgPath] = checked
		res.Diags = append(res.Diags, diags...)
		if resolve.HasErrors(diags) {
			res.Failed[pkg.PPkg.PkgPath] = true
		}
	}

	resolve.Sort(res.Diags)
	return res, nil
}
