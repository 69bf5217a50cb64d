package commands

import (
	"fmt"
	"go/token"

	"github.com/leapstack-labs/boundcheck/internal/cli/output"
	"github.com/leapstack-labs/boundcheck/internal/gen"
	"github.com/leapstack-labs/boundcheck/internal/resolve"
	"github.com/spf13/cobra"
)

// VetOptions holds options for the vet command.
type VetOptions struct {
	Format string // Output format: text, json
}

// NewVetCommand creates the vet command.
func NewVetCommand(version string) *cobra.Command {
	opts := &VetOptions{}
	cmd := &cobra.Command{
		Use:   "vet [packages]",
		Short: "Check bound directives without writing files",
		Long: `Verify every boundcheck directive and report violations without
touching any generated file. Also reports verifier files that are
out of date with their directives.

Intended for CI, where a non-zero exit means either a violated
bound or a verifier file that needs regenerating.`,
		Example: `  # Vet the current module
  boundcheck vet

  # Vet specific packages with JSON output
  boundcheck vet ./pkg/... --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVet(cmd, args, opts, version)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

func runVet(cmd *cobra.Command, args []string, opts *VetOptions, version string) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	res, err := runCheck(cmdCtx, args)
	if err != nil {
		return err
	}

	g := &gen.Generator{
		Version:  version,
		FileName: cmdCtx.Cfg.GeneratedFile,
		Logger:   cmdCtx.Logger,
	}

	diags := res.Diags
	var stale int
	for _, pkg := range res.Prog.Packages {
		if res.Failed[pkg.PPkg.PkgPath] {
			// Staleness is meaningless while the directives themselves
			// are broken.
			continue
		}
		isStale, path, err := g.Stale(pkg.PPkg, res.Checked[pkg.PPkg.PkgPath])
		if err != nil {
			return fmt.Errorf("failed to compare %s: %w", pkg.PPkg.PkgPath, err)
		}
		if isStale {
			stale++
			diags = append(diags, resolve.Diagnostic{
				Kind:     resolve.KindStaleOutput,
				Severity: resolve.SeverityWarning,
				Pos:      token.Position{Filename: path},
				Message:  "verifier file is out of date, run boundcheck generate",
			})
		}
	}
	resolve.Sort(diags)

	if err := cmdCtx.Renderer.Diagnostics(diags); err != nil {
		return err
	}

	switch {
	case len(res.Failed) > 0:
		return fmt.Errorf("bound check failed for %d package(s)", len(res.Failed))
	case stale > 0:
		return fmt.Errorf("%d verifier file(s) out of date", stale)
	}

	if cmdCtx.Renderer.EffectiveMode() == output.ModeText {
		cmdCtx.Renderer.Success(fmt.Sprintf("checked %d package(s)", len(res.Prog.Packages)))
	}
	return nil
}
