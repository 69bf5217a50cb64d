package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/boundcheck/internal/cli/output"
	"github.com/leapstack-labs/boundcheck/internal/resolve"
	"github.com/spf13/cobra"
)

// CapabilitiesOptions holds options for the capabilities command.
type CapabilitiesOptions struct {
	Format string // Output format: text, json
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand() *cobra.Command {
	opts := &CapabilitiesOptions{}
	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "List known capability aliases and scopes",
		Long: `Show every bare capability name the resolver knows, built-in and
configured, together with the interface it stands for, plus the
scopes declared in boundcheck.yaml.`,
		Example: `  # List capabilities
  boundcheck capabilities

  # Machine-readable listing
  boundcheck capabilities --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

type capabilitiesDoc struct {
	Aliases []aliasDoc         `json:"aliases"`
	Scopes  []resolve.ScopeDef `json:"scopes"`
}

type aliasDoc struct {
	Name    string `json:"name"`
	Target  string `json:"target"`
	BuiltIn bool   `json:"built_in"`
}

func runCapabilities(cmd *cobra.Command, opts *CapabilitiesOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	aliases := resolve.All()

	scopes := make([]resolve.ScopeDef, 0, len(cmdCtx.Scopes))
	for _, def := range cmdCtx.Scopes {
		scopes = append(scopes, def)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Name < scopes[j].Name })

	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		doc := capabilitiesDoc{Scopes: scopes}
		for _, a := range aliases {
			doc.Aliases = append(doc.Aliases, aliasDoc{Name: a.Name, Target: a.Target(), BuiltIn: a.BuiltIn})
		}
		return cmdCtx.Renderer.JSON(doc)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmdCtx.Renderer.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Capability", "Target", "Source"})
	for _, a := range aliases {
		source := "config"
		if a.BuiltIn {
			source = "built-in"
		}
		t.AppendRow(table.Row{a.Name, a.Target(), source})
	}
	t.Render()

	st := table.NewWriter()
	st.SetOutputMirror(cmdCtx.Renderer.Out())
	st.SetStyle(table.StyleLight)
	st.AppendHeader(table.Row{"Scope", "Requires"})
	for _, def := range scopes {
		requires := def.Requires
		if requires == "" {
			requires = "(always satisfied)"
		}
		st.AppendRow(table.Row{def.Name, requires})
	}
	st.Render()

	return nil
}
