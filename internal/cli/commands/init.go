package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/boundcheck/internal/cli/output"
	"github.com/spf13/cobra"
)

const configTemplate = `# boundcheck configuration
# See 'boundcheck capabilities' for the built-in capability names.

# Name of the generated verifier file, written once per package.
generated_file: boundcheck_gen.go

# Bare capability names mapped to interfaces. Dotted names in
# directives resolve through the file's imports and never need an
# alias here.
aliases: {}
#   Closer: io.Closer
#   Renderer: example.com/ui.Renderer

# Named scopes usable after ';' in wrap directives. A scope with a
# 'requires' capability is satisfied only by types implementing it.
# The 'process' scope is built in and always satisfied.
scopes: []
#   - name: request
#     requires: io.Closer

# Extra packages loaded for dotted capability resolution when no
# scanned file imports them.
imports: []
#   - example.com/capabilities
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a boundcheck.yaml configuration file",
		Long: `Write a commented boundcheck.yaml with the default settings into the
given directory, or the current directory if none is given.`,
		Example: `  # Initialize in the current directory
  boundcheck init

  # Initialize in a subdirectory
  boundcheck init ./tools

  # Overwrite an existing config
  boundcheck init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText)
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "boundcheck.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("boundcheck.yaml already exists. Use --force to overwrite")
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.Success("wrote " + configPath)
	r.Printf("\nNext steps:\n")
	r.Printf("  1. Add //boundcheck:assert or //boundcheck:wrap directives to your packages\n")
	r.Printf("  2. Run 'boundcheck generate' to write verifier files\n")
	r.Printf("  3. Add 'boundcheck vet' to CI\n")

	return nil
}
