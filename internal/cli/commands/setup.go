// Package commands implements the boundcheck subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boundcheck/internal/cli/output"
	"github.com/leapstack-labs/boundcheck/internal/config"
	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// WithLogger stores a logger in ctx for command handlers.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from ctx, falling back to a stderr
// text logger so commands never nil-check.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Scopes   resolve.ScopeSet
}

// NewCommandContext assembles the shared command dependencies. The
// format argument selects the renderer mode; empty means text.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg := config.GetCurrent()
	if cfg == nil {
		var err error
		cfg, err = config.Load("", nil)
		if err != nil {
			return nil, err
		}
	}

	scopes, err := cfg.Apply()
	if err != nil {
		return nil, err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   GetLogger(cmd.Context()),
		Renderer: r,
		Scopes:   scopes,
	}, nil
}
