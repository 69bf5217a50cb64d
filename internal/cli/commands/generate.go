package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/boundcheck/internal/cli/output"
	"github.com/leapstack-labs/boundcheck/internal/gen"
	"github.com/spf13/cobra"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Format string // Output format: text, json
	Watch  bool   // Re-generate on file changes
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(version string) *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Check bound directives and write verifier files",
		Long: `Scan packages for boundcheck directives, verify every declared
capability against the expression's type, and write a generated
verifier file per package so the compiler re-checks the bounds on
every build.

Packages with failing directives are reported and left untouched.`,
		Example: `  # Generate for the current module
  boundcheck generate

  # Generate for specific packages
  boundcheck generate ./internal/...

  # Re-generate whenever source files change
  boundcheck generate --watch

  # Machine-readable diagnostics
  boundcheck generate --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts, version)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch source files and re-generate on change")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, opts *GenerateOptions, version string) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchGenerate(cmd.Context(), cmdCtx, args, version)
	}
	_, err = generateOnce(cmdCtx, args, version)
	return err
}

// generateOnce runs a single scan-check-write pass. Packages with error
// diagnostics are reported and skipped so a broken directive never
// clobbers a previously good verifier file. The check result is
// returned even on failure so watch mode can reuse it.
func generateOnce(cmdCtx *CommandContext, patterns []string, version string) (*checkResult, error) {
	res, err := runCheck(cmdCtx, patterns)
	if err != nil {
		return nil, err
	}

	if err := cmdCtx.Renderer.Diagnostics(res.Diags); err != nil {
		return res, err
	}

	g := &gen.Generator{
		Version:  version,
		FileName: cmdCtx.Cfg.GeneratedFile,
		Logger:   cmdCtx.Logger,
	}

	var written int
	for _, pkg := range res.Prog.Packages {
		if res.Failed[pkg.PPkg.PkgPath] {
			cmdCtx.Logger.Debug("skipping package with errors", "package", pkg.PPkg.PkgPath)
			continue
		}
		path, err := g.Write(pkg.PPkg, res.Checked[pkg.PPkg.PkgPath])
		if err != nil {
			return res, fmt.Errorf("failed to write %s: %w", pkg.PPkg.PkgPath, err)
		}
		if len(res.Checked[pkg.PPkg.PkgPath]) > 0 {
			cmdCtx.Logger.Debug("wrote verifier file", "path", path)
			written++
		}
	}

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("bound check failed for %d package(s)", len(res.Failed))
	}

	if cmdCtx.Renderer.EffectiveMode() == output.ModeText {
		cmdCtx.Renderer.Success(fmt.Sprintf("wrote %d verifier file(s)", written))
	}
	return res, nil
}

// watchGenerate runs generateOnce, then re-runs it whenever a Go source
// file in a scanned package changes. Events for the generated file are
// ignored so writes do not re-trigger the loop.
func watchGenerate(ctx context.Context, cmdCtx *CommandContext, patterns []string, version string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// First pass also discovers the directories to watch. A failing
	// check is not fatal in watch mode; the next edit gets a fresh run.
	res, err := generateOnce(cmdCtx, patterns, version)
	if err != nil {
		if res == nil {
			return err
		}
		cmdCtx.Logger.Warn("generate failed, watching for changes", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs := watchDirs(res)
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	cmdCtx.Logger.Info("watching for changes", "dirs", len(dirs))

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			if filepath.Ext(base) != ".go" || base == cmdCtx.Cfg.GeneratedFile {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(200*time.Millisecond, func() {
				cmdCtx.Logger.Info("change detected", "file", base)
				if _, err := generateOnce(cmdCtx, patterns, version); err != nil {
					cmdCtx.Logger.Warn("generate failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Warn("watcher error", "error", err)
		}
	}
}

// watchDirs resolves the set of package directories covered by a check.
func watchDirs(res *checkResult) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pkg := range res.Prog.Packages {
		for _, f := range pkg.PPkg.CompiledGoFiles {
			dir := filepath.Dir(f)
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}
