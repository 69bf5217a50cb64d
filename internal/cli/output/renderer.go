// Package output renders command results in text or JSON form.
// Text mode styles severities for terminals; JSON mode emits a stable
// schema for CI and editor tooling.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Severity styles for text output.
var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
}

// NewRenderer creates a renderer. Unknown modes fall back to text.
func NewRenderer(out, err io.Writer, mode Mode) *Renderer {
	if mode != ModeJSON {
		mode = ModeText
	}
	return &Renderer{out: out, err: err, mode: mode}
}

// EffectiveMode returns the mode the renderer resolved to.
func (r *Renderer) EffectiveMode() Mode { return r.mode }

// Out returns the renderer's standard output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// Printf writes formatted text to standard output (text mode only;
// JSON consumers get structured documents instead).
func (r *Renderer) Printf(format string, args ...any) {
	if r.mode == ModeText {
		fmt.Fprintf(r.out, format, args...)
	}
}

// Success writes a styled success line in text mode.
func (r *Renderer) Success(msg string) {
	if r.mode == ModeText {
		fmt.Fprintln(r.out, okStyle.Render(msg))
	}
}

// Diagnostics writes a diagnostic list. Text mode writes one line per
// finding to stderr; JSON mode writes a single document to stdout.
func (r *Renderer) Diagnostics(diags []resolve.Diagnostic) error {
	if r.mode == ModeJSON {
		doc := struct {
			Diagnostics []resolve.Diagnostic `json:"diagnostics"`
		}{Diagnostics: diags}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	for _, d := range diags {
		sev := d.Severity.String()
		switch d.Severity {
		case resolve.SeverityError:
			sev = errorStyle.Render(sev)
		case resolve.SeverityWarning:
			sev = warningStyle.Render(sev)
		}
		loc := ""
		if d.Pos.IsValid() {
			loc = dimStyle.Render(d.Pos.String()) + ": "
		}
		fmt.Fprintf(r.err, "%s%s: %s (%s)\n", loc, sev, d.Message, d.Kind)
	}
	return nil
}

// JSON writes an arbitrary document in JSON mode and is a no-op in text
// mode; commands with richer text layouts handle those themselves.
func (r *Renderer) JSON(doc any) error {
	if r.mode != ModeJSON {
		return nil
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
