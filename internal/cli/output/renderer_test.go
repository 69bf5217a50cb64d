package output

import (
	"bytes"
	"encoding/json"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

func TestNewRendererFallsBackToText(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, Mode("markdown"))
	assert.Equal(t, ModeText, r.EffectiveMode())

	r = NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestDiagnosticsText(t *testing.T) {
	var out, errBuf bytes.Buffer
	r := NewRenderer(&out, &errBuf, ModeText)

	diags := []resolve.Diagnostic{
		{
			Kind:     resolve.KindNotSatisfied,
			Severity: resolve.SeverityError,
			Pos:      token.Position{Filename: "a.go", Line: 4, Column: 1},
			Message:  "type conn does not satisfy bound Closer",
		},
		{
			Kind:     resolve.KindStaleOutput,
			Severity: resolve.SeverityWarning,
			Message:  "verifier file is out of date",
		},
	}
	require.NoError(t, r.Diagnostics(diags))

	assert.Empty(t, out.String())
	got := errBuf.String()
	assert.Contains(t, got, "a.go:4:1")
	assert.Contains(t, got, "does not satisfy bound Closer")
	assert.Contains(t, got, "(capability-not-satisfied)")
	assert.Contains(t, got, "(stale-output)")
}

func TestDiagnosticsJSON(t *testing.T) {
	var out, errBuf bytes.Buffer
	r := NewRenderer(&out, &errBuf, ModeJSON)

	diags := []resolve.Diagnostic{
		{
			Kind:     resolve.KindSyntax,
			Severity: resolve.SeverityError,
			Message:  "bad bound list",
		},
	}
	require.NoError(t, r.Diagnostics(diags))
	assert.Empty(t, errBuf.String())

	var doc struct {
		Diagnostics []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "syntax", doc.Diagnostics[0].Kind)
	assert.Equal(t, "error", doc.Diagnostics[0].Severity)
	assert.Equal(t, "bad bound list", doc.Diagnostics[0].Message)
}

func TestPrintfAndSuccessSilentInJSONMode(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeJSON)

	r.Printf("hello %d\n", 7)
	r.Success("done")
	assert.Empty(t, out.String())
}

func TestJSONNoOpInTextMode(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeText)
	require.NoError(t, r.JSON(map[string]int{"n": 1}))
	assert.Empty(t, out.String())
}
