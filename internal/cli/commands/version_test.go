package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		wantOut []string
	}{
		{
			name:    "version only",
			version: "0.1.0",
			wantOut: []string{"boundcheck v0.1.0"},
		},
		{
			name:    "with build metadata",
			version: "1.2.3",
			commit:  "abc1234",
			date:    "2026-08-29",
			wantOut: []string{"boundcheck v1.2.3", "commit: abc1234", "built:  2026-08-29"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version, tt.commit, tt.date)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.Execute())
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestVersionCommandOmitsEmptyMetadata(t *testing.T) {
	cmd := NewVersionCommand("dev", "", "")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, buf.String(), "commit:")
	assert.NotContains(t, buf.String(), "built:")
}
