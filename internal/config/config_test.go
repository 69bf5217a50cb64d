package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "boundcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultGeneratedFile, cfg.GeneratedFile)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Aliases)
	assert.Empty(t, cfg.Scopes)
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, cfg, GetCurrent())
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `
generated_file: caps_gen.go
verbose: true
aliases:
  Marshaler: encoding/json.Marshaler
scopes:
  - name: request
    requires: io.Closer
imports:
  - io
`)
	chdir(t, dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "caps_gen.go", cfg.GeneratedFile)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, map[string]string{"Marshaler": "encoding/json.Marshaler"}, cfg.Aliases)
	require.Len(t, cfg.Scopes, 1)
	assert.Equal(t, resolve.ScopeDef{Name: "request", Requires: "io.Closer"}, cfg.Scopes[0])
	assert.Equal(t, []string{"io"}, cfg.Imports)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)
}

func TestLoadSearchesUpward(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, "generated_file: up_gen.go\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	chdir(t, nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "up_gen.go", cfg.GeneratedFile)
	assert.Equal(t, dir, cfg.ProjectRoot)
}

func TestLoadExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "generated_file: explicit_gen.go\n")
	chdir(t, t.TempDir())

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "explicit_gen.go", cfg.GeneratedFile)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, "generated_file: from_file.go\nlog_format: json\n")
	chdir(t, dir)

	t.Setenv("BOUNDCHECK_GENERATED_FILE", "from_env.go")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("generated-file", "", "")
	require.NoError(t, flags.Set("generated-file", "from_flag.go"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// flags > env > file > defaults
	assert.Equal(t, "from_flag.go", cfg.GeneratedFile)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, "generated_file: from_file.go\n")
	chdir(t, dir)

	t.Setenv("BOUNDCHECK_GENERATED_FILE", "from_env.go")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env.go", cfg.GeneratedFile)
}

func TestLoadUnchangedFlagIgnored(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("generated-file", "flag_default.go", "")

	cfg, err := Load("", flags)
	require.NoError(t, err)
	// A flag left at its default must not override the config default.
	assert.Equal(t, DefaultGeneratedFile, cfg.GeneratedFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{
			name: "valid",
			cfg: Config{
				GeneratedFile: "x_gen.go",
				LogFormat:     "text",
				Scopes:        []resolve.ScopeDef{{Name: "request"}},
			},
		},
		{
			name:      "missing generated file",
			cfg:       Config{LogFormat: "text"},
			errSubstr: "generated_file is required",
		},
		{
			name:      "generated file not go",
			cfg:       Config{GeneratedFile: "out.txt", LogFormat: "text"},
			errSubstr: "must end in .go",
		},
		{
			name:      "bad log format",
			cfg:       Config{GeneratedFile: "x.go", LogFormat: "xml"},
			errSubstr: "want text or json",
		},
		{
			name: "self alias",
			cfg: Config{
				GeneratedFile: "x.go",
				LogFormat:     "text",
				Aliases:       map[string]string{"Closer": "Closer"},
			},
			errSubstr: "points at itself",
		},
		{
			name: "reserved scope",
			cfg: Config{
				GeneratedFile: "x.go",
				LogFormat:     "text",
				Scopes:        []resolve.ScopeDef{{Name: resolve.DefaultScope}},
			},
			errSubstr: "reserved",
		},
		{
			name: "duplicate scope",
			cfg: Config{
				GeneratedFile: "x.go",
				LogFormat:     "text",
				Scopes:        []resolve.ScopeDef{{Name: "a"}, {Name: "a"}},
			},
			errSubstr: "declared twice",
		},
		{
			name: "unnamed scope",
			cfg: Config{
				GeneratedFile: "x.go",
				LogFormat:     "text",
				Scopes:        []resolve.ScopeDef{{Requires: "io.Closer"}},
			},
			errSubstr: "need a name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := &Config{
		Aliases: map[string]string{"Marshaler": "encoding/json.Marshaler"},
		Scopes:  []resolve.ScopeDef{{Name: "request", Requires: "io.Closer"}},
	}

	scopes, err := cfg.Apply()
	require.NoError(t, err)

	assert.Len(t, scopes, 2) // declared scope plus the process scope
	_, ok := scopes[resolve.DefaultScope]
	assert.True(t, ok)

	a, ok := resolve.Lookup("Marshaler")
	require.True(t, ok)
	assert.Equal(t, "encoding/json.Marshaler", a.Target())
	assert.False(t, a.BuiltIn)
}

func TestApplyRejectsEmptyAlias(t *testing.T) {
	cfg := &Config{Aliases: map[string]string{"": "io.Closer"}}
	_, err := cfg.Apply()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name and a target")
}
