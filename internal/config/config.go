// Package config loads boundcheck project configuration. Configuration
// is discovered in boundcheck.yaml (searched upward from the working
// directory) and layered with environment variables and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/boundcheck/internal/resolve"
)

// Default configuration values.
const (
	// DefaultGeneratedFile is the per-package output file name.
	DefaultGeneratedFile = "boundcheck_gen.go"
	// DefaultLogFormat is the slog handler selection.
	DefaultLogFormat = "text"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

// Config is the resolved boundcheck configuration.
type Config struct {
	// GeneratedFile is the output file name written into each package.
	GeneratedFile string `koanf:"generated_file"`
	// Aliases maps bare capability names to dotted interface targets,
	// e.g. Marshaler: encoding/json.Marshaler. Entries shadow the
	// built-in aliases of the same name.
	Aliases map[string]string `koanf:"aliases"`
	// Scopes declares validity scopes usable on wrap directives.
	Scopes []resolve.ScopeDef `koanf:"scopes"`
	// Imports are package paths loaded in addition to the scanned
	// patterns so bounds can name capabilities the scanned files do
	// not import.
	Imports []string `koanf:"imports"`

	Verbose   bool   `koanf:"verbose"`
	LogFormat string `koanf:"log_format"`

	// ProjectRoot is the directory the config file was found in (or
	// the working directory when none was).
	ProjectRoot string `koanf:"-"`
}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // stores the loaded config for access by commands
)

// GetCurrent returns the most recently loaded configuration, or nil
// when none has been loaded yet.
func GetCurrent() *Config {
	return currentConfig
}

// GetConfigFileUsed returns the path of the loaded config file, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// configExistsIn checks if a boundcheck config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"boundcheck.yaml", "boundcheck.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a boundcheck
// config file. Returns empty string if not found within
// maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := ""
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	} else if cwd, err := os.Getwd(); err == nil {
		projectRoot = findProjectRootUpward(cwd)
	}
	if projectRoot == "" {
		projectRoot, _ = os.Getwd()
		if projectRoot == "" {
			projectRoot = "."
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"generated_file": DefaultGeneratedFile,
		"log_format":     DefaultLogFormat,
		"verbose":        false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		for _, name := range []string{"boundcheck.yaml", "boundcheck.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (BOUNDCHECK_ prefix)
	// Transform: BOUNDCHECK_GENERATED_FILE -> generated_file
	if err := k.Load(env.Provider("BOUNDCHECK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BOUNDCHECK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// Apply registers the configured aliases and returns the scope set.
// Config aliases shadow built-ins of the same name.
func (c *Config) Apply() (resolve.ScopeSet, error) {
	for name, target := range c.Aliases {
		if name == "" || target == "" {
			return nil, fmt.Errorf("alias entries need both a name and a target")
		}
		resolve.RegisterPath(name, target)
	}
	return resolve.NewScopeSet(c.Scopes), nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.GeneratedFile == "" {
		return fmt.Errorf("generated_file is required")
	}
	if !strings.HasSuffix(c.GeneratedFile, ".go") {
		return fmt.Errorf("generated_file %q must end in .go", c.GeneratedFile)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}

	for name, target := range c.Aliases {
		// An alias that names itself as target can never resolve.
		if name == target {
			return fmt.Errorf("alias %q points at itself", name)
		}
	}

	seen := make(map[string]bool)
	for _, s := range c.Scopes {
		if s.Name == "" {
			return fmt.Errorf("scope entries need a name")
		}
		if s.Name == resolve.DefaultScope {
			return fmt.Errorf("scope name %q is reserved", resolve.DefaultScope)
		}
		if seen[s.Name] {
			return fmt.Errorf("scope %q declared twice", s.Name)
		}
		seen[s.Name] = true
	}

	return nil
}
