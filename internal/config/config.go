package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Version is the current interpreter version.
// Set at build time via -ldflags "-X .../internal/config.Version=..."
var Version = "0.9.0"

// SourceFileExt is the extension of module source files: module M lives in M.hop.
const SourceFileExt = ".hop"

// ConfigFileName is the optional per-directory configuration file.
const ConfigFileName = "hope.yaml"

// PathEnvVar is the colon-separated module search path.
const PathEnvVar = "HOPEPATH"

// Limits carried over from the reference implementation. They bound
// recursion in declarations, not evaluation.
const (
	MaxSynDepth = 64 // deepest legal synonym-expansion chain
	MaxMuDepth  = 32 // deepest mu nesting in one type
	MaxStreams  = 20 // open character streams per evaluation
	MaxPrec     = 9  // operator precedences are clamped to 0..MaxPrec
	MinPrec     = 0
)

// TrimSourceExt removes the source extension from a filename, if present.
func TrimSourceExt(name string) string {
	return strings.TrimSuffix(name, SourceFileExt)
}

// Config is the merged startup configuration for one interpreter session.
type Config struct {
	Path       []string `yaml:"path"`
	TimeLimit  int      `yaml:"time_limit"`
	Restricted bool     `yaml:"restricted"`
}

// Load builds the session configuration. Sources, later ones winning:
// built-in defaults, hope.yaml in dir (if any), the HOPEPATH environment
// variable (a .env file in dir is loaded first), then explicit overrides
// applied by the caller. Empty path entries stand for the built-in library
// directory libDir; entries may be glob patterns.
func Load(dir, libDir string) (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile(filepath.Join(dir, ConfigFileName)); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// .env may supply HOPEPATH; ignore a missing file.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	if env, ok := os.LookupEnv(PathEnvVar); ok {
		cfg.Path = strings.Split(env, ":")
	}
	if len(cfg.Path) == 0 {
		cfg.Path = []string{".", ""}
	}

	cfg.Path = expandPath(cfg.Path, libDir)
	return cfg, nil
}

// expandPath substitutes the library directory for empty entries and
// expands glob patterns against the filesystem. Entries that are not
// patterns (or match nothing) are kept as-is so that error reporting
// can still name them.
func expandPath(entries []string, libDir string) []string {
	var out []string
	for _, e := range entries {
		if e == "" {
			e = libDir
			if e == "" {
				e = "."
			}
		}
		if !strings.ContainsAny(e, "*?[{") {
			out = append(out, e)
			continue
		}
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(e))
		matches, err := doublestar.Glob(os.DirFS(base), pattern)
		if err != nil || len(matches) == 0 {
			out = append(out, e)
			continue
		}
		for _, m := range matches {
			out = append(out, filepath.Join(base, m))
		}
	}
	return out
}
