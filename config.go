package cssshuffle

import (
	"path/filepath"
	"runtime"

	"github.com/M3DZIK/css-shuffle/internal/logging"
	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// DefaultIncludes are the patterns used when Config.Includes is empty.
var DefaultIncludes = []string{"**/*.css", "**/*.html"}

// Config holds obfuscation configuration
type Config struct {
	InputDir     string         // "dist"
	OutputDir    string         // "dist-min"; empty or equal to InputDir rewrites in place. Stale files stay unless Clean is set
	Includes     []string       // ["**/*.css", "**/*.html", "icons/*.svg"], relative to InputDir
	Excludes     []string       // gitignore-style patterns relative to InputDir
	Preserve     []string       // [".js-*", "#app", "--theme-*"] never obfuscated
	InlineStyles bool           // Rewrite style="" attributes as declaration lists
	Workers      int            // Parallel file workers (0 = GOMAXPROCS)
	DryRun       bool           // Compute everything, write nothing
	Clean        bool           // Empty a separate OutputDir before copying; ignored in place
	Logger       logging.Logger // Debug and progress logging (nil = discard)
}

func (c Config) withDefaults() Config {
	if c.InputDir == "" {
		c.InputDir = "."
	}
	c.InputDir = filepath.Clean(c.InputDir)
	if c.OutputDir == "" {
		c.OutputDir = c.InputDir
	}
	c.OutputDir = filepath.Clean(c.OutputDir)
	if len(c.Includes) == 0 {
		c.Includes = DefaultIncludes
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	return c
}

// inPlace reports whether rewritten files replace their sources.
func (c Config) inPlace() bool {
	in, err1 := filepath.Abs(c.InputDir)
	out, err2 := filepath.Abs(c.OutputDir)
	if err1 != nil || err2 != nil {
		return c.InputDir == c.OutputDir
	}
	return in == out
}

func (c Config) htmlOptions() shuffle.HTMLOptions {
	return shuffle.HTMLOptions{InlineStyles: c.InlineStyles}
}

// Result contains the outcome of a run.
type Result struct {
	// Registry is frozen and holds every alias assigned during discovery.
	Registry *Registry
	// Scan counts the files found by the include patterns.
	Scan ScanStats
	// Files lists every processed file in path order.
	Files []FileStat
	// Problems are per-file errors ordered by file and position.
	Problems []error
	// DryRun is true when nothing was written.
	DryRun bool
}

// Mapping returns the rename table in assignment order.
func (r *Result) Mapping() Mapping {
	if r.Registry == nil {
		return nil
	}
	return r.Registry.Mapping()
}

// Summary aggregates file and identifier counts.
func (r *Result) Summary() Summary {
	s := shuffle.Summarize(r.Files, r.Registry, len(r.Problems))
	s.DryRun = r.DryRun
	return s
}

// Rewritten returns the stats of the files whose content changed.
func (r *Result) Rewritten() []FileStat {
	var out []FileStat
	for _, f := range r.Files {
		if f.Rewritten {
			out = append(out, f)
		}
	}
	return out
}
