package cssshuffle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// ScanStats tracks file scanning statistics
type ScanStats struct {
	FilesDiscovered int // Total files found by include patterns
	FilesScanned    int // Files kept after filtering
	FilesSkipped    int // Files skipped by excludes, .gitignore or unknown type
}

// inputFile is one file selected for processing.
type inputFile struct {
	rel  string // slash-separated, relative to the input directory
	kind FileKind
}

// fileFilter decides which discovered files are skipped.
type fileFilter struct {
	excludes  *ignore.GitIgnore
	gitignore *ignore.GitIgnore
	outputRel string // output directory relative to input, when nested inside it
}

// newFileFilter compiles excludes and loads the input directory's .gitignore.
// A missing .gitignore is fine.
func newFileFilter(config Config) *fileFilter {
	f := &fileFilter{}
	if len(config.Excludes) > 0 {
		f.excludes = ignore.CompileIgnoreLines(config.Excludes...)
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(config.InputDir, ".gitignore")); err == nil {
		f.gitignore = gi
	}
	if rel, ok := nestedOutput(config); ok {
		f.outputRel = rel
	}
	return f
}

// nestedOutput returns the output directory relative to the input directory
// when it lies strictly inside it.
func nestedOutput(config Config) (string, bool) {
	if config.inPlace() {
		return "", false
	}
	in, err := filepath.Abs(config.InputDir)
	if err != nil {
		return "", false
	}
	out, err := filepath.Abs(config.OutputDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(in, out)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// insideOutput reports whether rel lies in a nested output directory.
func (f *fileFilter) insideOutput(rel string) bool {
	return f.outputRel != "" && (rel == f.outputRel || strings.HasPrefix(rel, f.outputRel+"/"))
}

// shouldSkipFile determines if a file should be excluded from processing
func (f *fileFilter) shouldSkipFile(rel string) bool {
	if f.insideOutput(rel) {
		return true
	}
	if f.excludes != nil && f.excludes.MatchesPath(rel) {
		return true
	}
	if f.gitignore != nil && f.gitignore.MatchesPath(rel) {
		return true
	}
	return false
}

// scanInputFiles expands the include patterns inside the input directory and
// returns the selected files sorted by path.
func scanInputFiles(config Config) ([]inputFile, ScanStats, error) {
	stats := ScanStats{}

	info, err := os.Stat(config.InputDir)
	if err != nil {
		return nil, stats, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("input directory %s: not a directory", config.InputDir)
	}

	filter := newFileFilter(config)
	fsys := os.DirFS(config.InputDir)
	seen := make(map[string]bool)
	var files []inputFile

	for _, pattern := range config.Includes {
		pattern = strings.TrimPrefix(path.Clean(filepath.ToSlash(pattern)), "./")
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.FilesDiscovered++

			kind, ok := shuffle.KindOf(match)
			if !ok || filter.shouldSkipFile(match) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, inputFile{rel: match, kind: kind})
			stats.FilesScanned++
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].rel < files[j].rel
	})
	return files, stats, nil
}

// cleanOutput removes everything inside the output directory but keeps the
// directory itself. An output directory that contains the input is refused.
func cleanOutput(config Config) error {
	if _, ok := nestedOutput(Config{InputDir: config.OutputDir, OutputDir: config.InputDir}); ok {
		return fmt.Errorf("%s contains the input directory %s", config.OutputDir, config.InputDir)
	}

	entries, err := os.ReadDir(config.OutputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &IOError{Op: "read", File: config.OutputDir, Err: err}
	}
	for _, e := range entries {
		target := filepath.Join(config.OutputDir, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return &IOError{Op: "remove", File: target, Err: err}
		}
	}
	return nil
}

// copyTree mirrors the input directory into the output directory. Existing
// files in the output directory are overwritten; nothing is deleted.
func copyTree(config Config, filter *fileFilter) error {
	src := os.DirFS(config.InputDir)
	return doublestar.GlobWalk(src, "**", func(rel string, d fs.DirEntry) error {
		if rel == "." {
			return nil
		}
		if filter.insideOutput(rel) {
			if d.IsDir() {
				return doublestar.SkipDir
			}
			return nil
		}

		target := filepath.Join(config.OutputDir, filepath.FromSlash(rel))
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &IOError{Op: "create", File: target, Err: err}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(filepath.Join(config.InputDir, filepath.FromSlash(rel)), target)
	})
}

func copyFile(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return &IOError{Op: "stat", File: from, Err: err}
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return &IOError{Op: "read", File: from, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return &IOError{Op: "create", File: filepath.Dir(to), Err: err}
	}
	if err := os.WriteFile(to, data, info.Mode().Perm()); err != nil {
		return &IOError{Op: "write", File: to, Err: err}
	}
	return nil
}
