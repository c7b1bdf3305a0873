package cssshuffle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc/iter"

	"github.com/M3DZIK/css-shuffle/internal/logging"
	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// sourceFile is an input file and everything learned about it.
type sourceFile struct {
	inputFile
	data []byte
	mode fs.FileMode

	css     []Identifier            // KindCSS
	markup  shuffle.HTMLIdentifiers // KindHTML, KindSVG
	invalid bool                    // the whole file failed to parse
}

// run is the state shared by the passes of one invocation.
type run struct {
	config   Config
	log      logging.Logger
	stats    ScanStats
	files    []*sourceFile
	registry *Registry
	problems *shuffle.ErrorCollector
}

// Obfuscate discovers every identifier under config.InputDir, assigns aliases
// and writes the rewritten files. Per-file problems are collected in the
// result; only failures that prevent the run as a whole are returned.
func Obfuscate(ctx context.Context, config Config) (*Result, error) {
	config = config.withDefaults()
	op := logging.StartOperation(config.Logger, "obfuscate")

	r, err := discover(ctx, config)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	// 5. Rewrite every file against the frozen registry
	outputs, err := r.rewrite(ctx)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	// 6. Write results
	if err := r.write(ctx, outputs); err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	result := r.result()
	result.Files = make([]FileStat, len(r.files))
	for i, f := range r.files {
		result.Files[i] = FileStat{
			Path:         f.rel,
			Kind:         f.kind,
			OriginalSize: len(f.data),
			NewSize:      len(outputs[i]),
			Rewritten:    !bytes.Equal(outputs[i], f.data),
		}
	}

	op.End(ctx, "files", len(result.Files), "identifiers", r.registry.Len())
	return result, nil
}

// Discover runs only the discovery pass and returns the frozen registry.
// Nothing is written.
func Discover(ctx context.Context, config Config) (*Result, error) {
	config = config.withDefaults()
	op := logging.StartOperation(config.Logger, "discover")

	r, err := discover(ctx, config)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	result := r.result()
	result.DryRun = true
	result.Files = make([]FileStat, len(r.files))
	for i, f := range r.files {
		result.Files[i] = FileStat{Path: f.rel, Kind: f.kind, OriginalSize: len(f.data), NewSize: len(f.data)}
	}

	op.End(ctx, "files", len(result.Files), "identifiers", r.registry.Len())
	return result, nil
}

// ObfuscateCSS rewrites a single stylesheet, registering identifiers in the
// order they appear. On a parse error src is returned unchanged with an
// empty registry.
func ObfuscateCSS(src string) (string, *Registry, error) {
	reg := shuffle.NewRegistry()
	out, err := shuffle.RewriteCSS(src, reg.Discovering())
	reg.Freeze()
	return out, reg, err
}

func (r *run) result() *Result {
	return &Result{
		Registry: r.registry,
		Scan:     r.stats,
		Problems: r.problems.Errors(),
		DryRun:   r.config.DryRun,
	}
}

func discover(ctx context.Context, config Config) (*run, error) {
	preserve, err := shuffle.CompilePreserve(config.Preserve)
	if err != nil {
		return nil, err
	}

	r := &run{
		config:   config,
		log:      config.Logger.WithComponent("discover"),
		registry: shuffle.NewRegistry(shuffle.WithPreserve(preserve)),
		problems: shuffle.NewErrorCollector(),
	}

	// 1. Scan input files
	inputs, stats, err := scanInputFiles(config)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	r.stats = stats
	r.log.Debug(ctx, "Scanned input directory",
		"dir", config.InputDir,
		"discovered", stats.FilesDiscovered,
		"skipped", stats.FilesSkipped)

	// 2. Read and parse all files in parallel
	mapper := iter.Mapper[inputFile, *sourceFile]{MaxGoroutines: config.Workers}
	files := mapper.Map(inputs, func(in *inputFile) *sourceFile {
		if ctx.Err() != nil {
			return nil
		}
		return r.load(ctx, *in)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range files {
		if f != nil {
			r.files = append(r.files, f)
		}
	}

	// 3. Reserve markup names and preserve inline custom properties
	for _, f := range r.files {
		for _, id := range f.markup.Markup {
			if err := r.registry.Reserve(id.Namespace, id.Name); err != nil {
				return nil, err
			}
		}
		if config.InlineStyles {
			continue
		}
		for _, id := range f.markup.Inline {
			if err := r.registry.Preserve(id.Namespace, id.Name); err != nil {
				return nil, err
			}
		}
	}

	// 4. Register in file order, then document order, and freeze
	for _, f := range r.files {
		ids := f.css
		if f.kind != shuffle.KindCSS {
			ids = f.markup.Styles
			if config.InlineStyles {
				ids = append(ids[:len(ids):len(ids)], f.markup.Inline...)
			}
		}
		for _, id := range ids {
			if _, err := r.registry.Register(id.Namespace, id.Name); err != nil {
				return nil, fmt.Errorf("%s: %w", f.rel, err)
			}
		}
	}
	r.registry.Freeze()

	r.log.Debug(ctx, "Registered identifiers",
		"classes", r.registry.Count(shuffle.Class),
		"ids", r.registry.Count(shuffle.ID),
		"custom_properties", r.registry.Count(shuffle.CustomProperty))
	return r, nil
}

// load reads one file and extracts its identifiers. Failures are recorded as
// problems; a file that cannot be read is dropped from the run.
func (r *run) load(ctx context.Context, in inputFile) *sourceFile {
	path := filepath.Join(r.config.InputDir, filepath.FromSlash(in.rel))
	info, err := os.Stat(path)
	if err != nil {
		r.ioProblem(ctx, &IOError{Op: "stat", File: in.rel, Err: err})
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.ioProblem(ctx, &IOError{Op: "read", File: in.rel, Err: err})
		return nil
	}

	f := &sourceFile{inputFile: in, data: data, mode: info.Mode().Perm()}
	opts := r.config.htmlOptions()

	var errs []error
	switch in.kind {
	case shuffle.KindCSS:
		ids, err := shuffle.ExtractCSS(string(data))
		if err != nil {
			f.invalid = true
			errs = append(errs, err)
		}
		f.css = ids
	case shuffle.KindHTML:
		f.markup, errs = shuffle.ExtractHTML(data, opts)
	case shuffle.KindSVG:
		f.markup, errs = shuffle.ExtractSVG(data, opts)
	}

	for _, err := range errs {
		err = withFile(err, in.rel)
		r.problems.Add(err)
		r.log.Warn(ctx, err, "Fragment left unchanged", "file", in.rel)
	}
	r.log.Debug(ctx, "Parsed file", "file", in.rel, "kind", string(in.kind), "problems", len(errs))
	return f
}

func (r *run) ioProblem(ctx context.Context, err *IOError) {
	r.problems.Add(err)
	r.log.Warn(ctx, err.Err, "File skipped", "file", err.File, "op", err.Op)
}

// rewrite produces the new content of every file, in file order.
func (r *run) rewrite(ctx context.Context) ([][]byte, error) {
	opts := r.config.htmlOptions()
	mapper := iter.Mapper[*sourceFile, []byte]{MaxGoroutines: r.config.Workers}

	// fragments failing here were already reported during discovery
	outputs := mapper.Map(r.files, func(fp **sourceFile) []byte {
		f := *fp
		if ctx.Err() != nil || f.invalid {
			return f.data
		}
		switch f.kind {
		case shuffle.KindCSS:
			out, _ := shuffle.RewriteCSS(string(f.data), r.registry)
			return []byte(out)
		case shuffle.KindHTML:
			out, _ := shuffle.RewriteHTML(f.data, r.registry, opts)
			return out
		case shuffle.KindSVG:
			out, _ := shuffle.RewriteSVG(f.data, r.registry, opts)
			return out
		}
		return f.data
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// write stores the outputs. A separate output directory first receives a
// copy of the whole input tree.
func (r *run) write(ctx context.Context, outputs [][]byte) error {
	log := r.config.Logger.WithComponent("write")
	if r.config.DryRun {
		log.Info(ctx, "Dry run, nothing written")
		return nil
	}

	inPlace := r.config.inPlace()
	if !inPlace {
		if r.config.Clean {
			if err := cleanOutput(r.config); err != nil {
				return fmt.Errorf("clean output directory: %w", err)
			}
			log.Debug(ctx, "Cleaned output directory", "dir", r.config.OutputDir)
		}
		if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := copyTree(r.config, newFileFilter(r.config)); err != nil {
			return fmt.Errorf("copy input tree: %w", err)
		}
	}

	for i, f := range r.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if inPlace && bytes.Equal(outputs[i], f.data) {
			continue
		}
		target := filepath.Join(r.config.OutputDir, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			r.ioProblem(ctx, &IOError{Op: "create", File: f.rel, Err: err})
			continue
		}
		if err := os.WriteFile(target, outputs[i], f.mode); err != nil {
			r.ioProblem(ctx, &IOError{Op: "write", File: f.rel, Err: err})
			continue
		}
		log.Debug(ctx, "Wrote file", "file", f.rel, "bytes", len(outputs[i]))
	}
	return nil
}

// withFile attaches the file name to a positioned error.
func withFile(err error, file string) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		positioned := *perr
		positioned.File = file
		return &positioned
	}
	return fmt.Errorf("%s: %w", file, err)
}
