// Package cssshuffle shortens the class names, ids and custom property names
// of a static site.
//
// A run has two passes over the input tree. Discovery reads every included
// stylesheet and HTML document and assigns each identifier a short alias
// from one shared counter ("a", "b", ..., "Z", "aa", ...). Rewriting then
// replaces every occurrence of a known identifier with its alias and leaves
// everything else byte for byte as written.
//
// # Obfuscation
//
//	result, err := cssshuffle.Obfuscate(ctx, cssshuffle.Config{
//		InputDir:  "dist",
//		OutputDir: "dist-min",
//	})
//
// # Mapping
//
// The rename table is available as an ordered list and can be exported:
//
//	err := result.Mapping().WriteJSON(os.Stdout)
//
// # CLI Tool
//
// css-shuffle also provides a CLI tool. Install with:
//
//	go install github.com/M3DZIK/css-shuffle/cmd/css-shuffle@latest
package cssshuffle

import (
	"io"

	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// Re-exported engine types.
type (
	Namespace     = shuffle.Namespace
	Identifier    = shuffle.Identifier
	Registry      = shuffle.Registry
	Resolver      = shuffle.Resolver
	Mapping       = shuffle.Mapping
	MappingEntry  = shuffle.MappingEntry
	MappingFormat = shuffle.MappingFormat
	FileStat      = shuffle.FileStat
	FileKind      = shuffle.FileKind
	Summary       = shuffle.Summary
	ParseError    = shuffle.ParseError
	IOError       = shuffle.IOError
)

// Namespaces.
const (
	Class          = shuffle.Class
	ID             = shuffle.ID
	CustomProperty = shuffle.CustomProperty
)

// Mapping formats.
const (
	MappingJSON = shuffle.MappingJSON
	MappingYAML = shuffle.MappingYAML
)

// ErrRegistryFrozen is returned when a frozen registry is asked to register
// a new identifier.
var ErrRegistryFrozen = shuffle.ErrRegistryFrozen

// Alias returns the alias for a counter value.
func Alias(index int) string {
	return shuffle.Alias(index)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return shuffle.NewRegistry()
}

// ReadMapping decodes a mapping written as JSON or YAML.
func ReadMapping(r io.Reader) (Mapping, error) {
	return shuffle.ReadMapping(r)
}
