package shuffle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// MappingEntry records the alias assigned to one identifier.
type MappingEntry struct {
	Namespace Namespace `json:"namespace" yaml:"namespace"`
	Original  string    `json:"original" yaml:"original"`
	Alias     string    `json:"alias" yaml:"alias"`
}

// Mapping is the exported rename table in assignment order.
type Mapping []MappingEntry

// MappingFormat selects the serialization of a Mapping.
type MappingFormat string

// Mapping formats.
const (
	MappingJSON MappingFormat = "json"
	MappingYAML MappingFormat = "yaml"
)

// ParseMappingFormat accepts "json", "yaml" or "yml".
func ParseMappingFormat(s string) (MappingFormat, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return MappingJSON, nil
	case "yaml", "yml":
		return MappingYAML, nil
	}
	return "", fmt.Errorf("unknown mapping format %q (want json or yaml)", s)
}

// Filter returns the entries of ns.
func (m Mapping) Filter(ns Namespace) Mapping {
	var out Mapping
	for _, e := range m {
		if e.Namespace == ns {
			out = append(out, e)
		}
	}
	return out
}

// Forward returns original->alias per namespace.
func (m Mapping) Forward() map[Namespace]map[string]string {
	out := make(map[Namespace]map[string]string, len(Namespaces))
	for _, e := range m {
		if out[e.Namespace] == nil {
			out[e.Namespace] = make(map[string]string)
		}
		out[e.Namespace][e.Original] = e.Alias
	}
	return out
}

// Reverse returns alias->original per namespace.
func (m Mapping) Reverse() map[Namespace]map[string]string {
	out := make(map[Namespace]map[string]string, len(Namespaces))
	for _, e := range m {
		if out[e.Namespace] == nil {
			out[e.Namespace] = make(map[string]string)
		}
		out[e.Namespace][e.Alias] = e.Original
	}
	return out
}

// Write serializes the mapping in the given format.
func (m Mapping) Write(w io.Writer, format MappingFormat) error {
	switch format {
	case MappingJSON, "":
		return m.WriteJSON(w)
	case MappingYAML:
		return m.WriteYAML(w)
	}
	return fmt.Errorf("unknown mapping format %q", format)
}

// WriteJSON writes the mapping as an indented JSON array.
func (m Mapping) WriteJSON(w io.Writer) error {
	if m == nil {
		m = Mapping{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(m)
}

// WriteYAML writes the mapping as a YAML sequence.
func (m Mapping) WriteYAML(w io.Writer) error {
	if m == nil {
		m = Mapping{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(m); err != nil {
		return err
	}
	return encoder.Close()
}

// ReadMapping decodes a mapping written by WriteJSON or WriteYAML.
func ReadMapping(r io.Reader) (Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var m Mapping
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &m); err == nil {
			return m, nil
		}
		m = nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode yaml mapping: %w", err)
	}
	return m, nil
}
