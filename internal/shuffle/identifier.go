package shuffle

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Namespace is one of the independent identifier categories.
type Namespace int

// Namespaces. The zero value marks a token that is not an identifier.
const (
	Class Namespace = iota + 1
	ID
	CustomProperty
)

// Namespaces lists every namespace in registry order.
var Namespaces = []Namespace{Class, ID, CustomProperty}

// String returns the name used in mapping exports.
func (ns Namespace) String() string {
	switch ns {
	case Class:
		return "class"
	case ID:
		return "id"
	case CustomProperty:
		return "custom-property"
	default:
		return "unknown"
	}
}

// Prefix returns the CSS sigil written in front of names of this namespace.
func (ns Namespace) Prefix() string {
	switch ns {
	case Class:
		return "."
	case ID:
		return "#"
	case CustomProperty:
		return "--"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (ns Namespace) MarshalText() ([]byte, error) {
	if ns < Class || ns > CustomProperty {
		return nil, fmt.Errorf("invalid namespace %d", int(ns))
	}
	return []byte(ns.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ns *Namespace) UnmarshalText(text []byte) error {
	parsed, err := ParseNamespace(string(text))
	if err != nil {
		return err
	}
	*ns = parsed
	return nil
}

// ParseNamespace parses a namespace name as produced by String.
func ParseNamespace(s string) (Namespace, error) {
	switch strings.ToLower(s) {
	case "class":
		return Class, nil
	case "id":
		return ID, nil
	case "custom-property", "var", "variable":
		return CustomProperty, nil
	}
	return 0, fmt.Errorf("unknown namespace %q", s)
}

// Identifier is a name within a namespace, without its leading sigil.
type Identifier struct {
	Namespace Namespace
	Name      string
}

func (id Identifier) String() string {
	return id.Namespace.Prefix() + id.Name
}

// identifierSet collects identifiers in first-encounter order.
type identifierSet struct {
	seen  map[Identifier]bool
	items []Identifier
}

func (s *identifierSet) add(ns Namespace, name string) {
	if name == "" {
		return
	}
	id := Identifier{Namespace: ns, Name: name}
	if s.seen == nil {
		s.seen = make(map[Identifier]bool)
	}
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.items = append(s.items, id)
}

// unescapeIdent resolves CSS escapes in an identifier token.
func unescapeIdent(raw []byte) string {
	if bytes.IndexByte(raw, '\\') < 0 {
		return string(raw)
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		if isHex(raw[i]) {
			j := i
			for j < len(raw) && j-i < 6 && isHex(raw[j]) {
				j++
			}
			code, _ := strconv.ParseUint(string(raw[i:j]), 16, 32)
			r := rune(code)
			if r == 0 || r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
				r = utf8.RuneError
			}
			b.WriteRune(r)
			// a single whitespace terminates a hex escape
			if j < len(raw) && isCSSSpace(raw[j]) {
				if raw[j] == '\r' && j+1 < len(raw) && raw[j+1] == '\n' {
					j++
				}
				j++
			}
			i = j - 1
			continue
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isCSSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
