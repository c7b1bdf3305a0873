package shuffle

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// preservePattern is one compiled entry of a preserve list.
type preservePattern struct {
	ns      Namespace // zero matches every namespace
	pattern string
	literal bool
}

// CompilePreserve builds a matcher from preserve patterns. A leading "."
// selects classes, "#" ids and "--" custom properties; a bare pattern applies
// to every namespace. The rest is a doublestar pattern such as "js-*" or
// "{sr-only,visually-hidden}".
func CompilePreserve(patterns []string) (func(ns Namespace, name string) bool, error) {
	compiled := make([]preservePattern, 0, len(patterns))
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}

		var ns Namespace
		switch {
		case strings.HasPrefix(p, "--"):
			ns, p = CustomProperty, p[2:]
		case strings.HasPrefix(p, "."):
			ns, p = Class, p[1:]
		case strings.HasPrefix(p, "#"):
			ns, p = ID, p[1:]
		}
		if p == "" {
			return nil, fmt.Errorf("preserve pattern %q: empty name", raw)
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("preserve pattern %q: %w", raw, doublestar.ErrBadPattern)
		}
		compiled = append(compiled, preservePattern{
			ns:      ns,
			pattern: p,
			literal: !strings.ContainsAny(p, `*?[{\`),
		})
	}

	return func(ns Namespace, name string) bool {
		for _, p := range compiled {
			if p.ns != 0 && p.ns != ns {
				continue
			}
			if p.literal {
				if p.pattern == name {
					return true
				}
				continue
			}
			if doublestar.MatchUnvalidated(p.pattern, name) {
				return true
			}
		}
		return false
	}, nil
}
