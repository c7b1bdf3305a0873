package shuffle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrRegistryFrozen is returned when a registry is modified after Freeze.
var ErrRegistryFrozen = errors.New("registry is frozen")

// maxAliasSkips bounds the search for an alias that is neither reserved nor preserved.
const maxAliasSkips = 1 << 20

// Resolver maps an identifier to the text that replaces it.
// ok is false when the identifier must be left as written.
type Resolver interface {
	Resolve(ns Namespace, name string) (alias string, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ns Namespace, name string) (string, bool)

// Resolve calls f(ns, name).
func (f ResolverFunc) Resolve(ns Namespace, name string) (string, bool) {
	return f(ns, name)
}

// Registry holds the original->alias tables of one obfuscation run.
//
// All namespaces draw from a single counter. Writes are serialized; once
// frozen the registry is read-only and lookups take no lock.
type Registry struct {
	mu       sync.Mutex
	frozen   atomic.Bool
	next     int
	tables   map[Namespace]map[string]string
	entries  Mapping
	reserved map[Identifier]bool
	keep     map[Identifier]bool
	keepFunc func(ns Namespace, name string) bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithPreserve excludes every identifier for which match returns true.
func WithPreserve(match func(ns Namespace, name string) bool) Option {
	return func(r *Registry) {
		r.keepFunc = match
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tables:   make(map[Namespace]map[string]string, len(Namespaces)),
		reserved: make(map[Identifier]bool),
		keep:     make(map[Identifier]bool),
	}
	for _, ns := range Namespaces {
		r.tables[ns] = make(map[string]string)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register returns the alias of name in ns, assigning the next free alias on
// first encounter. Preserved names are not registered and come back unchanged.
func (r *Registry) Register(ns Namespace, name string) (string, error) {
	alias, _, err := r.register(ns, name)
	return alias, err
}

func (r *Registry) register(ns Namespace, name string) (string, bool, error) {
	table, ok := r.tables[ns]
	if !ok {
		return "", false, fmt.Errorf("register %q: invalid namespace %d", name, int(ns))
	}
	if name == "" {
		return "", false, fmt.Errorf("register: empty %s name", ns)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if alias, ok := table[name]; ok {
		return alias, true, nil
	}
	if r.frozen.Load() {
		return "", false, ErrRegistryFrozen
	}
	if r.preservedLocked(ns, name) {
		return name, false, nil
	}

	for skips := 0; ; skips++ {
		if skips == maxAliasSkips {
			return "", false, fmt.Errorf("register %s: no free alias after %d reserved candidates", Identifier{ns, name}, skips)
		}
		alias := Alias(r.next)
		r.next++
		if r.reserved[Identifier{ns, alias}] || r.preservedLocked(ns, alias) {
			continue
		}
		table[name] = alias
		r.entries = append(r.entries, MappingEntry{Namespace: ns, Original: name, Alias: alias})
		return alias, true, nil
	}
}

// Lookup returns the alias registered for name in ns.
func (r *Registry) Lookup(ns Namespace, name string) (string, bool) {
	if r.frozen.Load() {
		alias, ok := r.tables[ns][name]
		return alias, ok
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	alias, ok := r.tables[ns][name]
	return alias, ok
}

// Resolve implements Resolver with Lookup semantics.
func (r *Registry) Resolve(ns Namespace, name string) (string, bool) {
	return r.Lookup(ns, name)
}

// Discovering returns a Resolver that registers unseen identifiers as it goes.
func (r *Registry) Discovering() Resolver {
	return ResolverFunc(func(ns Namespace, name string) (string, bool) {
		alias, ok, err := r.register(ns, name)
		if err != nil {
			return "", false
		}
		return alias, ok
	})
}

// Reserve keeps alias generation from ever producing name in ns.
// Reservations must happen before the first Register call to be effective
// against aliases already assigned.
func (r *Registry) Reserve(ns Namespace, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	r.reserved[Identifier{ns, name}] = true
	return nil
}

// Preserve marks name in ns as never obfuscated. The name is reserved as well.
func (r *Registry) Preserve(ns Namespace, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	id := Identifier{ns, name}
	r.keep[id] = true
	r.reserved[id] = true
	return nil
}

// Preserved reports whether name in ns is excluded from obfuscation.
func (r *Registry) Preserved(ns Namespace, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preservedLocked(ns, name)
}

func (r *Registry) preservedLocked(ns Namespace, name string) bool {
	if r.keep[Identifier{ns, name}] {
		return true
	}
	return r.keepFunc != nil && r.keepFunc(ns, name)
}

// Freeze closes the registry for new entries.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Count returns the number of registered identifiers in ns.
func (r *Registry) Count(ns Namespace) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tables[ns])
}

// Mapping returns the registered identifiers in assignment order.
func (r *Registry) Mapping() Mapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Mapping, len(r.entries))
	copy(out, r.entries)
	return out
}
