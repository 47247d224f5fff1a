package symtab

import (
	"debug/dwarf"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/dwarfsym/dwarfsym/pkg/logflags"
)

// ErrTypeCycle is returned when a reference chain visits the same entry
// twice.
var ErrTypeCycle = errors.New("type reference cycle")

// Resolve returns the composed type name of the entry with the specified
// key. Starting from the name of the entry itself, the name of every entry
// reached by following Next is prepended, unless it already occurs in the
// accumulated name.
// The walk stops at NoRef or at a key missing from the table, the latter
// is not an error. An unknown start key resolves to the empty string.
func Resolve(tab *Table, key dwarf.Offset) (string, error) {
	d, ok := tab.m[key]
	if !ok {
		return "", nil
	}
	return tab.walk(key, d.Name, nil)
}

// walk follows the reference chain starting at start and prepends the name
// of every descriptor it visits to acc. If visit is not nil it's called for
// every descriptor in the chain, in order.
// The number of steps is bounded by the size of the table.
func (tab *Table) walk(start dwarf.Offset, acc string, visit func(Descriptor)) (string, error) {
	seen := make(map[dwarf.Offset]bool)
	for cur := start; cur != NoRef; {
		d, ok := tab.m[cur]
		if !ok {
			break
		}
		if seen[cur] || len(seen) >= len(tab.m) {
			return acc, fmt.Errorf("%w at %#x (chain starting at %#x)", ErrTypeCycle, cur, start)
		}
		seen[cur] = true

		if !strings.Contains(acc, d.Name) {
			acc = d.Name + " " + acc
		}
		if visit != nil {
			visit(*d)
		}
		cur = d.Next
	}
	return acc, nil
}

// Resolver resolves type names out of a table, remembering the most
// recently resolved ones.
type Resolver struct {
	tab   *Table
	cache *lru.Cache
	log   logflags.Logger
}

// NewResolver returns a resolver for tab. Up to size resolved names are
// cached, a size of zero or less disables caching.
func NewResolver(tab *Table, size int) *Resolver {
	r := &Resolver{tab: tab}
	if size > 0 {
		cache, err := lru.New(size)
		if err == nil {
			r.cache = cache
		}
	}
	if logflags.Cache() {
		r.log = logflags.CacheLogger()
	}
	return r
}

// Resolve is like the Resolve function but consults the cache first.
func (r *Resolver) Resolve(key dwarf.Offset) (string, error) {
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			if r.log != nil {
				r.log.Debugf("hit %#x", key)
			}
			return v.(string), nil
		}
	}
	name, err := Resolve(r.tab, key)
	if err != nil {
		return name, err
	}
	if r.cache != nil {
		if r.log != nil {
			r.log.Debugf("miss %#x: %q", key, name)
		}
		r.cache.Add(key, name)
	}
	return name, nil
}
