package assets

import (
	"context"
	"sort"
)

// Importer handles a newly imported or re-imported asset.
type Importer interface {
	Import(ctx context.Context, path string) error
}

// Deleter handles an asset that was removed from the tree.
type Deleter interface {
	Delete(ctx context.Context, path string) error
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(ctx context.Context, path string) error

func (f ImporterFunc) Import(ctx context.Context, path string) error { return f(ctx, path) }

// DeleterFunc adapts a function to Deleter.
type DeleterFunc func(ctx context.Context, path string) error

func (f DeleterFunc) Delete(ctx context.Context, path string) error { return f(ctx, path) }

// Registry maps asset kinds to their handlers. It is immutable once built.
type Registry struct {
	importers map[Kind]Importer
	deleters  map[Kind]Deleter
}

// NewRegistry builds a Registry from the given handler maps. The maps are
// copied; later changes to them do not affect the Registry. Nil handlers are
// dropped.
func NewRegistry(importers map[Kind]Importer, deleters map[Kind]Deleter) *Registry {
	r := &Registry{
		importers: make(map[Kind]Importer, len(importers)),
		deleters:  make(map[Kind]Deleter, len(deleters)),
	}
	for k, h := range importers {
		if h != nil {
			r.importers[k] = h
		}
	}
	for k, h := range deleters {
		if h != nil {
			r.deleters[k] = h
		}
	}
	return r
}

// Importer returns the import handler registered for kind.
func (r *Registry) Importer(kind Kind) (Importer, bool) {
	h, ok := r.importers[kind]
	return h, ok
}

// Deleter returns the delete handler registered for kind.
func (r *Registry) Deleter(kind Kind) (Deleter, bool) {
	h, ok := r.deleters[kind]
	return h, ok
}

// Kinds returns every kind with at least one handler, sorted.
func (r *Registry) Kinds() []Kind {
	seen := make(map[Kind]bool)
	for k := range r.importers {
		seen[k] = true
	}
	for k := range r.deleters {
		seen[k] = true
	}
	kinds := make([]Kind, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
