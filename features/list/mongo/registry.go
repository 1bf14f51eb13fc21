package mongo

import (
	"fmt"

	"github.com/imaging-api/containerlists/runtime/list"
	"github.com/imaging-api/containerlists/runtime/list/catalog"
)

// Registry holds one Accessor per catalog definition.
type Registry struct {
	cat       *catalog.Catalog
	accessors map[string]*Accessor
}

// NewRegistry builds an accessor for every definition of cat. base supplies
// the shared collaborators; its Collection, List and IDKind fields are
// overridden by each definition.
func NewRegistry(cat *catalog.Catalog, base Options) (*Registry, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	r := &Registry{cat: cat, accessors: make(map[string]*Accessor)}
	for _, def := range cat.Definitions() {
		opts := base
		opts.Collection = def.Collection
		opts.List = def.List
		opts.IDKind = def.IDs
		var (
			a   *Accessor
			err error
		)
		if def.Kind == catalog.KindString {
			a, err = NewStringAccessor(opts)
		} else {
			a, err = NewAccessor(opts)
		}
		if err != nil {
			return nil, fmt.Errorf("build accessor %s: %w", def, err)
		}
		r.accessors[def.String()] = a
	}
	return r, nil
}

// Accessor returns the accessor for the named list.
func (r *Registry) Accessor(collection, listName string) (*Accessor, error) {
	def, ok := r.cat.Lookup(collection, listName)
	if !ok {
		return nil, fmt.Errorf("%w: no list %q on collection %q", list.ErrInvalidArgument, listName, collection)
	}
	return r.accessors[def.String()], nil
}

// Catalog returns the catalog the registry was built from.
func (r *Registry) Catalog() *catalog.Catalog { return r.cat }
