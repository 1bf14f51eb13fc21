// Package catalog describes which lists each container collection exposes.
// A catalog is loaded from YAML:
//
//	lists:
//	  - {collection: sessions, list: notes}
//	  - {collection: groups, list: tags, ids: string, kind: string}
//
// ids defaults to objectid and kind defaults to structured.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imaging-api/containerlists/runtime/list"
)

type (
	// Kind is the element shape of a list.
	Kind string

	// Definition declares one list of one collection.
	Definition struct {
		Collection string      `yaml:"collection"`
		List       string      `yaml:"list"`
		IDs        list.IDKind `yaml:"ids,omitempty"`
		Kind       Kind        `yaml:"kind,omitempty"`
	}

	// Catalog is a validated set of definitions keyed by collection and list.
	Catalog struct {
		defs  []Definition
		index map[string]int
	}

	document struct {
		Lists []Definition `yaml:"lists"`
	}
)

const (
	// KindStructured lists hold documents.
	KindStructured Kind = "structured"
	// KindString lists hold bare scalar values.
	KindString Kind = "string"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid default catalog: %v", err))
	}
	return c
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %w", list.ErrInvalidArgument, err)
	}
	return New(doc.Lists...)
}

// New validates defs and builds a catalog. Empty id kinds and element kinds
// take their defaults.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for i, d := range defs {
		d.Collection = strings.TrimSpace(d.Collection)
		d.List = strings.TrimSpace(d.List)
		if d.Collection == "" || d.List == "" {
			return nil, fmt.Errorf("%w: entry %d: collection and list are required", list.ErrInvalidArgument, i)
		}
		ids, err := list.ParseIDKind(string(d.IDs))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Collection, d.List, err)
		}
		d.IDs = ids
		switch Kind(strings.ToLower(string(d.Kind))) {
		case "", KindStructured:
			d.Kind = KindStructured
		case KindString:
			d.Kind = KindString
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown kind %q", list.ErrInvalidArgument, d.Collection, d.List, d.Kind)
		}
		k := key(d.Collection, d.List)
		if _, ok := c.index[k]; ok {
			return nil, fmt.Errorf("%w: duplicate list %s", list.ErrInvalidArgument, k)
		}
		c.index[k] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Lookup returns the definition of the named list.
func (c *Catalog) Lookup(collection, listName string) (Definition, bool) {
	i, ok := c.index[key(collection, listName)]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Definitions returns the definitions in declaration order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Collections returns the distinct collection names, sorted.
func (c *Catalog) Collections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.defs {
		if _, ok := seen[d.Collection]; ok {
			continue
		}
		seen[d.Collection] = struct{}{}
		out = append(out, d.Collection)
	}
	sort.Strings(out)
	return out
}

// String returns "collection.list".
func (d Definition) String() string {
	return key(d.Collection, d.List)
}

func key(collection, listName string) string {
	return collection + "." + listName
}
