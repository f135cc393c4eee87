package sdojsd

import (
	"fmt"
	"strings"
)

// SchemaSet is the immutable collection of fragments and meta-schemata loaded
// for one run. It is safe for concurrent reads.
type SchemaSet struct {
	fragments []*SchemaFragment
	meta      []*MetaSchema
	byName    map[string]*SchemaFragment
	byID      map[string]*SchemaFragment
	metaByID  map[string]*MetaSchema
}

// NewSchemaSet builds a SchemaSet, keeping the given fragment order. Short
// names must be unique across all kinds.
func NewSchemaSet(fragments []*SchemaFragment, meta []*MetaSchema) (*SchemaSet, error) {
	set := &SchemaSet{
		fragments: append([]*SchemaFragment(nil), fragments...),
		meta:      append([]*MetaSchema(nil), meta...),
		byName:    make(map[string]*SchemaFragment, len(fragments)),
		byID:      make(map[string]*SchemaFragment, len(fragments)),
		metaByID:  make(map[string]*MetaSchema, len(meta)),
	}
	for _, frag := range set.fragments {
		if prev, exists := set.byName[frag.Name]; exists {
			return nil, NewGraphConstructionError(frag.Name,
				fmt.Sprintf("also defined by %s", prev.Path), ErrDuplicateName)
		}
		set.byName[frag.Name] = frag
		if frag.ID != "" {
			set.byID[normalizeID(frag.ID)] = frag
		}
	}
	for _, m := range set.meta {
		set.metaByID[normalizeID(m.ID)] = m
	}
	return set, nil
}

// Fragments returns all fragments in load order.
func (s *SchemaSet) Fragments() []*SchemaFragment {
	return append([]*SchemaFragment(nil), s.fragments...)
}

// OfKind returns the fragments of one kind in load order.
func (s *SchemaSet) OfKind(kind FragmentKind) []*SchemaFragment {
	var out []*SchemaFragment
	for _, frag := range s.fragments {
		if frag.Kind == kind {
			out = append(out, frag)
		}
	}
	return out
}

// MetaSchemata returns the meta-schemata in load order.
func (s *SchemaSet) MetaSchemata() []*MetaSchema {
	return append([]*MetaSchema(nil), s.meta...)
}

// Lookup finds a fragment by short name.
func (s *SchemaSet) Lookup(name string) (*SchemaFragment, bool) {
	frag, ok := s.byName[name]
	return frag, ok
}

// LookupID finds a fragment by its $id. A trailing empty fragment ("#") is ignored.
func (s *SchemaSet) LookupID(id string) (*SchemaFragment, bool) {
	frag, ok := s.byID[normalizeID(id)]
	return frag, ok
}

// LookupMeta finds a meta-schema by $id.
func (s *SchemaSet) LookupMeta(id string) (*MetaSchema, bool) {
	m, ok := s.metaByID[normalizeID(id)]
	return m, ok
}

// Len returns the number of fragments.
func (s *SchemaSet) Len() int { return len(s.fragments) }

func normalizeID(id string) string {
	return strings.TrimSuffix(id, "#")
}
