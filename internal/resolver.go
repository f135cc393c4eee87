package internal

import (
	"github.com/lychee-technology/sdojsd"
)

// Resolver looks up the fragments that class members and $refs point at.
type Resolver struct {
	set *sdojsd.SchemaSet
}

// NewResolver creates a resolver over set.
func NewResolver(set *sdojsd.SchemaSet) *Resolver {
	return &Resolver{set: set}
}

// ResolveMember returns the Property fragment named member. referrer is the
// class declaring the member and is only used in the error.
func (r *Resolver) ResolveMember(referrer, member string) (*sdojsd.SchemaFragment, error) {
	frag, ok := r.set.Lookup(member)
	if !ok || frag.Kind != sdojsd.KindProperty {
		return nil, sdojsd.NewUnresolvedReferenceError(referrer, member)
	}
	return frag, nil
}

// RefName returns the short name a $ref points at. from names the fragment the
// reference appears in.
func (r *Resolver) RefName(from, ref string) (string, error) {
	name := sdojsd.ShortName(ref)
	if name == "" {
		return "", sdojsd.NewGraphConstructionError(from, "cannot recover a short name from reference \""+ref+"\"", nil)
	}
	return name, nil
}

// ResolveRef returns the fragment a $ref points at, if it is loaded.
func (r *Resolver) ResolveRef(from, ref string) (*sdojsd.SchemaFragment, bool, error) {
	name, err := r.RefName(from, ref)
	if err != nil {
		return nil, false, err
	}
	frag, ok := r.set.Lookup(name)
	return frag, ok, nil
}
