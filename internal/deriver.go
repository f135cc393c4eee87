package internal

import (
	"github.com/lychee-technology/sdojsd"
)

// Derive fills the computed fields of g by inverting its normative edges.
// Appends follow fragment order, so the result is deterministic. Computed lists
// are reset first; edges to nodes that are not in g are skipped.
func Derive(g *sdojsd.Graph) {
	for _, c := range g.Classes {
		c.Subclasses = []sdojsd.Reference{}
		c.ValueOfProperties = []sdojsd.Reference{}
	}
	for _, p := range g.Properties {
		p.Domain = []sdojsd.Reference{}
		p.Subproperties = []sdojsd.Reference{}
	}

	for _, c := range g.Classes {
		self := sdojsd.Ref(c.Label)
		if c.Superclass != nil {
			if super, ok := g.Class(c.Superclass.Name()); ok {
				super.Subclasses = append(super.Subclasses, self)
			}
		}
		for _, member := range c.Members {
			if prop, ok := g.Property(member.Name()); ok {
				prop.Domain = append(prop.Domain, self)
			}
		}
	}

	for _, p := range g.Properties {
		self := sdojsd.Ref(p.Label)
		if p.Superproperty != nil {
			if super, ok := g.Property(p.Superproperty.Name()); ok {
				super.Subproperties = append(super.Subproperties, self)
			}
		}
		for _, r := range p.Range {
			// datatypes in the range carry no reverse list
			if c, ok := g.Class(r.Name()); ok {
				c.ValueOfProperties = append(c.ValueOfProperties, self)
			}
		}
	}
}
