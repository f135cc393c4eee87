package sdojsd

import "strings"

// IDPrefix is the compact IRI prefix of every vocabulary node.
const IDPrefix = "sdo:"

// Reference points at another node by its compact IRI.
type Reference struct {
	ID string `json:"@id"`
}

// Ref returns the reference for a short name.
func Ref(name string) Reference {
	return Reference{ID: IDPrefix + name}
}

// Name returns the short name a reference points at.
func (r Reference) Name() string {
	return strings.TrimPrefix(r.ID, IDPrefix)
}

// DatatypeNode is a primitive value type such as Text or Integer.
type DatatypeNode struct {
	ID        string
	Label     string
	Comment   string
	Canonical string
	Primitive string
}

// ClassNode is a vocabulary class. Subclasses and ValueOfProperties are computed.
type ClassNode struct {
	ID         string
	Label      string
	Comment    string
	Canonical  string
	Superclass *Reference
	Members    []Reference

	Subclasses        []Reference
	ValueOfProperties []Reference
}

// PropertyNode is a vocabulary property. Domain and Subproperties are computed.
type PropertyNode struct {
	ID            string
	Label         string
	Comment       string
	Canonical     string
	Superproperty *Reference
	Range         []Reference
	RangeIsList   bool

	Domain        []Reference
	Subproperties []Reference
}

// Graph is the linked vocabulary. Node slices keep fragment order; the
// lookup maps are built with the nodes and never change afterwards.
type Graph struct {
	Datatypes  []*DatatypeNode
	Classes    []*ClassNode
	Properties []*PropertyNode

	datatypeIndex map[string]*DatatypeNode
	classIndex    map[string]*ClassNode
	propertyIndex map[string]*PropertyNode
}

// NewGraph indexes the given nodes by short name.
func NewGraph(datatypes []*DatatypeNode, classes []*ClassNode, properties []*PropertyNode) *Graph {
	g := &Graph{
		Datatypes:     datatypes,
		Classes:       classes,
		Properties:    properties,
		datatypeIndex: make(map[string]*DatatypeNode, len(datatypes)),
		classIndex:    make(map[string]*ClassNode, len(classes)),
		propertyIndex: make(map[string]*PropertyNode, len(properties)),
	}
	for _, d := range datatypes {
		g.datatypeIndex[d.Label] = d
	}
	for _, c := range classes {
		g.classIndex[c.Label] = c
	}
	for _, p := range properties {
		g.propertyIndex[p.Label] = p
	}
	return g
}

// Datatype looks up a datatype node by short name.
func (g *Graph) Datatype(name string) (*DatatypeNode, bool) {
	d, ok := g.datatypeIndex[name]
	return d, ok
}

// Class looks up a class node by short name.
func (g *Graph) Class(name string) (*ClassNode, bool) {
	c, ok := g.classIndex[name]
	return c, ok
}

// Property looks up a property node by short name.
func (g *Graph) Property(name string) (*PropertyNode, bool) {
	p, ok := g.propertyIndex[name]
	return p, ok
}

// Root returns the class without a superclass, if there is exactly one.
func (g *Graph) Root() (*ClassNode, bool) {
	var root *ClassNode
	for _, c := range g.Classes {
		if c.Superclass == nil {
			if root != nil {
				return nil, false
			}
			root = c
		}
	}
	return root, root != nil
}

// Len returns the total number of nodes.
func (g *Graph) Len() int {
	return len(g.Datatypes) + len(g.Classes) + len(g.Properties)
}

// Contains reports whether refs holds a reference to name.
func Contains(refs []Reference, name string) bool {
	id := IDPrefix + name
	for _, r := range refs {
		if r.ID == id {
			return true
		}
	}
	return false
}
