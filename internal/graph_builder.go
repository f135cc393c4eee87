package internal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

// BuildGraph turns the fragments of set into a graph with every normative field
// populated and every computed field empty. It fails on the first unresolved
// member, malformed reference or broken class hierarchy; no partial graph is
// returned.
func BuildGraph(set *sdojsd.SchemaSet) (*sdojsd.Graph, error) {
	resolver := NewResolver(set)

	datatypeFrags := set.OfKind(sdojsd.KindDatatype)
	classFrags := set.OfKind(sdojsd.KindClass)
	propertyFrags := set.OfKind(sdojsd.KindProperty)

	datatypes := make([]*sdojsd.DatatypeNode, 0, len(datatypeFrags))
	for _, frag := range datatypeFrags {
		datatypes = append(datatypes, &sdojsd.DatatypeNode{
			ID:        sdojsd.IDPrefix + frag.Name,
			Label:     frag.Name,
			Comment:   frag.Description,
			Canonical: frag.Title,
			Primitive: frag.Datatype.Primitive,
		})
	}

	classes := make([]*sdojsd.ClassNode, 0, len(classFrags))
	for _, frag := range classFrags {
		node, err := buildClass(resolver, frag)
		if err != nil {
			return nil, err
		}
		classes = append(classes, node)
	}

	properties := make([]*sdojsd.PropertyNode, 0, len(propertyFrags))
	for _, frag := range propertyFrags {
		node, err := buildProperty(resolver, frag)
		if err != nil {
			return nil, err
		}
		properties = append(properties, node)
	}

	graph := sdojsd.NewGraph(datatypes, classes, properties)
	if err := verifyHierarchy(graph); err != nil {
		return nil, err
	}
	zap.S().Debugw("graph built", "datatypes", len(datatypes), "classes", len(classes), "properties", len(properties))
	return graph, nil
}

func buildClass(resolver *Resolver, frag *sdojsd.SchemaFragment) (*sdojsd.ClassNode, error) {
	node := &sdojsd.ClassNode{
		ID:                sdojsd.IDPrefix + frag.Name,
		Label:             frag.Name,
		Comment:           frag.Description,
		Canonical:         frag.Title,
		Members:           make([]sdojsd.Reference, 0, len(frag.Class.Members)),
		Subclasses:        []sdojsd.Reference{},
		ValueOfProperties: []sdojsd.Reference{},
	}
	if frag.Name != sdojsd.RootClassName {
		super, err := resolver.RefName(frag.Name, frag.Class.SuperclassRef)
		if err != nil {
			return nil, err
		}
		ref := sdojsd.Ref(super)
		node.Superclass = &ref
	}
	for _, member := range frag.Class.Members {
		prop, err := resolver.ResolveMember(frag.Name, member.Name)
		if err != nil {
			return nil, err
		}
		node.Members = append(node.Members, sdojsd.Ref(prop.Name))
	}
	return node, nil
}

func buildProperty(resolver *Resolver, frag *sdojsd.SchemaFragment) (*sdojsd.PropertyNode, error) {
	spec := frag.Property
	node := &sdojsd.PropertyNode{
		ID:            sdojsd.IDPrefix + frag.Name,
		Label:         frag.Name,
		Comment:       frag.Description,
		Canonical:     frag.Title,
		Range:         make([]sdojsd.Reference, 0, len(spec.RangeRefs)),
		RangeIsList:   spec.RangeIsList,
		Domain:        []sdojsd.Reference{},
		Subproperties: []sdojsd.Reference{},
	}
	if spec.HasSuperproperty {
		super, err := resolver.RefName(frag.Name, spec.SuperpropertyRef)
		if err != nil {
			return nil, err
		}
		ref := sdojsd.Ref(super)
		node.Superproperty = &ref
	}
	for _, r := range spec.RangeRefs {
		name, err := resolver.RefName(frag.Name, r)
		if err != nil {
			return nil, err
		}
		node.Range = append(node.Range, sdojsd.Ref(name))
	}
	return node, nil
}

// verifyHierarchy checks that the superclass edges form a single tree: one
// root, every superclass a loaded class, no cycles.
func verifyHierarchy(g *sdojsd.Graph) error {
	if len(g.Classes) == 0 {
		return nil
	}
	var roots []string
	for _, c := range g.Classes {
		if c.Superclass == nil {
			roots = append(roots, c.Label)
			continue
		}
		if _, ok := g.Class(c.Superclass.Name()); !ok {
			return sdojsd.NewGraphConstructionError(c.Label,
				fmt.Sprintf("superclass %q is not a loaded class", c.Superclass.Name()), nil)
		}
	}
	switch len(roots) {
	case 0:
		return sdojsd.NewGraphConstructionError(sdojsd.RootClassName, "no class without a superclass", sdojsd.ErrNoRootClass)
	case 1:
	default:
		return sdojsd.NewGraphConstructionError(roots[1], fmt.Sprintf("second root class besides %q", roots[0]), nil)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.Classes))
	for _, c := range g.Classes {
		var chain []*sdojsd.ClassNode
		cur := c
		for cur != nil && state[cur.Label] == unvisited {
			state[cur.Label] = visiting
			chain = append(chain, cur)
			if cur.Superclass == nil {
				cur = nil
				break
			}
			cur, _ = g.Class(cur.Superclass.Name())
		}
		if cur != nil && state[cur.Label] == visiting {
			return sdojsd.NewGraphConstructionError(cur.Label, "superclass chain loops back", sdojsd.ErrInheritanceCycle)
		}
		for _, n := range chain {
			state[n.Label] = done
		}
	}
	return nil
}
