package internal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lychee-technology/sdojsd"
)

// vocabularyContext is the fixed @context of the generated document.
var vocabularyContext = sdojsd.JSONLDContext{
	SDO:             sdojsd.NamespaceSDO,
	RDF:             sdojsd.NamespaceRDF,
	RDFS:            sdojsd.NamespaceRDFS,
	SuperClassOf:    sdojsd.ReverseTerm{Reverse: "rdfs:subClassOf"},
	SuperPropertyOf: sdojsd.ReverseTerm{Reverse: "rdfs:subPropertyOf"},
	ValueOf:         sdojsd.ReverseTerm{Reverse: "rdfs:range"},
}

// ToJSONLD maps a derived graph to its JSON-LD document: datatypes, then
// classes, then properties.
func ToJSONLD(g *sdojsd.Graph) sdojsd.JSONLDDocument {
	nodes := make([]any, 0, g.Len())
	for _, d := range g.Datatypes {
		nodes = append(nodes, DatatypeLD(d))
	}
	for _, c := range g.Classes {
		nodes = append(nodes, ClassLD(c))
	}
	for _, p := range g.Properties {
		nodes = append(nodes, PropertyLD(p))
	}
	return sdojsd.JSONLDDocument{Context: vocabularyContext, Graph: nodes}
}

// RenderJSONLD encodes the JSON-LD document of g. HTML characters in comments
// are written as is.
func RenderJSONLD(g *sdojsd.Graph, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(ToJSONLD(g)); err != nil {
		return nil, fmt.Errorf("failed to encode JSON-LD document: %w", err)
	}
	return buf.Bytes(), nil
}

func DatatypeLD(d *sdojsd.DatatypeNode) sdojsd.DatatypeLD {
	return sdojsd.DatatypeLD{
		Type:    sdojsd.LDTypeDatatype,
		ID:      d.ID,
		Label:   d.Label,
		Comment: d.Comment,
	}
}

func ClassLD(c *sdojsd.ClassNode) sdojsd.ClassLD {
	return sdojsd.ClassLD{
		Type:         sdojsd.LDTypeClass,
		ID:           c.ID,
		Label:        c.Label,
		Comment:      c.Comment,
		SubClassOf:   c.Superclass,
		Member:       nonNil(c.Members),
		SuperClassOf: nonNil(c.Subclasses),
		ValueOf:      nonNil(c.ValueOfProperties),
	}
}

func PropertyLD(p *sdojsd.PropertyNode) sdojsd.PropertyLD {
	return sdojsd.PropertyLD{
		Type:            sdojsd.LDTypeProperty,
		ID:              p.ID,
		Label:           p.Label,
		Comment:         p.Comment,
		SubPropertyOf:   p.Superproperty,
		Domain:          nonNil(p.Domain),
		Range:           nonNil(p.Range),
		SuperPropertyOf: nonNil(p.Subproperties),
		RangeArray:      p.RangeIsList,
	}
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil(refs []sdojsd.Reference) []sdojsd.Reference {
	if refs == nil {
		return []sdojsd.Reference{}
	}
	return refs
}
