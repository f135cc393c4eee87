package sdojsd

// Namespaces declared in the generated @context.
const (
	NamespaceSDO  = "http://schema.org/"
	NamespaceRDF  = "https://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
)

// Node @type values.
const (
	LDTypeDatatype = "rdfs:Datatype"
	LDTypeClass    = "rdfs:Class"
	LDTypeProperty = "rdf:Property"
)

// JSONLDDocument is the generated vocabulary document.
type JSONLDDocument struct {
	Context JSONLDContext `json:"@context"`
	Graph   []any         `json:"@graph"`
}

// JSONLDContext declares the prefixes and the reverse virtual properties.
type JSONLDContext struct {
	SDO             string      `json:"sdo"`
	RDF             string      `json:"rdf"`
	RDFS            string      `json:"rdfs"`
	SuperClassOf    ReverseTerm `json:"superClassOf"`
	SuperPropertyOf ReverseTerm `json:"superPropertyOf"`
	ValueOf         ReverseTerm `json:"valueOf"`
}

// ReverseTerm is a context term defined as the reverse of another property.
type ReverseTerm struct {
	Reverse string `json:"@reverse"`
}

// DatatypeLD is the JSON-LD form of a DatatypeNode.
type DatatypeLD struct {
	Type    string `json:"@type"`
	ID      string `json:"@id"`
	Label   string `json:"rdfs:label"`
	Comment string `json:"rdfs:comment"`
}

// ClassLD is the JSON-LD form of a ClassNode.
type ClassLD struct {
	Type         string      `json:"@type"`
	ID           string      `json:"@id"`
	Label        string      `json:"rdfs:label"`
	Comment      string      `json:"rdfs:comment"`
	SubClassOf   *Reference  `json:"rdfs:subClassOf"`
	Member       []Reference `json:"rdfs:member"`
	SuperClassOf []Reference `json:"superClassOf"` // non-normative
	ValueOf      []Reference `json:"valueOf"`      // non-normative
}

// PropertyLD is the JSON-LD form of a PropertyNode.
type PropertyLD struct {
	Type            string      `json:"@type"`
	ID              string      `json:"@id"`
	Label           string      `json:"rdfs:label"`
	Comment         string      `json:"rdfs:comment"`
	SubPropertyOf   *Reference  `json:"rdfs:subPropertyOf"`
	Domain          []Reference `json:"rdfs:domain"` // non-normative
	Range           []Reference `json:"rdfs:range"`
	SuperPropertyOf []Reference `json:"superPropertyOf"` // non-normative
	RangeArray      bool        `json:"$rangeArray"`     // non-standard
}
