package sdojsd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FragmentKind is the tier of the vocabulary a fragment describes.
type FragmentKind string

const (
	KindDatatype FragmentKind = "Datatype"
	KindClass    FragmentKind = "Class"
	KindProperty FragmentKind = "Property"
)

// $schema discriminators of the three fragment kinds.
const (
	DatatypeSchemaURI = "http://json-schema.org/draft-07/schema#"
	ClassSchemaURI    = "https://chharvey.github.io/schemaorg-jsd/meta/type.jsd#"
	PropertySchemaURI = "https://chharvey.github.io/schemaorg-jsd/meta/member.jsd#"
)

// RootClassName is the short name of the universal type. It is the only class
// without a superclass.
const RootClassName = "Thing"

// VocabularyBase is the namespace of the canonical titles.
const VocabularyBase = "http://schema.org/"

// SchemaFragment is one parsed input schema. Exactly one of Datatype, Class and
// Property is set, matching Kind.
type SchemaFragment struct {
	Kind        FragmentKind
	Path        string
	ID          string
	Title       string
	Name        string
	Description string
	Raw         json.RawMessage

	Datatype *DatatypeSpec
	Class    *ClassSpec
	Property *PropertySpec
}

// DatatypeSpec holds the primitive JSON type tag of a Datatype fragment.
type DatatypeSpec struct {
	Primitive string
}

// ClassSpec holds the normative structure of a Class fragment.
type ClassSpec struct {
	// SuperclassRef is the raw $ref of allOf[0]; empty for the root class.
	SuperclassRef string
	Members       []MemberRef
}

// MemberRef is one entry of a class's member mapping, in source order.
type MemberRef struct {
	Name string
	Ref  string
}

// PropertySpec holds the normative structure of a Property fragment.
type PropertySpec struct {
	// SuperpropertyRef is the raw $ref of allOf[0]; empty when HasSuperproperty is false.
	SuperpropertyRef string
	HasSuperproperty bool
	RangeRefs        []string
	RangeIsList      bool
}

// MetaSchema is a schema used only to check the structure of fragments.
type MetaSchema struct {
	ID   string
	Path string
	Raw  json.RawMessage
}

// ShortName extracts the canonical name from a URI or relative reference:
// the last path segment up to its first dot. "http://schema.org/Thing",
// "Thing.jsd" and "Thing.prop.jsd" all yield "Thing". It returns "" when no
// name can be recovered.
func ShortName(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	}
	if p == "" {
		return ""
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// KindOf maps a $schema value to its fragment kind.
func KindOf(schemaURI string) (FragmentKind, error) {
	switch strings.TrimSuffix(schemaURI, "#") {
	case strings.TrimSuffix(DatatypeSchemaURI, "#"):
		return KindDatatype, nil
	case strings.TrimSuffix(ClassSchemaURI, "#"):
		return KindClass, nil
	case strings.TrimSuffix(PropertySchemaURI, "#"):
		return KindProperty, nil
	default:
		return "", fmt.Errorf("%w: $schema %q", ErrUnknownFragmentKind, schemaURI)
	}
}

type rawFragment struct {
	Schema      string                     `json:"$schema"`
	ID          string                     `json:"$id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Type        json.RawMessage            `json:"type"`
	AllOf       []json.RawMessage          `json:"allOf"`
	Definitions map[string]json.RawMessage `json:"definitions"`
}

type refSchema struct {
	Ref string `json:"$ref"`
}

type classMembers struct {
	Properties *orderedmap.OrderedMap[string, refSchema] `json:"properties"`
}

type anyOfSchema struct {
	AnyOf []json.RawMessage `json:"anyOf"`
}

// ParseFragment decodes one fragment file into its tagged variant. Invalid JSON
// and unknown discriminators yield a *LoadError; a recognized kind with the
// wrong shape yields a *GraphConstructionError.
func ParseFragment(filePath string, data []byte) (*SchemaFragment, error) {
	var raw rawFragment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewLoadError(filePath, err)
	}
	kind, err := KindOf(raw.Schema)
	if err != nil {
		return nil, NewLoadError(filePath, err)
	}

	name := ShortName(raw.Title)
	if name == "" {
		return nil, NewGraphConstructionError(filePath, fmt.Sprintf("title %q has no short name", raw.Title), nil)
	}

	frag := &SchemaFragment{
		Kind:        kind,
		Path:        filePath,
		ID:          raw.ID,
		Title:       raw.Title,
		Name:        name,
		Description: raw.Description,
		Raw:         json.RawMessage(bytes.Clone(data)),
	}

	switch kind {
	case KindDatatype:
		frag.Datatype, err = parseDatatype(name, &raw)
	case KindClass:
		frag.Class, err = parseClass(name, &raw)
	case KindProperty:
		frag.Property, err = parseProperty(name, &raw)
	}
	if err != nil {
		return nil, err
	}
	return frag, nil
}

// ParseMetaSchema decodes a meta-schema file.
func ParseMetaSchema(filePath string, data []byte) (*MetaSchema, error) {
	var head struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, NewLoadError(filePath, err)
	}
	if head.ID == "" {
		return nil, NewLoadError(filePath, fmt.Errorf("meta-schema has no $id"))
	}
	return &MetaSchema{ID: head.ID, Path: filePath, Raw: json.RawMessage(bytes.Clone(data))}, nil
}

func parseDatatype(name string, raw *rawFragment) (*DatatypeSpec, error) {
	var primitive string
	if err := json.Unmarshal(raw.Type, &primitive); err != nil || primitive == "" {
		return nil, NewGraphConstructionError(name, "datatype must declare a single primitive type", err)
	}
	return &DatatypeSpec{Primitive: primitive}, nil
}

func parseClass(name string, raw *rawFragment) (*ClassSpec, error) {
	if len(raw.AllOf) != 2 {
		return nil, NewGraphConstructionError(name, fmt.Sprintf("class allOf must have 2 branches, got %d", len(raw.AllOf)), nil)
	}
	spec := &ClassSpec{}
	if name != RootClassName {
		ref, isTrue, err := decodeRef(raw.AllOf[0])
		if err != nil || isTrue {
			return nil, NewGraphConstructionError(name, "allOf[0] is not a superclass reference", err)
		}
		spec.SuperclassRef = ref
	}

	var members classMembers
	if err := json.Unmarshal(raw.AllOf[1], &members); err != nil {
		return nil, NewGraphConstructionError(name, "allOf[1] is not a member mapping", err)
	}
	if members.Properties != nil {
		for pair := members.Properties.Oldest(); pair != nil; pair = pair.Next() {
			spec.Members = append(spec.Members, MemberRef{Name: pair.Key, Ref: pair.Value.Ref})
		}
	}
	return spec, nil
}

func parseProperty(name string, raw *rawFragment) (*PropertySpec, error) {
	if len(raw.AllOf) != 2 {
		return nil, NewGraphConstructionError(name, fmt.Sprintf("property allOf must have 2 branches, got %d", len(raw.AllOf)), nil)
	}
	spec := &PropertySpec{}

	ref, isTrue, err := decodeRef(raw.AllOf[0])
	if err != nil {
		return nil, NewGraphConstructionError(name, "allOf[0] is neither `true` nor a reference", err)
	}
	if !isTrue {
		spec.SuperpropertyRef = ref
		spec.HasSuperproperty = true
	}

	var values anyOfSchema
	if err := json.Unmarshal(raw.AllOf[1], &values); err != nil {
		return nil, NewGraphConstructionError(name, "allOf[1] is not an anyOf union", err)
	}
	switch len(values.AnyOf) {
	case 1:
		spec.RangeIsList = false
	case 2:
		spec.RangeIsList = true
	default:
		return nil, NewGraphConstructionError(name, fmt.Sprintf("value union must have 1 or 2 branches, got %d", len(values.AnyOf)), nil)
	}

	expected, ok := raw.Definitions["ExpectedType"]
	if !ok {
		return nil, NewGraphConstructionError(name, "missing definitions.ExpectedType", nil)
	}
	var union anyOfSchema
	if err := json.Unmarshal(expected, &union); err != nil {
		return nil, NewGraphConstructionError(name, "definitions.ExpectedType is not an anyOf union", err)
	}
	if len(union.AnyOf) == 0 {
		return nil, NewGraphConstructionError(name, "expected type union is empty", nil)
	}
	for i, branch := range union.AnyOf {
		ref, isTrue, err := decodeRef(branch)
		if err != nil || isTrue || ref == "" {
			return nil, NewGraphConstructionError(name, fmt.Sprintf("expected type %d is not a reference", i), err)
		}
		spec.RangeRefs = append(spec.RangeRefs, ref)
	}
	return spec, nil
}

// decodeRef reads a {"$ref": ...} subschema. isTrue reports the literal `true`
// schema, which stands for "no constraint".
func decodeRef(raw json.RawMessage) (ref string, isTrue bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("true")) {
		return "", true, nil
	}
	var r refSchema
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return "", false, err
	}
	return r.Ref, false, nil
}
