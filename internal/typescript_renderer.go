package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/sdojsd"
)

// datatypeAliases maps the schema.org datatypes to TypeScript primitives.
var datatypeAliases = map[string]string{
	"Boolean":  "boolean",
	"Date":     "string",
	"DateTime": "string",
	"Integer":  "number",
	"Number":   "number",
	"Text":     "string",
	"Time":     "string",
	"URL":      "string",
}

// primitiveAliases is used for datatypes outside the fixed table.
var primitiveAliases = map[string]string{
	"string":  "string",
	"number":  "number",
	"integer": "number",
	"boolean": "boolean",
}

// TypeScriptOptions controls the declaration header and the root base type.
type TypeScriptOptions struct {
	BaseType string
	Import   string
}

// TypeScriptOptionsFrom reads the renderer options from the output config.
func TypeScriptOptionsFrom(out sdojsd.OutputConfig) TypeScriptOptions {
	return TypeScriptOptions{BaseType: out.TypeScriptBaseType, Import: out.TypeScriptImport}
}

// RenderTypeScript emits one declaration per node of g: datatype aliases,
// then class interfaces, then property value types.
func RenderTypeScript(g *sdojsd.Graph, opts TypeScriptOptions) string {
	if opts.BaseType == "" {
		opts.BaseType = "JSONLDObject"
	}
	var b strings.Builder
	if opts.Import != "" {
		fmt.Fprintf(&b, "import { %s } from '%s'\n", opts.BaseType, opts.Import)
	}
	for _, d := range g.Datatypes {
		b.WriteString("\n")
		writeDatatypeTS(&b, d)
	}
	for _, c := range g.Classes {
		b.WriteString("\n")
		writeClassTS(&b, c, opts.BaseType)
	}
	for _, p := range g.Properties {
		b.WriteString("\n")
		writePropertyTS(&b, p)
	}
	return b.String()
}

// PropertyTypeName is the name of the value type alias of a property.
func PropertyTypeName(property string) string {
	return property + "_type"
}

// TypeScriptAlias returns the primitive a datatype is declared as.
func TypeScriptAlias(d *sdojsd.DatatypeNode) string {
	if alias, ok := datatypeAliases[d.Label]; ok {
		return alias
	}
	if alias, ok := primitiveAliases[d.Primitive]; ok {
		return alias
	}
	return "unknown"
}

func writeDatatypeTS(b *strings.Builder, d *sdojsd.DatatypeNode) {
	writeDocComment(b, "", d.Comment, nil, d.Label)
	fmt.Fprintf(b, "export type %s = %s\n", d.Label, TypeScriptAlias(d))
}

func writeClassTS(b *strings.Builder, c *sdojsd.ClassNode, baseType string) {
	var sections [][]string
	if len(c.Subclasses) > 0 {
		sections = append(sections, linkSection("*(Non-Normative):* Known subclasses:", c.Subclasses, ""))
	}
	if len(c.ValueOfProperties) > 0 {
		sections = append(sections, linkSection("*(Non-Normative):* May appear as values of:", c.ValueOfProperties, "_type"))
	}
	writeDocComment(b, "", c.Comment, sections, c.Label)

	extends := baseType
	if c.Superclass != nil {
		extends = c.Superclass.Name()
	}
	fmt.Fprintf(b, "export interface %s extends %s {\n", c.Label, extends)
	for _, m := range c.Members {
		fmt.Fprintf(b, "\t%s?: %s\n", m.Name(), PropertyTypeName(m.Name()))
	}
	b.WriteString("}\n")
}

func writePropertyTS(b *strings.Builder, p *sdojsd.PropertyNode) {
	var sections [][]string
	if p.Superproperty != nil {
		sections = append(sections, []string{fmt.Sprintf("Extends {@link %s}", p.Superproperty.Name())})
	}
	if len(p.Subproperties) > 0 {
		sections = append(sections, linkSection("*(Non-Normative):* Known subproperties:", p.Subproperties, ""))
	}
	if len(p.Domain) > 0 {
		sections = append(sections, linkSection("*(Non-Normative):* Property of:", p.Domain, ""))
	}
	writeDocComment(b, "", p.Comment, sections, p.Label)
	fmt.Fprintf(b, "export type %s = %s\n", PropertyTypeName(p.Label), RangeUnion(p, "|", func(u string) string { return "(" + u + ")[]" }))
}

// RangeUnion joins the range names of p with sep, adding the list form built
// by listOf when the property accepts a list.
func RangeUnion(p *sdojsd.PropertyNode, sep string, listOf func(union string) string) string {
	names := make([]string, 0, len(p.Range))
	for _, r := range p.Range {
		names = append(names, r.Name())
	}
	union := strings.Join(names, sep)
	if p.RangeIsList {
		return union + sep + listOf(union)
	}
	return union
}

func linkSection(heading string, refs []sdojsd.Reference, suffix string) []string {
	lines := []string{heading}
	for _, r := range refs {
		lines = append(lines, fmt.Sprintf("- {@link %s%s}", r.Name(), suffix))
	}
	return lines
}

// writeDocComment writes a /** */ block: the comment, each section separated by
// a blank line, then the canonical @see link.
func writeDocComment(b *strings.Builder, indent, comment string, sections [][]string, label string) {
	fmt.Fprintf(b, "%s/**\n", indent)
	for _, line := range strings.Split(commentSafe(comment), "\n") {
		writeCommentLine(b, indent, line)
	}
	for _, section := range sections {
		writeCommentLine(b, indent, "")
		for _, line := range section {
			writeCommentLine(b, indent, line)
		}
	}
	writeCommentLine(b, indent, "")
	writeCommentLine(b, indent, "@see "+sdojsd.VocabularyBase+label)
	fmt.Fprintf(b, "%s */\n", indent)
}

func writeCommentLine(b *strings.Builder, indent, line string) {
	if line == "" {
		fmt.Fprintf(b, "%s *\n", indent)
		return
	}
	fmt.Fprintf(b, "%s * %s\n", indent, line)
}

// commentSafe keeps free text from closing the enclosing block comment.
func commentSafe(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "*/", "*\\/")
}
