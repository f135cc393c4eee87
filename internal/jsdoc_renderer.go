package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/sdojsd"
)

// RenderJSDoc emits a @typedef block per node of g, in the same order as the
// TypeScript declarations.
func RenderJSDoc(g *sdojsd.Graph) string {
	var blocks []string
	for _, d := range g.Datatypes {
		blocks = append(blocks, datatypeJSDoc(g, d))
	}
	for _, c := range g.Classes {
		blocks = append(blocks, classJSDoc(g, c))
	}
	for _, p := range g.Properties {
		blocks = append(blocks, propertyJSDoc(p))
	}
	return strings.Join(blocks, "\n")
}

func datatypeJSDoc(g *sdojsd.Graph, d *sdojsd.DatatypeNode) string {
	var valueOf []sdojsd.Reference
	for _, p := range g.Properties {
		if sdojsd.Contains(p.Range, d.Label) {
			valueOf = append(valueOf, sdojsd.Ref(p.Label))
		}
	}
	var b strings.Builder
	b.WriteString("/**\n")
	writeSummary(&b, d.Comment)
	writeDescription(&b, "Value Of:", valueOf)
	fmt.Fprintf(&b, " * @see %s\n", canonical(d.Canonical, d.Label))
	fmt.Fprintf(&b, " * @typedef {%s} %s\n", TypeScriptAlias(d), d.Label)
	b.WriteString(" */\n")
	return b.String()
}

func classJSDoc(g *sdojsd.Graph, c *sdojsd.ClassNode) string {
	var b strings.Builder
	b.WriteString("/**\n")
	writeSummary(&b, c.Comment)
	writeDescription(&b, "Value Of:", c.ValueOfProperties)
	fmt.Fprintf(&b, " * @see %s\n", canonical(c.Canonical, c.Label))
	super := "!Object"
	if c.Superclass != nil {
		super = c.Superclass.Name()
	}
	fmt.Fprintf(&b, " * @typedef {%s} %s\n", super, c.Label)
	for _, m := range c.Members {
		name := m.Name()
		line := fmt.Sprintf(" * @property {%s=} %s", name, name)
		if p, ok := g.Property(name); ok && p.Comment != "" {
			line += " " + oneLine(p.Comment)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(" */\n")
	return b.String()
}

func propertyJSDoc(p *sdojsd.PropertyNode) string {
	var b strings.Builder
	b.WriteString("/**\n")
	writeSummary(&b, p.Comment)
	writeDescription(&b, "Property Of:", p.Domain)
	fmt.Fprintf(&b, " * @see %s\n", canonical(p.Canonical, p.Label))
	typ := RangeUnion(p, "|", func(u string) string { return "Array<(" + u + ")>" })
	if len(p.Range) > 1 || p.RangeIsList {
		typ = "(" + typ + ")"
	}
	fmt.Fprintf(&b, " * @typedef {%s} %s\n", typ, p.Label)
	b.WriteString(" */\n")
	return b.String()
}

func writeSummary(b *strings.Builder, comment string) {
	if comment = oneLine(comment); comment != "" {
		fmt.Fprintf(b, " * @summary %s\n", comment)
	}
}

func writeDescription(b *strings.Builder, heading string, refs []sdojsd.Reference) {
	if len(refs) == 0 {
		return
	}
	b.WriteString(" * @description\n")
	fmt.Fprintf(b, " * %s\n", heading)
	for _, r := range refs {
		fmt.Fprintf(b, " * - {@link %s}\n", r.Name())
	}
}

func canonical(title, label string) string {
	if title != "" {
		return title
	}
	return sdojsd.VocabularyBase + label
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(commentSafe(s)), " ")
}
