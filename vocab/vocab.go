// Package vocab embeds the reference schema.org vocabulary: fragment schemata
// under schema/ and the meta-schemata that check them under meta/.
package vocab

import "embed"

// Directories of FS.
const (
	SchemaDir = "schema"
	MetaDir   = "meta"
)

//go:embed schema/*.jsd meta/*.jsd
var FS embed.FS
