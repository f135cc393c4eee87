package sdojsd

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// BuildResult is the output of one pipeline run.
type BuildResult struct {
	ID         uuid.UUID
	Graph      *Graph
	JSONLD     []byte
	TypeScript string
	JSDoc      string
}

// Artifact is one generated file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Manifest describes the artifacts of a build.
type Manifest struct {
	BuildID    uuid.UUID       `json:"buildId"`
	Datatypes  int             `json:"datatypes"`
	Classes    int             `json:"classes"`
	Properties int             `json:"properties"`
	Files      []ManifestEntry `json:"files"`
}

// ManifestEntry records the size and digest of one artifact.
type ManifestEntry struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	SHA256 string `json:"sha256"`
}

// Artifacts lists the rendered outputs of r under the names in out, in a fixed order.
func (r *BuildResult) Artifacts(out OutputConfig) []Artifact {
	return []Artifact{
		{Name: out.JSONLDFile, ContentType: "application/ld+json", Data: r.JSONLD},
		{Name: out.TypeScriptFile, ContentType: "application/typescript", Data: []byte(r.TypeScript)},
		{Name: out.JSDocFile, ContentType: "application/javascript", Data: []byte(r.JSDoc)},
	}
}

// Manifest summarizes r. The manifest does not list itself.
func (r *BuildResult) Manifest(out OutputConfig) Manifest {
	m := Manifest{BuildID: r.ID}
	if r.Graph != nil {
		m.Datatypes = len(r.Graph.Datatypes)
		m.Classes = len(r.Graph.Classes)
		m.Properties = len(r.Graph.Properties)
	}
	for _, a := range r.Artifacts(out) {
		sum := sha256.Sum256(a.Data)
		m.Files = append(m.Files, ManifestEntry{Name: a.Name, Size: len(a.Data), SHA256: hex.EncodeToString(sum[:])})
	}
	return m
}
