package sdojsd

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// DocumentValidator checks JSON-LD documents against the vocabulary schemas.
// An empty typeName means "infer from @type".
type DocumentValidator interface {
	Validate(ctx context.Context, document any, typeName string) error
	ValidateFile(ctx context.Context, path string, typeName string) error
}

// CatalogNode is one vocabulary node as stored in the catalog.
type CatalogNode struct {
	BuildID  uuid.UUID       `json:"buildId"`
	NodeID   string          `json:"nodeId"`
	NodeType string          `json:"nodeType"`
	Label    string          `json:"label"`
	Comment  string          `json:"comment"`
	Document json.RawMessage `json:"document"`
}

// CatalogStore persists built vocabularies.
type CatalogStore interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, buildID uuid.UUID, graph *Graph) error
	Nodes(ctx context.Context, buildID uuid.UUID) ([]CatalogNode, error)
}

// ArtifactPublisher ships build artifacts to remote storage and returns the
// keys written.
type ArtifactPublisher interface {
	Publish(ctx context.Context, result *BuildResult) ([]string, error)
}
