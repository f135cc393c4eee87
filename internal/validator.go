package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

const anonymousDocument = "<anonymous>"

// Engine validates JSON-LD documents against the Class and Property schemas of
// a SchemaSet. Every schema is resolved in NewEngine; afterwards the engine is
// read-only and safe for concurrent use.
type Engine struct {
	set      *sdojsd.SchemaSet
	schemas  map[string]*jsonschema.Resolved
	rootType string
	logger   *zap.Logger
}

var _ sdojsd.DocumentValidator = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRootType sets the type used when a document's @type is missing or unknown.
func WithRootType(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.rootType = name
		}
	}
}

// WithLogger sets the logger that receives fallback warnings.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine resolves the schema of every Class and Property fragment in set.
func NewEngine(set *sdojsd.SchemaSet, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		set:      set,
		schemas:  make(map[string]*jsonschema.Resolved),
		rootType: sdojsd.RootClassName,
		logger:   zap.L(),
	}
	for _, opt := range opts {
		opt(e)
	}

	loader := fragmentLoader(set)
	for _, frag := range set.Fragments() {
		if frag.Kind == sdojsd.KindDatatype {
			continue
		}
		schema, err := decodeSchema(frag.Raw)
		if err != nil {
			return nil, sdojsd.NewLoadError(frag.Path, err)
		}
		resolved, err := schema.Resolve(&jsonschema.ResolveOptions{BaseURI: frag.ID, Loader: loader})
		if err != nil {
			return nil, sdojsd.NewGraphConstructionError(frag.Name, "failed to resolve schema", err)
		}
		e.schemas[frag.Name] = resolved
	}
	if _, ok := e.schemas[e.rootType]; !ok {
		return nil, sdojsd.NewGraphConstructionError(e.rootType, "root type has no schema", sdojsd.ErrNoRootClass)
	}
	zap.S().Debugw("validation engine ready", "schemas", len(e.schemas), "rootType", e.rootType)
	return e, nil
}

// Known reports whether name is a Class or Property the engine can validate against.
func (e *Engine) Known(name string) bool {
	_, ok := e.schemas[name]
	return ok
}

// Validate checks document against typeName, or against the types named by its
// @type when typeName is empty. document may be raw JSON bytes or any value
// that marshals to a JSON object.
func (e *Engine) Validate(ctx context.Context, document any, typeName string) error {
	doc, err := normalizeDocument(document)
	if err != nil {
		return err
	}
	return e.validate(ctx, doc, typeName, "")
}

// ValidateFile reads a .json or .jsonld file and validates it. Failures carry the path.
func (e *Engine) ValidateFile(ctx context.Context, path string, typeName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return sdojsd.NewLoadError(path, err)
	}
	doc, err := normalizeDocument(data)
	if err != nil {
		return sdojsd.NewLoadError(path, err)
	}
	return e.validate(ctx, doc, typeName, path)
}

func (e *Engine) validate(ctx context.Context, doc map[string]any, typeName, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if typeName != "" {
		if !e.Known(typeName) {
			return fmt.Errorf("%w: %q", sdojsd.ErrUnknownType, typeName)
		}
		return e.validateAgainst(doc, []string{typeName}, path)
	}
	return e.validateAgainst(doc, e.effectiveTypes(doc["@type"]), path)
}

// effectiveTypes resolves the @type value of a document to the schemas it must
// satisfy. Every element of a list must be satisfied.
func (e *Engine) effectiveTypes(declared any) []string {
	switch t := declared.(type) {
	case string:
		return []string{e.knownOrRoot(t)}
	case []any:
		if len(t) == 0 {
			break
		}
		types := make([]string, 0, len(t))
		for _, item := range t {
			name, _ := item.(string)
			types = append(types, e.knownOrRoot(name))
		}
		return types
	}
	e.logger.Warn("@type property was not found, validating against the root type",
		zap.String("fallback_type", e.rootType))
	return []string{e.rootType}
}

func (e *Engine) knownOrRoot(name string) string {
	if e.Known(name) {
		return name
	}
	e.logger.Warn("type is not yet supported, validating against the root type",
		zap.String("declared_type", name),
		zap.String("fallback_type", e.rootType))
	return e.rootType
}

func (e *Engine) validateAgainst(doc map[string]any, types []string, path string) error {
	var (
		failed  []string
		details []sdojsd.ValidationDetail
	)
	seen := make(map[string]bool, len(types))
	for _, name := range types {
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := e.schemas[name].Validate(doc); err != nil {
			failed = append(failed, name)
			location, reason := locateFailure(err)
			details = append(details, sdojsd.ValidationDetail{
				TypeName:       name,
				SchemaLocation: location,
				Reason:         reason,
				Message:        err.Error(),
			})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return sdojsd.NewValidationError(strings.Join(failed, ","), documentID(doc), path, details)
}

// locateFailure walks the wrap chain of an engine error. Every level adds a
// "validating <schema>" prefix; the last one seen is the deepest schema, and
// the innermost error is the keyword failure.
func locateFailure(err error) (location, reason string) {
	for cur := err; cur != nil; {
		msg := cur.Error()
		inner := errors.Unwrap(cur)
		if inner == nil {
			return location, msg
		}
		prefix, ok := strings.CutSuffix(msg, ": "+inner.Error())
		if ok {
			if schema, found := strings.CutPrefix(prefix, "validating "); found {
				location = schema
			}
		}
		cur = inner
	}
	return location, ""
}

// documentID names a document in errors: its @id, identifier or name.
func documentID(doc map[string]any) string {
	for _, key := range []string{"@id", "identifier", "name"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return anonymousDocument
}

func normalizeDocument(document any) (map[string]any, error) {
	var data []byte
	switch d := document.(type) {
	case map[string]any:
		return d, nil
	case []byte:
		data = d
	case json.RawMessage:
		data = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		data = b
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return doc, nil
}

// decodeSchema parses a fragment for the validation engine. The $schema
// discriminator names this project's meta-schemata, not a JSON Schema dialect,
// so it is dropped and the engine default applies.
func decodeSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}
	schema.Schema = ""
	return &schema, nil
}

// fragmentLoader serves $ref targets from the set by $id. Each call decodes a
// fresh copy, since resolution annotates the schema it is given.
func fragmentLoader(set *sdojsd.SchemaSet) jsonschema.Loader {
	return func(u *url.URL) (*jsonschema.Schema, error) {
		target := *u
		target.Fragment = ""
		frag, ok := set.LookupID(target.String())
		if !ok {
			return nil, fmt.Errorf("no fragment with $id %q", target.String())
		}
		return decodeSchema(frag.Raw)
	}
}
