package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/lychee-technology/sdojsd"
)

var kindSchemaURIs = map[sdojsd.FragmentKind]string{
	sdojsd.KindDatatype: sdojsd.DatatypeSchemaURI,
	sdojsd.KindClass:    sdojsd.ClassSchemaURI,
	sdojsd.KindProperty: sdojsd.PropertySchemaURI,
}

// ValidateFragments checks every fragment in set against the meta-schema its
// $schema names. Fragments whose meta-schema is not loaded are skipped. All
// failures are returned joined.
func ValidateFragments(ctx context.Context, set *sdojsd.SchemaSet) error {
	resolved := make(map[string]*jsonschema.Resolved)
	loader := metaLoader(set)

	var errs []error
	for _, frag := range set.Fragments() {
		if err := ctx.Err(); err != nil {
			return err
		}
		uri := kindSchemaURIs[frag.Kind]
		meta, ok := set.LookupMeta(uri)
		if !ok {
			zap.S().Debugw("no meta-schema loaded, skipping fragment", "fragment", frag.Name, "metaSchema", uri)
			continue
		}
		rs, ok := resolved[meta.ID]
		if !ok {
			schema, err := decodeSchema(meta.Raw)
			if err != nil {
				return sdojsd.NewLoadError(meta.Path, err)
			}
			rs, err = schema.Resolve(&jsonschema.ResolveOptions{BaseURI: meta.ID, Loader: loader})
			if err != nil {
				return sdojsd.NewGraphConstructionError(meta.Path, "failed to resolve meta-schema", err)
			}
			resolved[meta.ID] = rs
		}

		var instance any
		if err := json.Unmarshal(frag.Raw, &instance); err != nil {
			return sdojsd.NewLoadError(frag.Path, err)
		}
		if err := rs.Validate(instance); err != nil {
			metaName := sdojsd.ShortName(meta.ID)
			errs = append(errs, sdojsd.NewValidationError(metaName, frag.Name, frag.Path,
				[]sdojsd.ValidationDetail{{TypeName: metaName, Message: err.Error()}}))
		}
	}
	return errors.Join(errs...)
}

func metaLoader(set *sdojsd.SchemaSet) jsonschema.Loader {
	return func(u *url.URL) (*jsonschema.Schema, error) {
		target := *u
		target.Fragment = ""
		meta, ok := set.LookupMeta(target.String())
		if !ok {
			return nil, fmt.Errorf("no meta-schema with $id %q", target.String())
		}
		return decodeSchema(meta.Raw)
	}
}
