package sdojsd

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnresolvedReferenceErrorNamesBothSides(t *testing.T) {
	err := NewUnresolvedReferenceError("Place", "geo")
	assert.Contains(t, err.Error(), "Place#geo")
	assert.Equal(t, ErrorTypeReference, err.Type())
	assert.Equal(t, ErrCodeUnresolvedReference, err.Code())

	wrapped := fmt.Errorf("build: %w", err)
	var target *UnresolvedReferenceError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "geo", target.MemberName)
	assert.True(t, IsConstructionError(wrapped))
}

func TestLoadErrorUnwraps(t *testing.T) {
	err := NewLoadError("schema/Thing.jsd", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "schema/Thing.jsd")
	assert.Equal(t, ErrCodeLoadFailed, err.Code())
}

func TestGraphConstructionErrorMessage(t *testing.T) {
	err := NewGraphConstructionError("Place", "bad superclass", nil)
	assert.Equal(t, "[construction:GRAPH_CONSTRUCTION_FAILED] fragment 'Place': bad superclass", err.Error())

	err = NewGraphConstructionError("Thing", "no root", ErrNoRootClass)
	assert.ErrorIs(t, err, ErrNoRootClass)
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("Person", "https://example.net/ada", "people/ada.jsonld", []ValidationDetail{
		{TypeName: "Person", Message: "birthDate: type: 1985 has type number, want string"},
	})
	msg := err.Error()
	assert.Contains(t, msg, "document https://example.net/ada does not validate against Person")
	assert.Contains(t, msg, "(people/ada.jsonld)")
	assert.Contains(t, msg, "birthDate")
	assert.False(t, IsConstructionError(err))
	assert.Equal(t, ErrorTypeValidation, err.Type())
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "schema.extension", Message: "must start with '.'"}
	assert.Equal(t, "config validation error for field 'schema.extension': must start with '.'", err.Error())
}
