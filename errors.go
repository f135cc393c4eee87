package sdojsd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeLoad         ErrorType = "load"
	ErrorTypeReference    ErrorType = "reference"
	ErrorTypeConstruction ErrorType = "construction"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeConfig       ErrorType = "config"
)

// Error codes reported by Code().
const (
	ErrCodeLoadFailed          = "LOAD_FAILED"
	ErrCodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	ErrCodeConstructionFailed  = "GRAPH_CONSTRUCTION_FAILED"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidConfig       = "INVALID_CONFIG"
)

var (
	// ErrUnknownFragmentKind is returned when a fragment's $schema matches none of
	// the Datatype, Class or Property discriminators.
	ErrUnknownFragmentKind = errors.New("unknown fragment kind")
	// ErrInheritanceCycle is returned when the superclass chain loops.
	ErrInheritanceCycle = errors.New("inheritance cycle")
	// ErrNoRootClass is returned when no class without a superclass is present.
	ErrNoRootClass = errors.New("no root class")
	// ErrDuplicateName is returned when two fragments share a short name.
	ErrDuplicateName = errors.New("duplicate short name")
	// ErrUnknownType is returned when an explicitly requested validation type has no schema.
	ErrUnknownType = errors.New("unknown type")
)

// LoadError reports a fragment file that could not be read or decoded.
type LoadError struct {
	Path  string
	Cause error
}

// NewLoadError creates a LoadError for the given path.
func NewLoadError(path string, cause error) *LoadError {
	return &LoadError{Path: path, Cause: cause}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Type(), e.Code(), e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error   { return e.Cause }
func (e *LoadError) Type() ErrorType { return ErrorTypeLoad }
func (e *LoadError) Code() string    { return ErrCodeLoadFailed }

// UnresolvedReferenceError reports a class member with no matching property fragment.
type UnresolvedReferenceError struct {
	Referrer   string
	MemberName string
}

// NewUnresolvedReferenceError creates an UnresolvedReferenceError.
func NewUnresolvedReferenceError(referrer, memberName string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Referrer: referrer, MemberName: memberName}
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("[%s:%s] no corresponding fragment was found for member `%s#%s`",
		e.Type(), e.Code(), e.Referrer, e.MemberName)
}

func (e *UnresolvedReferenceError) Type() ErrorType { return ErrorTypeReference }
func (e *UnresolvedReferenceError) Code() string    { return ErrCodeUnresolvedReference }

// GraphConstructionError reports a fragment whose shape cannot be turned into a graph node.
type GraphConstructionError struct {
	Fragment string
	Reason   string
	Cause    error
}

// NewGraphConstructionError creates a GraphConstructionError. cause may be nil.
func NewGraphConstructionError(fragment, reason string, cause error) *GraphConstructionError {
	return &GraphConstructionError{Fragment: fragment, Reason: reason, Cause: cause}
}

func (e *GraphConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] fragment '%s': %s: %v", e.Type(), e.Code(), e.Fragment, e.Reason, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] fragment '%s': %s", e.Type(), e.Code(), e.Fragment, e.Reason)
}

func (e *GraphConstructionError) Unwrap() error   { return e.Cause }
func (e *GraphConstructionError) Type() ErrorType { return ErrorTypeConstruction }
func (e *GraphConstructionError) Code() string    { return ErrCodeConstructionFailed }

// ValidationDetail is one failure reported by the schema validation engine.
// SchemaLocation is the deepest schema that rejected the document and Reason
// the keyword failure raised there; Message is the full engine message.
type ValidationDetail struct {
	TypeName       string `json:"type"`
	SchemaLocation string `json:"schemaLocation,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Message        string `json:"message"`
}

// ValidationError reports a document that does not satisfy its resolved schema.
// Path is empty when the document was not read from a file.
type ValidationError struct {
	TypeName   string             `json:"type"`
	DocumentID string             `json:"document"`
	Path       string             `json:"path,omitempty"`
	Details    []ValidationDetail `json:"details"`
}

// NewValidationError creates a ValidationError.
func NewValidationError(typeName, documentID, path string, details []ValidationDetail) *ValidationError {
	return &ValidationError{TypeName: typeName, DocumentID: documentID, Path: path, Details: details}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] document %s does not validate against %s", e.Type(), e.Code(), e.DocumentID, e.TypeName)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	for _, d := range e.Details {
		fmt.Fprintf(&b, "; %s: %s", d.TypeName, d.Message)
	}
	return b.String()
}

func (e *ValidationError) Type() ErrorType { return ErrorTypeValidation }
func (e *ValidationError) Code() string    { return ErrCodeValidationFailed }

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}

func (e *ConfigError) Type() ErrorType { return ErrorTypeConfig }
func (e *ConfigError) Code() string    { return ErrCodeInvalidConfig }

// IsConstructionError reports whether err aborts a build: a load, reference or
// construction failure.
func IsConstructionError(err error) bool {
	var (
		loadErr  *LoadError
		refErr   *UnresolvedReferenceError
		graphErr *GraphConstructionError
	)
	return errors.As(err, &loadErr) || errors.As(err, &refErr) || errors.As(err, &graphErr)
}
