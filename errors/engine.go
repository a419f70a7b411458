package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed engine errors through their Is methods, so
// callers can test with errors.Is without knowing the concrete type.
var (
	ErrUnknownNamespace   = errors.New("unknown namespace")
	ErrUnknownTransform   = errors.New("unknown transform")
	ErrDuplicateTransform = errors.New("duplicate transform")
	ErrInvalidField       = errors.New("invalid field reference")
	ErrMissingField       = errors.New("missing field")
	ErrEmptySequence      = errors.New("empty sequence")
	ErrMissingMergeColumn = errors.New("missing merge column")
	ErrMissingDependency  = errors.New("missing dependency")
)

// UnknownNamespaceError reports a requested namespace with no registered adapter.
type UnknownNamespaceError struct {
	Namespace string
}

func (e *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("data source for namespace %q not found", e.Namespace)
}

// Is matches ErrUnknownNamespace.
func (e *UnknownNamespaceError) Is(target error) bool { return target == ErrUnknownNamespace }

// UnknownTransformError reports a transform name that is not registered.
// Token is the field token that referenced it, when known.
type UnknownTransformError struct {
	Name  string
	Token string
}

func (e *UnknownTransformError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("transformation %q not found (in field %q)", e.Name, e.Token)
	}
	return fmt.Sprintf("transformation %q not found", e.Name)
}

// Is matches ErrUnknownTransform.
func (e *UnknownTransformError) Is(target error) bool { return target == ErrUnknownTransform }

// DuplicateTransformError reports an Add for a name that is already registered.
type DuplicateTransformError struct {
	Name string
}

func (e *DuplicateTransformError) Error() string {
	return fmt.Sprintf("transformation %q already exists", e.Name)
}

// Is matches ErrDuplicateTransform.
func (e *DuplicateTransformError) Is(target error) bool { return target == ErrDuplicateTransform }

// InvalidFieldError reports a field token that does not follow namespace:name|transform.
type InvalidFieldError struct {
	Token string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field specifier %q", e.Token)
}

// Is matches ErrInvalidField.
func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }

// MissingFieldError reports a requested field absent from every record of a response.
type MissingFieldError struct {
	Field   string
	Outname string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field %s not found in response for %s", e.Field, e.Outname)
}

// Is matches ErrMissingField.
func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// EmptySequenceError reports an extremal selection over zero rows.
type EmptySequenceError struct {
	Field string
}

func (e *EmptySequenceError) Error() string {
	return fmt.Sprintf("cannot select extreme value of %q from an empty sequence", e.Field)
}

// Is matches ErrEmptySequence.
func (e *EmptySequenceError) Is(target error) bool { return target == ErrEmptySequence }

// MissingMergeColumnError reports logical merge columns that could not be located.
type MissingMergeColumnError struct {
	Missing   []string
	Available []string
}

func (e *MissingMergeColumnError) Error() string {
	return fmt.Sprintf("unable to find necessary column(s) for merge: %s (available: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ","))
}

// Is matches ErrMissingMergeColumn.
func (e *MissingMergeColumnError) Is(target error) bool { return target == ErrMissingMergeColumn }

// MissingDependencyError reports a connector run before one of its upstream sources.
type MissingDependencyError struct {
	Connector string
	Upstream  string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s cannot be used before loading required data for: %s", e.Connector, e.Upstream)
}

// Is matches ErrMissingDependency.
func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }
