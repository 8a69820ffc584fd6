package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record or entry does not exist in the
// underlying store.
var ErrNotFound = errors.New("not found")

// SchemaViolation reports metadata that fails the namespace's schema rules.
// Records failing validation are rejected before any network interaction.
type SchemaViolation struct {
	Namespace Namespace
	Fields    []string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation in namespace %s: %s",
		e.Namespace, strings.Join(e.Fields, "; "))
}

// MissingContextError reports a write-path call lacking identity fields the
// namespace mandates.
type MissingContextError struct {
	Namespace Namespace
	Fields    []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing context for namespace %s: %s required",
		e.Namespace, strings.Join(e.Fields, ", "))
}

// ExternalStoreError wraps a failure or timeout from the search / memory
// collaborator. Read paths degrade to empty results and record the error;
// write paths surface it to the caller.
type ExternalStoreError struct {
	Op        string
	Namespace Namespace
	Err       error
}

func (e *ExternalStoreError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("external store %s failed for namespace %s: %v", e.Op, e.Namespace, e.Err)
	}
	return fmt.Sprintf("external store %s failed: %v", e.Op, e.Err)
}

func (e *ExternalStoreError) Unwrap() error { return e.Err }
