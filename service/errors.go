package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// Error kinds as reported to clients and in batch outcomes
const (
	KindUnauthorized     = "unauthorized"
	KindNotFound         = "not_found"
	KindInvalidReference = "invalid_reference"
	KindInvalidInput     = "invalid_input"
	KindNoSelection      = "no_selection"
	KindConflict         = "conflict"
	KindPersistence      = "persistence"
)

// UnauthorizedError is returned when the actor lacks the capability or the
// ownership an operation requires.
type UnauthorizedError struct {
	Capability model.Capability
	Reason     string
}

func (e UnauthorizedError) Error() string {
	if e.Reason != "" {
		return "unauthorized: " + e.Reason
	}
	return fmt.Sprintf("unauthorized: missing capability '%s'", e.Capability)
}

// NotFoundError is returned when the addressed record does not exist.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InvalidReferenceError is returned when a foreign reference of the input
// does not resolve.
type InvalidReferenceError struct {
	Field string
	IDs   []uint
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference '%s': %v does not exist", e.Field, e.IDs)
}

// InvalidInputError carries the per-field validation messages of an input.
type InvalidInputError struct {
	Fields map[string]string
}

func (e InvalidInputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// NoSelectionError is returned by batch operations called without ids.
type NoSelectionError struct{}

func (NoSelectionError) Error() string {
	return "no records selected"
}

// ConflictError is returned when a record changed since the client read it.
type ConflictError struct {
	Resource string
	ID       uint
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %d was changed by someone else", e.Resource, e.ID)
}

// PersistenceError wraps a failure of the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Err)
}

// Unwrap returns the store error
func (e PersistenceError) Unwrap() error {
	return e.Err
}

// Kind returns the error kind of err, or "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		unauthorized UnauthorizedError
		notFound     NotFoundError
		invalidRef   InvalidReferenceError
		invalidInput InvalidInputError
		noSelection  NoSelectionError
		conflict     ConflictError
	)
	switch {
	case errors.As(err, &unauthorized):
		return KindUnauthorized
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &invalidRef):
		return KindInvalidReference
	case errors.As(err, &invalidInput):
		return KindInvalidInput
	case errors.As(err, &noSelection):
		return KindNoSelection
	case errors.As(err, &conflict):
		return KindConflict
	default:
		return KindPersistence
	}
}

// translate maps store errors onto the service taxonomy
func translate(err error, op, resource string, id uint) error {
	if err == nil {
		return nil
	}
	var (
		notFound model.NotFoundError
		conflict model.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		return NotFoundError{
			Resource: resource,
			ID:       id,
		}
	case errors.As(err, &conflict):
		return ConflictError{
			Resource: resource,
			ID:       id,
		}
	}
	return PersistenceError{
		Op:  op,
		Err: err,
	}
}
