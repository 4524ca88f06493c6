package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error kinds returned by every registry and workflow operation.
// Match them with errors.Is; use errors.As with *CatastoError for details.
var (
	ErrNotFound         = errors.New("not found")
	ErrUniqueConstraint = errors.New("unique constraint violated")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
	ErrDependency       = errors.New("dependent records exist")
)

// CatastoError carries the entity and id an error refers to
type CatastoError struct {
	Kind   error
	Entity string
	ID     interface{}
	Detail string
}

func (e *CatastoError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != nil {
			fmt.Fprintf(&b, " %v", e.ID)
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *CatastoError) Unwrap() error {
	return e.Kind
}

func notFound(entity string, id interface{}) error {
	return &CatastoError{Kind: ErrNotFound, Entity: entity, ID: id}
}

func uniqueViolation(entity, detail string) error {
	return &CatastoError{Kind: ErrUniqueConstraint, Entity: entity, Detail: detail}
}

func invalidState(entity string, id interface{}, detail string) error {
	return &CatastoError{Kind: ErrInvalidState, Entity: entity, ID: id, Detail: detail}
}

func validationError(detail string, args ...interface{}) error {
	return &CatastoError{Kind: ErrValidation, Detail: fmt.Sprintf(detail, args...)}
}

func dependencyError(entity string, id interface{}, detail string) error {
	return &CatastoError{Kind: ErrDependency, Entity: entity, ID: id, Detail: detail}
}

// translateDBError maps store errors onto the error kinds. Errors that already
// carry a kind pass through untouched.
func translateDBError(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}
	var ce *CatastoError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	if isUniqueViolation(err) {
		return &CatastoError{Kind: ErrUniqueConstraint, Entity: entity, ID: id, Detail: "duplicate key"}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// ErrorKind returns the kind name used by transports, or "" for internal errors
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUniqueConstraint):
		return "unique_constraint"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDependency):
		return "dependency"
	}
	return ""
}
