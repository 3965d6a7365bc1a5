package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by the billing error taxonomy
const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeReferentialIntegrity = "REFERENTIAL_INTEGRITY"
	CodeTransactionFailed    = "TRANSACTION_FAILED"
)

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
)

// FieldViolation is a single rule failure attached to a named field
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule of a rejected candidate
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

// NewValidationError creates a validation error from the given violations
func NewValidationError(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Code returns the error code
func (e *ValidationError) Code() string {
	return CodeValidationFailed
}

// HasField reports whether any violation is attached to field
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// NotFoundError reports a missing record
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

// NewNotFoundError creates a not-found error for the given resource
func NewNotFoundError(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ReferentialIntegrityError reports a delete blocked by dependent records
type ReferentialIntegrityError struct {
	Resource  string
	ID        uuid.UUID
	Dependent string
	Count     int64
}

// NewReferentialIntegrityError creates a referential integrity error
func NewReferentialIntegrityError(resource string, id uuid.UUID, dependent string, count int64) *ReferentialIntegrityError {
	return &ReferentialIntegrityError{
		Resource:  resource,
		ID:        id,
		Dependent: dependent,
		Count:     count,
	}
}

// Error implements the error interface
func (e *ReferentialIntegrityError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("%s %s is referenced by %d %s", e.Resource, e.ID, e.Count, e.Dependent)
	}
	return fmt.Sprintf("%s %s is referenced by %s", e.Resource, e.ID, e.Dependent)
}

// Code returns the error code
func (e *ReferentialIntegrityError) Code() string {
	return CodeReferentialIntegrity
}

// TransactionError reports a unit of work the store rejected or rolled back
type TransactionError struct {
	Op  string
	Err error
}

// NewTransactionError wraps err as a failed transaction for op
func NewTransactionError(op string, err error) *TransactionError {
	return &TransactionError{Op: op, Err: err}
}

// Error implements the error interface
func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Code returns the error code
func (e *TransactionError) Code() string {
	return CodeTransactionFailed
}

// IsBusinessError reports whether err is one of the taxonomy errors that must
// reach the caller unchanged instead of being wrapped as a transaction failure.
func IsBusinessError(err error) bool {
	var (
		validationErr  *ValidationError
		notFoundErr    *NotFoundError
		integrityErr   *ReferentialIntegrityError
		transactionErr *TransactionError
		domainErr      *DomainError
	)
	return errors.As(err, &validationErr) ||
		errors.As(err, &notFoundErr) ||
		errors.As(err, &integrityErr) ||
		errors.As(err, &transactionErr) ||
		errors.As(err, &domainErr)
}
