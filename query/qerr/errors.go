// Package qerr defines the error taxonomy shared by the compiler,
// the execution client and the repository.
package qerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches exactly one of them
// through errors.Is.
var (
	// ErrValidation is returned when a required input is missing.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedCondition is returned when a condition has a bad operator or value shape.
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrTransient is returned when a classified network or connection fault
	// survived every retry attempt.
	ErrTransient = errors.New("transient execution error")

	// ErrPermanent is returned for execution failures that are never retried.
	ErrPermanent = errors.New("permanent execution error")

	// ErrTransaction is returned when BEGIN, COMMIT or ROLLBACK fails.
	ErrTransaction = errors.New("transaction error")

	// ErrTxDone is returned when a transaction handle is used after it was released.
	ErrTxDone = errors.New("transaction already committed or rolled back")
)

// ValidationError reports a missing or invalid required input.
type ValidationError struct {
	Operation string
	Field     string
	Reason    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is required"
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s %s", e.Operation, e.Field, reason)
	}
	return fmt.Sprintf("%s %s", e.Field, reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Missing returns a ValidationError for a missing required input.
func Missing(op, field string) *ValidationError {
	return &ValidationError{Operation: op, Field: field}
}

// MalformedConditionError reports a condition that cannot be compiled
// into valid SQL.
type MalformedConditionError struct {
	Field    string
	Operator string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedConditionError) Error() string {
	return fmt.Sprintf("malformed condition on %q (%s): %s", e.Field, e.Operator, e.Reason)
}

// Is reports whether target is ErrMalformedCondition.
func (e *MalformedConditionError) Is(target error) bool {
	return target == ErrMalformedCondition
}

// Malformed returns a MalformedConditionError.
func Malformed(field, operator, format string, args ...any) *MalformedConditionError {
	return &MalformedConditionError{
		Field:    field,
		Operator: operator,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// ExecutionError wraps a failure reported by the database collaborator.
type ExecutionError struct {
	// Transient is true when the failure was classified as a retryable fault.
	Transient bool
	// Code is the normalized error code, empty for unclassified failures.
	Code string
	// Attempts is the number of attempts made before the error surfaced.
	Attempts int
	Query    string
	Cause    error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s execution error [%s] after %d attempt(s): %v", kind, e.Code, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%s execution error after %d attempt(s): %v", kind, e.Attempts, e.Cause)
}

// Unwrap returns the underlying driver error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTransient or ErrPermanent depending on the classification.
func (e *ExecutionError) Is(target error) bool {
	if e.Transient {
		return target == ErrTransient
	}
	return target == ErrPermanent
}

// TxPhase names the transaction statement that failed.
type TxPhase string

const (
	PhaseBegin    TxPhase = "BEGIN"
	PhaseCommit   TxPhase = "COMMIT"
	PhaseRollback TxPhase = "ROLLBACK"
	PhaseAcquire  TxPhase = "ACQUIRE"
	PhaseRelease  TxPhase = "RELEASE"
)

// TransactionError reports a failure during the transaction lifecycle.
type TransactionError struct {
	Phase TxPhase
	Cause error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrTransaction.
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsMalformed reports whether err is a malformed condition.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedCondition)
}

// IsTransient reports whether err is a transient execution failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsTransaction reports whether err came from the transaction lifecycle.
func IsTransaction(err error) bool {
	return errors.Is(err, ErrTransaction)
}
