package qerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := Missing("insert", "table")
	assert.Equal(t, "insert: table is required", err.Error())
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsMalformed(err))

	bare := &ValidationError{Field: "id", Reason: "must not be empty"}
	assert.Equal(t, "id must not be empty", bare.Error())
}

func TestMalformedConditionError(t *testing.T) {
	err := Malformed("age", "BETWEEN", "value must contain exactly %d elements", 2)
	assert.Equal(t, `malformed condition on "age" (BETWEEN): value must contain exactly 2 elements`, err.Error())
	assert.True(t, IsMalformed(err))
	assert.False(t, IsValidation(err))
}

func TestExecutionError(t *testing.T) {
	transient := &ExecutionError{Transient: true, Code: "ECONNRESET", Attempts: 4, Cause: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(transient, ErrTransient))
	assert.False(t, errors.Is(transient, ErrPermanent))
	assert.True(t, errors.Is(transient, io.ErrUnexpectedEOF))
	assert.Contains(t, transient.Error(), "[ECONNRESET]")
	assert.Contains(t, transient.Error(), "4 attempt(s)")

	permanent := &ExecutionError{Attempts: 1, Cause: errors.New("syntax error")}
	assert.True(t, errors.Is(permanent, ErrPermanent))
	assert.False(t, IsTransient(permanent))
	assert.Equal(t, "permanent execution error after 1 attempt(s): syntax error", permanent.Error())
}

func TestTransactionError(t *testing.T) {
	cause := errors.New("connection closed")
	err := &TransactionError{Phase: PhaseCommit, Cause: cause}
	assert.Equal(t, "transaction COMMIT failed: connection closed", err.Error())
	assert.True(t, IsTransaction(err))
	assert.ErrorIs(t, err, cause)

	done := &TransactionError{Phase: PhaseRelease, Cause: ErrTxDone}
	assert.ErrorIs(t, done, ErrTxDone)
}
