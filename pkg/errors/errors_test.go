package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name       string  `json:"name" validate:"required,max=5"`
	Email      string  `json:"email" validate:"required,email"`
	Suggestion *string `json:"suggestion" validate:"omitempty,max=3"`
}

func TestFormatValidationErrors_UsesJSONNamesInOrder(t *testing.T) {
	err := validator.New().Struct(&signup{Name: "", Email: "nope"})

	formatted := FormatValidationErrors(err, &signup{})

	assert.Len(t, formatted, 2)
	assert.Equal(t, "name", formatted[0].Field)
	assert.Equal(t, "Name is required", formatted[0].Message)
	assert.Equal(t, "email", formatted[1].Field)
	assert.Equal(t, "Invalid email address", formatted[1].Message)
}

func TestFirstValidationMessage_MaxLength(t *testing.T) {
	long := "abcd"
	err := validator.New().Struct(&signup{Name: "Bo", Email: "bo@example.com", Suggestion: &long})

	assert.Equal(t, "Suggestion must not exceed 3 characters", FirstValidationMessage(err, &signup{}))
}

func TestFirstValidationMessage_NoFieldErrors(t *testing.T) {
	assert.Equal(t, "", FirstValidationMessage(errors.New("EOF"), &signup{}))
	assert.Equal(t, "", FirstValidationMessage(nil, &signup{}))
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewInvalidRequestError("bad", nil), StatusBadRequest},
		{NewConflictError("dup", nil), StatusConflict},
		{NewNotFoundError("missing", nil), StatusNotFound},
		{NewInternalServerError("boom", nil), StatusInternalServerError},
		{NewDatabaseError("db", nil), StatusInternalServerError},
		{NewServiceUnavailableError("open", nil), StatusServiceUnavailable},
		{errors.New("plain"), StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewConflictError("dup", nil)), StatusConflict},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}

func TestGetHumanReadableMessage_DoesNotLeakCause(t *testing.T) {
	err := NewInternalServerError("Failed to join waitlist. Please try again later.", errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	assert.Equal(t, "Failed to join waitlist. Please try again later.", GetHumanReadableMessage(err))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(errors.New("pq: secret")))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23502"}))
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: waitlist_entries.email")))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyError(nil))
}
