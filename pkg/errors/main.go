package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusConflict            = 409
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

const (
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
	ErrorTypeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrorTypeRequestTimeout      = "REQUEST_TIMEOUT"
	ErrorTypeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// SQLSTATE raised by Postgres on a unique constraint violation.
const pgUniqueViolation = "23505"

type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(ErrorTypeConflict, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

func NewServiceUnavailableError(message string, err error) *AppError {
	return NewAppError(ErrorTypeServiceUnavailable, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

func IsErrorType(err error, errType string) bool {
	return GetErrorType(err) == errType
}

// IsDuplicateKeyError recognises unique violations from the drivers we ship with.
// gorm's translated ErrDuplicatedKey is checked by callers that import gorm.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint failed") ||
		strings.Contains(errMsg, "duplicate key value violates unique constraint")
}
