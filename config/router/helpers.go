package router

import (
	"net/http"

	"github.com/metll/metll-backend/internal/log"
	apperrors "github.com/metll/metll-backend/pkg/errors"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	}
}

func CreatedResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusCreated,
		Data:       data,
		Message:    message,
	}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Data:       data,
		Message:    "Too many requests. Please try again later.",
	}
}

func BadRequestResult(message string) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message, nil)
}

func NotFoundResult(message string) *ServiceResult {
	return ErrorResult(http.StatusNotFound, message, nil)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return ErrorResult(http.StatusInternalServerError, message, nil)
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// ErrorResultFrom maps an application error to its status and client-safe message.
func ErrorResultFrom(err error) *ServiceResult {
	return ErrorResult(
		apperrors.HTTPStatusCode(err),
		apperrors.GetHumanReadableMessage(err),
		nil,
	)
}
