package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(label, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func getJSONFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return fieldName
	}

	return strings.Split(jsonTag, ",")[0]
}

func labelForField(jsonField string) string {
	// A Caser is stateful, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(jsonField, "_", " "))
}

// FormatValidationErrors turns binding and validation failures into per-field messages,
// keeping the order in which the validator reported them.
func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	var errorsList []ValidationErrorResponse

	if err == nil {
		return errorsList
	}

	var jsonErr *json.UnmarshalTypeError
	if errors.As(err, &jsonErr) {
		return []ValidationErrorResponse{
			{
				Field:   jsonErr.Field,
				Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", jsonErr.Field, jsonErr.Type, jsonErr.Value),
			},
		}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorsList
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	errorsList = make([]ValidationErrorResponse, len(validationErrors))

	for i, fieldError := range validationErrors {
		jsonField := getJSONFieldName(structType, fieldError.StructField())

		errorsList[i] = ValidationErrorResponse{
			Field:   jsonField,
			Message: msgForTag(labelForField(jsonField), fieldError.Tag(), fieldError.Param()),
		}
	}

	return errorsList
}

// FirstValidationMessage returns the message of the first failing field, or "" when
// err carries no field-level failures.
func FirstValidationMessage(err error, model interface{}) string {
	formatted := FormatValidationErrors(err, model)
	if len(formatted) == 0 {
		return ""
	}

	return formatted[0].Message
}
