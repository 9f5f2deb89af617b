package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const internalErrorMessage = "Internal server error"

type ErrorResponse struct {
	Error string `json:"error"`
}

type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type FieldErrorsResponse struct {
	Errors []FieldError `json:"errors"`
}

func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode response (status=%d): %v", statusCode, err)
	}
}

func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondInternal logs the real cause with a stack trace and sends the client
// a generic body.
func RespondInternal(w http.ResponseWriter, err error, message string) {
	log.Printf("ERROR: Internal error - %s: %v\nStack trace:\n%s", message, err, debug.Stack())
	RespondError(w, http.StatusInternalServerError, internalErrorMessage)
}

func RespondFieldErrors(w http.ResponseWriter, fieldErrors []FieldError) {
	RespondJSON(w, http.StatusBadRequest, FieldErrorsResponse{Errors: fieldErrors})
}

// RespondValidationError renders an ozzo validation result as {"errors": [...]}.
// Errors that are not per-field validation failures become a single entry.
func RespondValidationError(w http.ResponseWriter, err error) {
	RespondFieldErrors(w, FieldErrors(err))
}

func FieldErrors(err error) []FieldError {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []FieldError{{Msg: err.Error()}}
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldError, 0, len(fields))
	for _, field := range fields {
		out = append(out, FieldError{Field: field, Msg: errs[field].Error()})
	}
	return out
}
