package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body of every API failure. Detail is usually a
// string; validation failures carry a list of ValidationError.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// ValidationError describes one invalid request field
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes an error response with a string detail
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorResponse{Detail: detail})
}

// WriteValidationError writes a 422 response listing the invalid fields
func WriteValidationError(w http.ResponseWriter, errs ...ValidationError) {
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: errs})
}

// missingField builds the validation error for an absent required field
func missingField(location, field string) ValidationError {
	return ValidationError{
		Loc:  []string{location, field},
		Msg:  "field required",
		Type: "value_error.missing",
	}
}

// invalidInteger builds the validation error for a non-integer path parameter
func invalidInteger(location, field string) ValidationError {
	return ValidationError{
		Loc:  []string{location, field},
		Msg:  "value is not a valid integer",
		Type: "type_error.integer",
	}
}
