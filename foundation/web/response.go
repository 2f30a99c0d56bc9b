package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Respond converts a Go value to JSON and sends it to the client.
func Respond(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {

	// Record the status code for the request if values exist in the context.
	if v, err := GetValues(ctx); err == nil {
		v.StatusCode = statusCode
	}

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// ErrorResponse is the form used for API responses from failures in the API.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// respondError builds the error payload for a failed request and sends it
// to the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var er ErrorResponse
	status := http.StatusInternalServerError

	switch {
	case IsRequestError(err):
		re := GetRequestError(err)
		status = re.Status
		er.Error = re.Error()

		var fields FieldErrors
		if errors.As(re.Err, &fields) {
			er.Fields = fields
		}

	default:
		er.Error = err.Error()
	}

	Respond(ctx, w, er, status)
}
