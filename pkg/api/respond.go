package api

import (
	"encoding/json"
	"net/http"

	"github.com/tcmclinic/telemed/pkg/types"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusOK, message, data)
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusCreated, message, data)
}

// Write writes a success envelope with the given status code.
func Write(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error classifies err through the taxonomy and writes a failure envelope.
// Internal causes never reach the wire; the client sees a generic message.
func Error(w http.ResponseWriter, err error) {
	app := types.AsAppError(err)
	message := app.Message
	if app.Kind == types.ErrorKindInternal {
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(app.HTTPStatus())
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Message: message,
	})
}

// Decode reads a JSON request body into dest.
func Decode(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return types.NewValidationError("invalid request body")
	}
	return nil
}
