package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationError carries per-field messages for a rejected request body.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, envelope{Success: true, Data: data})
}

// WriteError maps err through the taxonomy. Server-side failures are logged
// with their cause; the client only sees the public message.
func WriteError(logger *zap.SugaredLogger, w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	body := &errorBody{Message: PublicMessage(err)}
	var ve *ValidationError
	if errors.As(err, &ve) {
		body.Details = ve.Details
	}
	switch {
	case status == http.StatusBadGateway:
		logger.Warnw("upstream failure", "method", r.Method, "path", r.URL.Path, "err", err)
	case status >= http.StatusInternalServerError:
		logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	default:
		logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	WriteJSON(w, status, envelope{Success: false, Error: body})
}

// DecodeJSON reads a bounded JSON body into dest and runs struct validation.
func DecodeJSON(r *http.Request, dest any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrValidation, err)
	}
	if err := Validator().Struct(dest); err != nil {
		return &ValidationError{Details: ValidationDetails(err)}
	}
	return nil
}
