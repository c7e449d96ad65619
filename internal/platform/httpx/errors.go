// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by the domain layer.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("resource not found")
	ErrValidation    = errors.New("validation failed")
	ErrFetch         = errors.New("snapshot fetch failed")
	ErrWrite         = errors.New("notes write failed")
	ErrNotConfigured = errors.New("not configured")
	ErrUnauthorized  = errors.New("unauthorized")
)

// StatusFor reports the HTTP status a domain error maps to.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrWrite) && errors.Is(err, ErrNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, ErrFetch) && errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, ErrFetch), errors.Is(err, ErrWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusBadRequest:
		Problem(w, status, "Bad Request", err.Error())
	case http.StatusNotFound:
		Problem(w, status, "Not Found", err.Error())
	case http.StatusUnprocessableEntity:
		Problem(w, status, "Validation Failed", err.Error())
	case http.StatusUnauthorized:
		Problem(w, status, "Unauthorized", err.Error())
	case http.StatusNotImplemented:
		Problem(w, status, "Not Implemented", err.Error())
	case http.StatusBadGateway:
		Problem(w, status, "Upstream Error", err.Error())
	default:
		if errors.Is(err, ErrFetch) {
			Problem(w, status, "Snapshot Unavailable", err.Error())
			return
		}
		Problem(w, status, "Internal Error", "")
	}
}
