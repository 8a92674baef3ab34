package common

import (
	"errors"
	"net/http"
)

var (
	// input errors
	ErrValidation = errors.New("validation error")

	// uniqueness errors
	ErrDuplicateEmail           = errors.New("email already registered")
	ErrDuplicateExternalAccount = errors.New("external account already registered")

	// auth errors; unknown email and wrong password share ErrInvalidCredentials
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// ownership failure and absence are the same condition
	ErrNotFoundOrForbidden = errors.New("not found")

	ErrEnrichmentFailed = errors.New("enrichment failed")
	ErrStorage          = errors.New("storage error")
)

type errorMeta struct {
	status  int
	message string
}

// ordered so the first match wins for errors wrapping several sentinels
var errorTable = []struct {
	err  error
	meta errorMeta
}{
	{ErrValidation, errorMeta{http.StatusBadRequest, "invalid request"}},
	{ErrDuplicateEmail, errorMeta{http.StatusConflict, "email already registered"}},
	{ErrDuplicateExternalAccount, errorMeta{http.StatusConflict, "global seller already registered"}},
	{ErrInvalidCredentials, errorMeta{http.StatusUnauthorized, "invalid credentials"}},
	{ErrUnauthorized, errorMeta{http.StatusUnauthorized, "unauthorized"}},
	{ErrNotFoundOrForbidden, errorMeta{http.StatusNotFound, "not found"}},
	{ErrEnrichmentFailed, errorMeta{http.StatusBadGateway, "could not fetch marketplace profile"}},
}

func lookup(err error) errorMeta {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.meta
		}
	}
	return errorMeta{http.StatusInternalServerError, "internal error"}
}

// HTTPStatus maps an error from the service layer to a response status.
func HTTPStatus(err error) int { return lookup(err).status }

// PublicMessage returns the caller-safe message for err. Upstream and
// storage details never leave the process.
func PublicMessage(err error) string { return lookup(err).message }
