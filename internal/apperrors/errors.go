package apperrors

import (
	"errors"
	"net/http"
)

// Sentinel errors for every user-facing failure. Handlers map them onto
// HTTP statuses; services wrap them with fmt.Errorf("%w: detail").
var (
	ErrInvalidArg   = errors.New("invalid argument")
	ErrInvalidName  = errors.New("invalid name")
	ErrNameReserved = errors.New("name is reserved")
	ErrNameTaken    = errors.New("name is already taken")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrIllegalMove  = errors.New("illegal move")
	ErrInternal     = errors.New("internal error")
)

// HTTPStatus maps an error to its transport status code. Unknown errors are
// reported as 500 with generic text; specifics stay in the server log.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArg), errors.Is(err, ErrInvalidName), errors.Is(err, ErrIllegalMove):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNameTaken), errors.Is(err, ErrNameReserved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for an error. Internal errors get
// generic text so invariant details never leak.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
