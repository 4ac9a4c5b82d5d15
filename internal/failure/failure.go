package failure

import (
	"errors"
	"net/http"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var NoChangefeed = &Failure{Code: http.StatusNotImplemented, Message: "backend has no changefeed"}

// Error returns the error message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		}
	}

	return nil
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Code:    http.StatusNotFound,
		Message: entityName,
	}
}

// FromDiary maps a diary client error to a Failure.
func FromDiary(err error) error {
	var fail *Failure
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fail):
		return fail
	case errors.Is(err, model.ErrEmptyName):
		return BadRequest(err)
	case errors.Is(err, store.ErrNotFound):
		return NotFound("item not found")
	}
	return InternalError(err)
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
