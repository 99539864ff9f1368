package errors

import (
	"net/http"

	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// AppError is an application error carrying the HTTP status code and the
// machine readable status along with the human readable message.
type AppError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *AppError) Error() string {
	return e.Message
}

// New creates an application error.
func New(httpStatusCode int, stat string, message string) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         stat,
		Message:        message,
	}
}

// Destruct breaks an error down into its application error parts. Errors
// that are not application errors are treated as internal server errors.
func Destruct(err error) AppError {
	if ae, ok := err.(*AppError); ok {
		return *ae
	}

	return AppError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
