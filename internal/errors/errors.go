package errors

import (
	stderrors "errors"
	"net/http"
)

// Domain error kinds. Services return these (possibly wrapped with %w) and
// handlers translate them to HTTP status codes with StatusFor.
var (
	ErrSpotNotFound               = stderrors.New("parking spot not found")
	ErrSpotUnavailable            = stderrors.New("parking spot is not available")
	ErrReservationNotFound        = stderrors.New("reservation not found")
	ErrDuplicateActiveReservation = stderrors.New("spot already has an active reservation")
	ErrInvalidTransition          = stderrors.New("reservation status does not allow this operation")
	ErrInvalidInterval            = stderrors.New("exit time must be after entry time")
	ErrTransactionFailed          = stderrors.New("storage transaction failed, retry the operation")

	ErrCustomerNotFound = stderrors.New("customer not found")
	ErrOperatorNotFound = stderrors.New("operator not found")
	ErrVehicleNotFound  = stderrors.New("vehicle not found")
	ErrPaymentNotFound  = stderrors.New("payment not found")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusFor maps a domain error to the HTTP status the handlers respond with.
func StatusFor(err error) int {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case stderrors.Is(err, ErrSpotNotFound),
		stderrors.Is(err, ErrReservationNotFound),
		stderrors.Is(err, ErrCustomerNotFound),
		stderrors.Is(err, ErrOperatorNotFound),
		stderrors.Is(err, ErrVehicleNotFound),
		stderrors.Is(err, ErrPaymentNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrSpotUnavailable),
		stderrors.Is(err, ErrDuplicateActiveReservation),
		stderrors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidInterval):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, ErrTransactionFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely retry the failed call.
// Only TransactionFailed qualifies; every other kind needs caller intervention.
func Retryable(err error) bool {
	return stderrors.Is(err, ErrTransactionFailed)
}

var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
)
