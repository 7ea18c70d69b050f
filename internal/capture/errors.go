package capture

import (
	"errors"
	"fmt"
)

var (
	ErrTrackingActive    = errors.New("boundary is owned by an active gps track")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrSessionClosed     = errors.New("capture session is closed")
	ErrSessionNotFound   = errors.New("capture session not found")
	ErrSubmitInProgress  = errors.New("submit already in progress")

	ErrLocationUnavailable = errors.New("location unavailable")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location timeout")

	ErrIncompleteBoundary = errors.New("boundary needs at least 3 points")
	ErrMissingField       = errors.New("required field is empty")
	ErrInvalidCoordinates = errors.New("coordinates must be finite numbers")
)

var locationMessages = map[error]string{
	ErrLocationUnavailable: "Геолокация не поддерживается вашим устройством.",
	ErrPermissionDenied:    "Вы запретили доступ к геолокации.",
	ErrPositionUnavailable: "Информация о местоположении недоступна.",
	ErrTimeout:             "Истекло время ожидания запроса геолокации.",
}

const defaultLocationMessage = "Произошла ошибка геолокации."

// LocationError is a failure reported by the location provider. Message is
// meant for the user.
type LocationError struct {
	Code    error
	Message string
}

func NewLocationError(code error) *LocationError {
	msg, ok := locationMessages[code]
	if !ok {
		msg = defaultLocationMessage
	}
	return &LocationError{Code: code, Message: msg}
}

func (e *LocationError) Error() string {
	if e.Code == nil {
		return e.Message
	}
	return e.Code.Error()
}

func (e *LocationError) Unwrap() error {
	return e.Code
}

// asLocationError classifies any provider failure into a LocationError.
func asLocationError(err error) *LocationError {
	var locErr *LocationError
	if errors.As(err, &locErr) {
		return locErr
	}
	for code := range locationMessages {
		if errors.Is(err, code) {
			return NewLocationError(code)
		}
	}
	return &LocationError{Code: err, Message: defaultLocationMessage}
}

// ValidationError rejects a submission before anything leaves the session.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
