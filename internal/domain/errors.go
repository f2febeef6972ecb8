package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidInput marks requests rejected before any computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable is returned when a required trained predictor is not loaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrNotFound is returned by stores when the requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// InvalidInputf wraps ErrInvalidInput with a formatted message.
func InvalidInputf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}
