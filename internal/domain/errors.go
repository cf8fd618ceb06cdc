package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingNotActive    = errors.New("booking is not active")
	ErrServiceNotFound     = errors.New("service not found")
	ErrValidation          = errors.New("validation error")
	ErrScheduleBusy        = errors.New("schedule is being changed by another request")
)

// UpstreamError marks a failure of the availability source or the booking
// store. It matches ErrUpstreamUnavailable and unwraps to the original error.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// Upstream wraps err as an UpstreamError unless it already is one.
func Upstream(source string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Source: source, Err: err}
}
