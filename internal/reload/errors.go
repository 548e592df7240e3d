package reload

import (
	"errors"
)

// ErrDispatch marks reload requests that never reached the reload server.
var ErrDispatch = errors.New("browsersync reload request could not be dispatched")

// DispatchError carries the transport error of a reload request that could not be sent.
type DispatchError struct {
	URL string
	Err error
}

func (e *DispatchError) Error() string {
	return "browsersync reload failed: " + e.Err.Error()
}

// Unwrap exposes both ErrDispatch and the transport error to errors.Is / errors.As.
func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatch, e.Err}
}
