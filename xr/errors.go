package xr

import "errors"

var (
	// ErrNotSupported reports a session or reference space mode the device
	// cannot provide.
	ErrNotSupported = errors.New("xr: not supported")
	// ErrInvalidState reports an operation on an ended session or frame, or
	// a second exclusive session.
	ErrInvalidState = errors.New("xr: invalid state")
)
