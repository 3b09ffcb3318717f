package domain

import "errors"

// ErrSessionNotFound is returned when a snapshot cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrBusy is returned when an action is requested while another remote call is outstanding.
var ErrBusy = errors.New("controller is busy")

// ErrTransport is returned when the remote call did not complete or answered with an error status.
var ErrTransport = errors.New("transport failure")

// ErrDecode is returned when the remote answered with a body that cannot be decoded.
var ErrDecode = errors.New("invalid response")

// ErrInvalidTab is returned when an unknown inspector tab is selected.
var ErrInvalidTab = errors.New("invalid inspector tab")
