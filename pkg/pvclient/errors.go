package pvclient

import "errors"

// Client errors.
var (
	ErrClosed        = errors.New("client closed")
	ErrUnknownHandle = errors.New("unknown channel handle")
	ErrNotBound      = errors.New("channel not connected")
	ErrSessionLost   = errors.New("server session lost")
	ErrTimeout       = errors.New("request timed out")
	ErrRequestFailed = errors.New("request failed")
)
