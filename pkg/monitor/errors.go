package monitor

import "errors"

// Engine errors.
var (
	ErrRegistryFull    = errors.New("channel registry full")
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidHandle   = errors.New("invalid channel handle")
	ErrNotConnected    = errors.New("not connected")
	ErrEngineClosed    = errors.New("engine closed")
)

// Formatting errors.
var (
	ErrUpdateFailed = errors.New("update failed")
	ErrNoPrecision  = errors.New("no display precision for floating point value")
	ErrUnknownValue = errors.New("unknown value type")
)
