package smd

import (
	"errors"
	"fmt"
)

// ErrUnknownFrame is returned when a frame name or value cannot be understood.
var ErrUnknownFrame = errors.New("unknown frame")

// ConfigurationError is returned when a configuration unit is invalid: an unknown type name or
// an out-of-range parameter. It is fatal to that unit only.
type ConfigurationError struct {
	Unit string // e.g. "integrator", "dynamics.terms[2]"
	Key  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration %s: %s", e.Unit, e.Err)
	}
	return fmt.Sprintf("configuration %s.%s: %s", e.Unit, e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(unit, key, format string, args ...interface{}) error {
	return &ConfigurationError{Unit: unit, Key: key, Err: fmt.Errorf(format, args...)}
}

// InitializationError is returned when a propagator cannot be initialized, e.g. it lacks a
// required component or was given an invalid initial condition. The trajectory is unusable
// but nothing else is affected.
type InitializationError struct {
	Component string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization of %s failed: %s", e.Component, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// RangeError is a hard failure for a quantity outside of its supported domain, like an
// ephemeris epoch out of span or a decayed orbit.
type RangeError struct {
	Quantity string
	Err      error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range: %s", e.Quantity, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }
