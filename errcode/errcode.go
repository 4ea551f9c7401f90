package errcode

import (
	"errors"
	"strings"

	"ulpsense-go/drivers/bme280"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"

	// Transport
	Nack      Code = "nack"
	BusError  Code = "bus_error"
	WrongChip Code = "wrong_chip"

	// Acquisition
	NotCalibrated Code = "not_calibrated"
	NotRunning    Code = "not_running"
	SensorFault   Code = "sensor_fault"
	Degenerate    Code = "degenerate_reading"
	CorruptState  Code = "corrupt_state"
	CorruptFrame  Code = "corrupt_frame"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, Nack) match an *E carrying that code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E for op, or nil if err is nil. The code is derived with
// MapDriverErr.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: MapDriverErr(err), Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
// Extend the heuristics per platform/driver.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, bme280.ErrTimeout), errors.Is(err, bme280.ErrNotReady):
		return Timeout
	case errors.Is(err, bme280.ErrWrongChip):
		return WrongChip
	}
	if c := Of(err); c != Error {
		return c
	}
	// TinyGo and Linux I2C backends report a missing acknowledge only in
	// the error text.
	if msg := strings.ToLower(err.Error()); strings.Contains(msg, "nack") ||
		strings.Contains(msg, "no ack") || strings.Contains(msg, "ack expected") {
		return Nack
	}
	return BusError
}
