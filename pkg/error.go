package pkg

import (
	"errors"
	"fmt"
)

// Exchange layer errors.
var (
	// ErrNotInitialized indicates the controller was used before the
	// underlying driver finished initialization.
	ErrNotInitialized = errors.New("driver not initialized")

	// ErrInvalidArgument indicates a role/configuration mismatch or
	// malformed parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDisconnected indicates a connect attempt resolved to the
	// disconnected event.
	ErrDisconnected = errors.New("disconnected")

	// ErrUnknownMode indicates a role combination that is not modeled.
	ErrUnknownMode = errors.New("unknown wifi mode")

	// ErrQueueFull indicates a receive queue already holds its capacity.
	// It is handled in callback context and never surfaces to consumers.
	ErrQueueFull = errors.New("receive queue full")

	// ErrQueueEmpty indicates a receive token found no packet to dequeue.
	ErrQueueEmpty = errors.New("receive queue empty")

	// ErrTokenConsumed indicates a second use of a single-use token.
	ErrTokenConsumed = errors.New("token already consumed")

	// ErrNoTxCapacity indicates transmit admission was refused.
	ErrNoTxCapacity = errors.New("no transmit capacity")

	// ErrClosed indicates the core was closed.
	ErrClosed = errors.New("closed")
)

// Code is an opaque platform error code returned by the radio driver.
// Codes are passed through to callers unchanged.
type Code int32

// Platform error codes.
const (
	CodeOK             Code = 0
	CodeFail           Code = -1
	CodeNoMem          Code = 0x101  // Out of memory
	CodeInvalidArg     Code = 0x102  // Invalid argument
	CodeInvalidState   Code = 0x103  // Invalid state
	CodeNotSupported   Code = 0x106  // Operation not supported
	CodeWifiNotInit    Code = 0x3001 // Driver was not installed by init
	CodeWifiNotStarted Code = 0x3002 // Driver was not started
	CodeWifiNotStopped Code = 0x3003 // Driver was not stopped
	CodeWifiIf         Code = 0x3004 // Interface error
	CodeWifiMode       Code = 0x3005 // Mode error
	CodeWifiState      Code = 0x3006 // Internal state error
	CodeWifiConn       Code = 0x3007 // Internal control block of station or soft-AP error
	CodeWifiNvs        Code = 0x3008 // Internal NVS module error
	CodeWifiMac        Code = 0x3009 // MAC address is invalid
	CodeWifiSsid       Code = 0x300A // SSID is invalid
	CodeWifiPassword   Code = 0x300B // Password is invalid
	CodeWifiTimeout    Code = 0x300C // Timeout error
	CodeWifiWakeFail   Code = 0x300D // RF closed and wakeup failed
	CodeWifiWouldBlock Code = 0x300E // The caller would block
	CodeWifiNotConnect Code = 0x300F // Station still in disconnect status
	CodeWifiPost       Code = 0x3012 // Failed to post the event to the driver task
	CodeWifiInitState  Code = 0x3013 // Invalid state when init/deinit is called
	CodeWifiStopState  Code = 0x3014 // Returned when the driver is stopping
	CodeWifiNotAssoc   Code = 0x3015 // The connection is not associated
	CodeWifiTxDisallow Code = 0x3016 // Transmit is disallowed
)

// String returns the symbolic name of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeFail:
		return "fail"
	case CodeNoMem:
		return "no memory"
	case CodeInvalidArg:
		return "invalid argument"
	case CodeInvalidState:
		return "invalid state"
	case CodeNotSupported:
		return "not supported"
	case CodeWifiNotInit:
		return "wifi not initialized"
	case CodeWifiNotStarted:
		return "wifi not started"
	case CodeWifiNotStopped:
		return "wifi not stopped"
	case CodeWifiIf:
		return "wifi interface error"
	case CodeWifiMode:
		return "wifi mode error"
	case CodeWifiState:
		return "wifi internal state error"
	case CodeWifiConn:
		return "wifi control block error"
	case CodeWifiNvs:
		return "wifi nvs error"
	case CodeWifiMac:
		return "wifi invalid mac"
	case CodeWifiSsid:
		return "wifi invalid ssid"
	case CodeWifiPassword:
		return "wifi invalid password"
	case CodeWifiTimeout:
		return "wifi timeout"
	case CodeWifiWakeFail:
		return "wifi wake failed"
	case CodeWifiWouldBlock:
		return "wifi would block"
	case CodeWifiNotConnect:
		return "wifi not connected"
	case CodeWifiPost:
		return "wifi event post failed"
	case CodeWifiInitState:
		return "wifi invalid init state"
	case CodeWifiStopState:
		return "wifi stopping"
	case CodeWifiNotAssoc:
		return "wifi not associated"
	case CodeWifiTxDisallow:
		return "wifi tx disallowed"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (c Code) Error() string {
	return fmt.Sprintf("driver error 0x%x (%s)", int32(c), c.String())
}

// Is reports whether the code corresponds to one of the exchange layer
// sentinel errors, so callers can match either form with [errors.Is].
func (c Code) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return c == CodeInvalidArg
	case ErrNotInitialized:
		return c == CodeWifiNotInit
	case ErrUnknownMode:
		return c == CodeWifiMode
	}
	return false
}

// Known returns true if the code is one of the named codes.
func (c Code) Known() bool {
	return c.String() != "unknown"
}

// Result converts a raw platform return value into an error.
// Zero is success; any other value is returned as a [Code].
func Result(raw int32) error {
	if raw == int32(CodeOK) {
		return nil
	}
	return Code(raw)
}

// AsCode extracts the platform code carried by err, if any.
func AsCode(err error) (Code, bool) {
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}
