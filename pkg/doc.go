// Package pkg provides shared utilities for the softwifi exchange layer.
//
// This package contains common functionality used by the queue, admission,
// event and controller packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for exchange layer failures
//   - Opaque platform error codes returned by the radio driver
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentController, "sta connected", "ssid", ssid)
//
// Nothing in the exchange layer logs while the critical section is held.
//
// # Errors
//
// Exchange layer errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrDisconnected) {
//	    // Retry the association
//	}
//
// Driver failures are returned as a [Code], wrapped with the name of the
// operation that failed. [AsCode] recovers the raw code.
package pkg
