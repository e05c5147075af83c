// Package hal defines the contract between the exchange layer and a radio
// driver.
//
// The contract has two directions:
//
//   - [Driver] is implemented by the platform and called by the exchange
//     layer from task context to configure the radio, issue commands and
//     submit frames.
//   - [Callbacks] is implemented by the exchange layer and called by the
//     driver from its interrupt or callback context to deliver received
//     frames, transmit completions and events.
//
// Callback methods never block. A driver may call [Driver.FreeRxBuffer]
// re-entrantly from within [Callbacks.OnReceive] and must tolerate it.
//
// Every Driver method may fail with an opaque platform code; see
// [github.com/ardnew/softwifi/pkg.Code].
//
// # Implementing a Driver
//
// To bind a new radio:
//
//  1. Create a type that implements all [Driver] methods
//  2. Store the [Callbacks] passed to Init and invoke them from the radio's
//     completion context
//  3. Keep every received buffer alive until FreeRxBuffer is called with
//     its handle
//  4. Report every started transmit exactly once through
//     OnTransmitComplete
//
// A simulated radio for tests and examples is available in
// [github.com/ardnew/softwifi/wifi/hal/sim].
package hal
