// Package wifi is the exchange layer between a radio driver running in
// callback context and a network stack running in task context.
//
// It is platform-agnostic and reaches the radio through the [hal.Driver]
// interface defined in [github.com/ardnew/softwifi/wifi/hal].
//
// # Architecture
//
//   - [Core] owns the per-interface receive queues, the transmit admission
//     counter, the event registry and the role states, all guarded by one
//     critical section. It implements the driver callbacks.
//   - [Device] is the network-stack view of one interface. It mints
//     single-use [RxToken] and [TxToken] values.
//   - [Controller] drives start, stop, connect, disconnect and scan by
//     issuing driver commands and waiting for the matching events.
//
// # Data Path
//
// Received frames are queued per interface and released to the driver
// after the consumer is done with them. A full queue drops the frame and
// releases it immediately; the driver is never blocked:
//
//	rx, tx, ok := dev.Receive()
//	if ok {
//	    err := rx.Consume(func(frame []byte) error {
//	        return stack.Input(frame)
//	    })
//	    ...
//	}
//
// Transmit admission bounds the frames in flight at the radio. A
// [TxToken] takes a grant when consumed and the driver's completion
// returns it:
//
//	if tx, ok := dev.Transmit(); ok {
//	    err := tx.Consume(len(pkt), func(frame []byte) error {
//	        copy(frame, pkt)
//	        return nil
//	    })
//	}
//
// # Role States
//
// Each role follows:
//
//	Idle → Starting → Started → (Connecting → Connected | Disconnected) → Stopping → Idle
//
// The soft-AP role uses only Idle, Starting, Started and Stopping.
//
// # Waiting
//
// Every waiting operation takes a [context.Context]. Cancelling it
// abandons the wait without side effects, except that an abandoned
// [Controller.Scan] frees the driver's result list. Poll-driven network
// stacks use [Device.PollReceive], [Device.PollTransmit] and
// [Device.LinkState] with their own [wake.Waker].
package wifi
