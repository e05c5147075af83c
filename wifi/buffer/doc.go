// Package buffer holds driver-owned receive buffers between the radio
// callback and the network-stack consumer.
//
// A [Packet] wraps one receive buffer handed over by the driver. It must be
// given back to the driver exactly once, through [Packet.Release]. A [Queue]
// is a bounded FIFO of packets for one interface; the receive callback
// enqueues and the consumer dequeues, both inside the shared
// [critical.Section].
//
// Ownership moves with the pointer:
//
//	driver --OnReceive--> Packet --Enqueue--> Queue --Dequeue--> consumer --Release--> driver
//
// A failed Enqueue leaves ownership with the caller, which must release the
// packet after leaving the critical section. Release is never called from
// inside the section.
package buffer
