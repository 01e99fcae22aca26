// Package pvclient is the client side of the PV data protocol. A Client
// implements monitor.Transport on top of one session per known server.
//
// Channels are resolved by name: every search interval the client sends a
// create-channel request for each unbound channel to every connected
// server, and the first server that knows the name wins. Losing a session
// unbinds its channels, reports them down and puts them back into the
// search. Subscriptions survive and are re-issued on the next bind.
//
// All callbacks are queued and run from PumpEvents on the caller's
// goroutine:
//
//	read loop / timers ──enqueue──> queue ──PumpEvents──> handlers
//	                          └──> Ready() signalled
package pvclient
