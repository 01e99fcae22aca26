// Package monitor implements the channel lifecycle engine of the PV monitor.
//
// # Channel Lifecycle
//
//	AddMonitor ──► Connecting ──up──► Connected ─┬─► Subscribed
//	                                             │
//	                  float/double, native ──────┴─► MetadataPending ─┬─► Subscribed
//	                                                                  └─► Failed
//
// Any state moves to Disconnected on a connection-down event and back to the
// state it left when the channel reconnects. A repeated connection-up for a
// channel whose subscription already started never subscribes again; the
// transport owns reconnection and re-establishes its own subscriptions.
//
// # Threading
//
// Engine, Registry, ExceptionGuard and Feed.HandleLine are not safe for
// concurrent use. They are owned by one control goroutine, which also calls
// Transport.PumpEvents; transports run every callback from inside that call.
package monitor
