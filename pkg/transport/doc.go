// Package transport carries wire envelopes between pvclient and pvserver.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR envelopes (wire)     │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   TLS 1.3 (optional)           │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Keep-Alive
//
// The client pings every PingInterval; the server answers each ping with a
// pong carrying the same sequence. After MaxMissedPongs unanswered pings
// the connection is considered dead and the client reconnects.
package transport
