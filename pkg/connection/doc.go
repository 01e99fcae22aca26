// Package connection keeps a client session to one PV data server alive.
//
// A Manager owns a connect function and re-runs it with exponential
// backoff whenever the session is reported lost:
//
//	delay = base + random(0, base * Jitter)
//	base  = 0.5s, 1s, 2s, 4s, ... capped at Max (default 30s)
//
// The base resets after every successful connect. Channel state above the
// session (which channels to re-create, which subscriptions to re-issue) is
// the caller's business; it hooks OnConnected.
package connection
