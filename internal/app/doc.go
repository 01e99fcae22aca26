// Package app wires the monitor programs together and runs their control
// loop.
//
// One goroutine owns the engine, the registry, the action dispatcher and
// the child supervisor. It wakes up when the transport has queued
// callbacks, when a command line arrives, once per tick to reap finished
// actions, and when the context ends. Termination signals cancel the
// context; the loop then closes the engine and returns.
package app
