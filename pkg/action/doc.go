// Package action runs an external program whenever a monitored value
// changes.
//
// The Dispatcher drops updates equal to the last value seen for a channel
// and hands the rest to a Supervisor, which starts the program as
//
//	<script> <channel name> <value>     (argv[0] is "user_script")
//
// without waiting for it. Each child is waited for on its own goroutine;
// the exits are collected by Reap from the control loop. Invocations may
// overlap when the value changes faster than the program runs.
package action
