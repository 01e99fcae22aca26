// Package pvserver serves process variables to pvclient over the framed
// CBOR protocol of pkg/wire.
//
// A Server holds a set of records. Clients bind a record by name
// (create-channel), read its graphic metadata, and subscribe to value
// updates in any of the time request kinds; the server converts the
// native value to the requested kind. Set, SetAlarm, SetAccess and
// Remove push events to every bound client.
//
// The Simulator drives records from a list of Definitions (ramps, waves,
// toggling enums, counters) and backs the pvd-sim binary.
package pvserver
