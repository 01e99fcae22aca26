// Package pv defines the vocabulary shared by the monitor core and the
// transports that feed it: channel handles, field types, request kinds,
// the closed Value sum type, alarm tables and the callback signatures a
// transport invokes.
//
// # Field Types
//
// Field types follow the classic control-system numbering:
//
//	0 string   1 short   2 float   3 enum
//	4 char     5 long    6 double
//
// A channel that has not connected yet reports FieldTypeNotConnected.
//
// # Values
//
// Every update carries a Value. Value is sealed: only the seven variants
// declared in this package implement it, so a type switch over the
// variants is exhaustive.
package pv
