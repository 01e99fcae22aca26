package pv

import (
	"fmt"
	"time"
)

// Handle identifies a channel inside a transport. The zero value is never
// assigned to a live channel.
type Handle uint32

// NoHandle marks a free registry slot or an unknown channel.
const NoHandle Handle = 0

// SubscriptionID identifies one value subscription on a channel.
type SubscriptionID uint32

// FieldType is the native type of a channel's value.
type FieldType int8

const (
	FieldTypeString FieldType = 0
	FieldTypeShort  FieldType = 1
	FieldTypeFloat  FieldType = 2
	FieldTypeEnum   FieldType = 3
	FieldTypeChar   FieldType = 4
	FieldTypeLong   FieldType = 5
	FieldTypeDouble FieldType = 6

	// FieldTypeNotConnected is reported before the first connection.
	FieldTypeNotConnected FieldType = -1
)

// String returns the field type name.
func (t FieldType) String() string {
	switch t {
	case FieldTypeString:
		return "STRING"
	case FieldTypeShort:
		return "SHORT"
	case FieldTypeFloat:
		return "FLOAT"
	case FieldTypeEnum:
		return "ENUM"
	case FieldTypeChar:
		return "CHAR"
	case FieldTypeLong:
		return "LONG"
	case FieldTypeDouble:
		return "DOUBLE"
	case FieldTypeNotConnected:
		return "NOT_CONNECTED"
	default:
		return fmt.Sprintf("FieldType(%d)", int8(t))
	}
}

// IsValid reports whether t is one of the seven native types.
func (t FieldType) IsValid() bool {
	return t >= FieldTypeString && t <= FieldTypeDouble
}

// IsFloating reports whether values of this type need a display precision.
func (t FieldType) IsFloating() bool {
	return t == FieldTypeFloat || t == FieldTypeDouble
}

// ParseFieldType parses a field type name as produced by String.
func ParseFieldType(s string) (FieldType, error) {
	for t := FieldTypeString; t <= FieldTypeDouble; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return FieldTypeNotConnected, fmt.Errorf("unknown field type %q", s)
}

// RequestKind selects the representation a subscription or read delivers.
type RequestKind uint8

const (
	RequestTimeString RequestKind = iota + 1
	RequestTimeShort
	RequestTimeFloat
	RequestTimeEnum
	RequestTimeChar
	RequestTimeLong
	RequestTimeDouble

	// RequestGrFloat reads graphic metadata (precision, units).
	RequestGrFloat
)

// String returns the request kind name.
func (k RequestKind) String() string {
	switch k {
	case RequestTimeString:
		return "TIME_STRING"
	case RequestTimeShort:
		return "TIME_SHORT"
	case RequestTimeFloat:
		return "TIME_FLOAT"
	case RequestTimeEnum:
		return "TIME_ENUM"
	case RequestTimeChar:
		return "TIME_CHAR"
	case RequestTimeLong:
		return "TIME_LONG"
	case RequestTimeDouble:
		return "TIME_DOUBLE"
	case RequestGrFloat:
		return "GR_FLOAT"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// FieldType returns the field type a time request delivers.
func (k RequestKind) FieldType() FieldType {
	switch k {
	case RequestTimeString:
		return FieldTypeString
	case RequestTimeShort:
		return FieldTypeShort
	case RequestTimeFloat, RequestGrFloat:
		return FieldTypeFloat
	case RequestTimeEnum:
		return FieldTypeEnum
	case RequestTimeChar:
		return FieldTypeChar
	case RequestTimeLong:
		return FieldTypeLong
	case RequestTimeDouble:
		return FieldTypeDouble
	default:
		return FieldTypeNotConnected
	}
}

// TimeRequestFor maps a native field type to the time request used for
// monitoring. Enum channels are monitored as strings so the state name is
// shown instead of its index.
func TimeRequestFor(t FieldType) RequestKind {
	switch t {
	case FieldTypeShort:
		return RequestTimeShort
	case FieldTypeFloat:
		return RequestTimeFloat
	case FieldTypeChar:
		return RequestTimeChar
	case FieldTypeLong:
		return RequestTimeLong
	case FieldTypeDouble:
		return RequestTimeDouble
	default:
		return RequestTimeString
	}
}

// Status is the completion status of a transport operation or update.
type Status uint8

const (
	StatusNormal Status = iota
	StatusDisconnected
	StatusNoReadAccess
	StatusGetFailed
	StatusBadType
	StatusTimeout
	StatusUnknownChannel
	StatusServerError
)

// String returns the status text.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal successful completion"
	case StatusDisconnected:
		return "virtual circuit disconnect"
	case StatusNoReadAccess:
		return "read access denied"
	case StatusGetFailed:
		return "get failed"
	case StatusBadType:
		return "invalid request type"
	case StatusTimeout:
		return "operation timed out"
	case StatusUnknownChannel:
		return "unknown channel"
	case StatusServerError:
		return "server error"
	default:
		return fmt.Sprintf("status %d", uint8(s))
	}
}

// IsNormal reports whether s signals success.
func (s Status) IsNormal() bool {
	return s == StatusNormal
}

// Err converts a non-normal status into an error.
func (s Status) Err() error {
	if s.IsNormal() {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError wraps a non-normal Status.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return e.Status.String()
}

// ChannelState is the connection state of a channel as the transport sees it.
type ChannelState uint8

const (
	ChannelNeverConnected ChannelState = iota
	ChannelDisconnected
	ChannelConnected
	ChannelClosed
)

// String returns the channel state name.
func (s ChannelState) String() string {
	switch s {
	case ChannelNeverConnected:
		return "never connected"
	case ChannelDisconnected:
		return "disconnected"
	case ChannelConnected:
		return "connected"
	case ChannelClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ChannelInfo describes a channel as known to the transport.
type ChannelInfo struct {
	Name         string
	FieldType    FieldType
	ElementCount int
	Host         string
	Access       AccessRights
	State        ChannelState
}

// AccessRights are the read and write permissions of a connected channel.
type AccessRights struct {
	Read  bool
	Write bool
}

// ConnectionEvent reports a channel connecting or disconnecting.
type ConnectionEvent struct {
	Handle Handle
	Up     bool
}

// Metadata is the graphic information of an analog channel.
type Metadata struct {
	Precision int16
	Units     string
}

// Update is one value delivered to a subscription.
type Update struct {
	Status    Status
	Timestamp time.Time
	Value     Value
	Alarm     AlarmStatus
	Severity  AlarmSeverity
}

// Exception is an asynchronous error the transport could not attribute to
// a pending call.
type Exception struct {
	// Handle is NoHandle when the exception is not tied to a channel.
	Handle Handle

	// Type is the request kind involved, if any.
	Type RequestKind

	// Count is the element count of the failed request.
	Count int

	Status  Status
	Context string
}

// Callbacks a transport invokes from its event pump.
type (
	ConnectionHandler   func(ev ConnectionEvent)
	UpdateHandler       func(h Handle, u Update)
	MetadataHandler     func(h Handle, md Metadata, err error)
	AccessRightsHandler func(h Handle, rights AccessRights)
	ExceptionHandler    func(ex Exception)
)
