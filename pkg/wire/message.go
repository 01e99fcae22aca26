package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Message validation errors.
var (
	ErrInvalidKind    = errors.New("invalid message kind")
	ErrInvalidCode    = errors.New("invalid message code")
	ErrMissingMessage = errors.New("request requires a message id")
)

// Kind distinguishes the four envelope kinds.
type Kind uint8

const (
	KindRequest  Kind = 1
	KindResponse Kind = 2
	KindEvent    Kind = 3
	KindControl  Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindEvent:
		return "event"
	case KindControl:
		return "control"
	default:
		return "unknown"
	}
}

// Operation is the code of a request.
type Operation uint8

const (
	OpCreateChannel Operation = 1
	OpClearChannel  Operation = 2
	OpSubscribe     Operation = 3
	OpUnsubscribe   Operation = 4
	OpGetMetadata   Operation = 5
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpCreateChannel:
		return "create-channel"
	case OpClearChannel:
		return "clear-channel"
	case OpSubscribe:
		return "subscribe"
	case OpUnsubscribe:
		return "unsubscribe"
	case OpGetMetadata:
		return "get-metadata"
	default:
		return "unknown"
	}
}

// IsValid reports whether o is a known operation.
func (o Operation) IsValid() bool {
	return o >= OpCreateChannel && o <= OpGetMetadata
}

// EventType is the code of a server-pushed event.
type EventType uint8

const (
	EventUpdate       EventType = 1
	EventAccessRights EventType = 2
	EventChannelDown  EventType = 3
	EventException    EventType = 4
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventUpdate:
		return "update"
	case EventAccessRights:
		return "access-rights"
	case EventChannelDown:
		return "channel-down"
	case EventException:
		return "exception"
	default:
		return "unknown"
	}
}

// ControlType is the code of a control message.
type ControlType uint8

const (
	ControlPing  ControlType = 1
	ControlPong  ControlType = 2
	ControlClose ControlType = 3
)

// String returns the control type name.
func (c ControlType) String() string {
	switch c {
	case ControlPing:
		return "ping"
	case ControlPong:
		return "pong"
	case ControlClose:
		return "close"
	default:
		return "unknown"
	}
}

// Status is the code of a response.
type Status uint8

const (
	StatusSuccess             Status = 0
	StatusUnknownChannel      Status = 1
	StatusUnknownSubscription Status = 2
	StatusBadRequest          Status = 3
	StatusNoReadAccess        Status = 4
	StatusNoMetadata          Status = 5
	StatusUnsupported         Status = 6
	StatusServerError         Status = 7
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownChannel:
		return "UNKNOWN_CHANNEL"
	case StatusUnknownSubscription:
		return "UNKNOWN_SUBSCRIPTION"
	case StatusBadRequest:
		return "BAD_REQUEST"
	case StatusNoReadAccess:
		return "NO_READ_ACCESS"
	case StatusNoMetadata:
		return "NO_METADATA"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusServerError:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Envelope is the single message shape carried in every frame.
type Envelope struct {
	Kind      Kind            `cbor:"1,keyasint"`
	MessageID uint32          `cbor:"2,keyasint,omitempty"`
	Code      uint8           `cbor:"3,keyasint"`
	ChannelID uint32          `cbor:"4,keyasint,omitempty"`
	Body      cbor.RawMessage `cbor:"5,keyasint,omitempty"`
}

// Operation returns the request operation.
func (e *Envelope) Operation() Operation { return Operation(e.Code) }

// Status returns the response status.
func (e *Envelope) Status() Status { return Status(e.Code) }

// Event returns the event type.
func (e *Envelope) Event() EventType { return EventType(e.Code) }

// Control returns the control type.
func (e *Envelope) Control() ControlType { return ControlType(e.Code) }

// Validate checks kind/code consistency.
func (e *Envelope) Validate() error {
	switch e.Kind {
	case KindRequest:
		if e.MessageID == 0 {
			return ErrMissingMessage
		}
		if !e.Operation().IsValid() {
			return fmt.Errorf("%w: operation %d", ErrInvalidCode, e.Code)
		}
	case KindResponse:
		if e.MessageID == 0 {
			return ErrMissingMessage
		}
	case KindEvent:
		if e.Code < uint8(EventUpdate) || e.Code > uint8(EventException) {
			return fmt.Errorf("%w: event %d", ErrInvalidCode, e.Code)
		}
	case KindControl:
		if e.Code < uint8(ControlPing) || e.Code > uint8(ControlClose) {
			return fmt.Errorf("%w: control %d", ErrInvalidCode, e.Code)
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKind, e.Kind)
	}
	return nil
}

// String renders a short description for logs.
func (e *Envelope) String() string {
	var code string
	switch e.Kind {
	case KindRequest:
		code = e.Operation().String()
	case KindResponse:
		code = e.Status().String()
	case KindEvent:
		code = e.Event().String()
	case KindControl:
		code = e.Control().String()
	}
	return fmt.Sprintf("%s %s id=%d ch=%d", e.Kind, code, e.MessageID, e.ChannelID)
}

// CreateChannelRequest asks the server to bind a channel by name.
type CreateChannelRequest struct {
	Name string `cbor:"1,keyasint"`
}

// ChannelDescriptor is the create-channel response body.
type ChannelDescriptor struct {
	FieldType int8   `cbor:"1,keyasint"`
	Count     uint32 `cbor:"2,keyasint"`
	Host      string `cbor:"3,keyasint,omitempty"`
	Read      bool   `cbor:"4,keyasint"`
	Write     bool   `cbor:"5,keyasint"`
}

// SubscribeRequest starts a value subscription. Count 0 means the native
// element count. The client picks the subscription id so updates can
// arrive before the response; zero lets the server pick one.
type SubscribeRequest struct {
	Kind           uint8  `cbor:"1,keyasint"`
	Count          uint32 `cbor:"2,keyasint,omitempty"`
	SubscriptionID uint32 `cbor:"3,keyasint,omitempty"`
}

// SubscribeResponse carries the subscription id in use.
type SubscribeResponse struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
}

// UnsubscribeRequest cancels a subscription.
type UnsubscribeRequest struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
}

// Metadata is the get-metadata response body.
type Metadata struct {
	Precision int16  `cbor:"1,keyasint"`
	Units     string `cbor:"2,keyasint,omitempty"`
}

// UpdateEvent delivers one value to a subscription. Time is Unix
// nanoseconds.
type UpdateEvent struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
	Status         uint8  `cbor:"2,keyasint,omitempty"`
	Time           int64  `cbor:"3,keyasint"`
	Alarm          uint16 `cbor:"4,keyasint,omitempty"`
	Severity       uint16 `cbor:"5,keyasint,omitempty"`
	Value          Value  `cbor:"6,keyasint"`
}

// AccessRightsEvent reports changed permissions.
type AccessRightsEvent struct {
	Read  bool `cbor:"1,keyasint"`
	Write bool `cbor:"2,keyasint"`
}

// ChannelDownEvent reports that a channel went away on the server.
type ChannelDownEvent struct {
	Reason string `cbor:"1,keyasint,omitempty"`
}

// ExceptionEvent reports an asynchronous server-side error.
type ExceptionEvent struct {
	Kind    uint8  `cbor:"1,keyasint,omitempty"`
	Count   uint32 `cbor:"2,keyasint,omitempty"`
	Status  uint8  `cbor:"3,keyasint"`
	Context string `cbor:"4,keyasint,omitempty"`
}

// ErrorBody carries a human-readable message with a failed response.
type ErrorBody struct {
	Message string `cbor:"1,keyasint,omitempty"`
}
