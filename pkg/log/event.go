package log

import "time"

// Event is one captured occurrence. Exactly one of the payload pointers is
// set, matching Category.
type Event struct {
	Timestamp  time.Time `cbor:"1,keyasint"`
	SessionID  string    `cbor:"2,keyasint,omitempty"`
	Direction  Direction `cbor:"3,keyasint"`
	Layer      Layer     `cbor:"4,keyasint"`
	Category   Category  `cbor:"5,keyasint"`
	RemoteAddr string    `cbor:"6,keyasint,omitempty"`
	Channel    string    `cbor:"7,keyasint,omitempty"`

	Frame   *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message *MessageEvent     `cbor:"11,keyasint,omitempty"`
	State   *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Control *ControlEvent     `cbor:"13,keyasint,omitempty"`
	Error   *ErrorEvent       `cbor:"14,keyasint,omitempty"`
	Monitor *MonitorEvent     `cbor:"15,keyasint,omitempty"`
}

// Direction indicates message flow relative to the local process.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer is where the event was captured.
type Layer uint8

const (
	// LayerTransport is the framing layer.
	LayerTransport Layer = 0
	// LayerWire is the decoded envelope layer.
	LayerWire Layer = 1
	// LayerMonitor is the channel engine.
	LayerMonitor Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerMonitor:
		return "MONITOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryFrame Category = iota
	CategoryMessage
	CategoryControl
	CategoryState
	CategoryError
	CategoryConnection
	CategoryAccess
	CategoryUpdate
	CategoryMetadata
	CategoryException
	CategoryAction
	CategoryCommand
)

var categoryNames = [...]string{
	"FRAME",
	"MESSAGE",
	"CONTROL",
	"STATE",
	"ERROR",
	"CONNECTION",
	"ACCESS",
	"UPDATE",
	"METADATA",
	"EXCEPTION",
	"ACTION",
	"COMMAND",
}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "UNKNOWN"
}

// ParseCategory parses a category name, case-sensitive.
func ParseCategory(s string) (Category, bool) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), true
		}
	}
	return 0, false
}

// FrameEvent captures raw frame bytes at the transport layer.
type FrameEvent struct {
	// Size includes the length prefix.
	Size      int    `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint,omitempty"`
	Truncated bool   `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded envelope.
type MessageEvent struct {
	Kind      string `cbor:"1,keyasint"`
	Code      string `cbor:"2,keyasint"`
	MessageID uint32 `cbor:"3,keyasint,omitempty"`
	ChannelID uint32 `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures a session or channel lifecycle transition.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity is what changed state.
type StateEntity uint8

const (
	StateEntitySession StateEntity = 0
	StateEntityChannel StateEntity = 1
)

// String returns the entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityChannel:
		return "CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// ControlEvent captures ping, pong and close messages.
type ControlEvent struct {
	Type     string `cbor:"1,keyasint"`
	Sequence uint32 `cbor:"2,keyasint,omitempty"`
}

// ErrorEvent captures an error at any layer.
type ErrorEvent struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Context string `cbor:"3,keyasint,omitempty"`
}

// MonitorEvent carries channel-level detail for the monitor categories.
type MonitorEvent struct {
	// State is the channel state after the event.
	State     string `cbor:"1,keyasint,omitempty"`
	FieldType string `cbor:"2,keyasint,omitempty"`
	Count     int    `cbor:"3,keyasint,omitempty"`

	// Value is the rendered value for updates and actions.
	Value    string `cbor:"4,keyasint,omitempty"`
	Alarm    string `cbor:"5,keyasint,omitempty"`
	Severity string `cbor:"6,keyasint,omitempty"`

	// Read and Write are set for access events.
	Read  bool `cbor:"7,keyasint,omitempty"`
	Write bool `cbor:"8,keyasint,omitempty"`

	// Detail holds free text such as a command line or error.
	Detail string `cbor:"9,keyasint,omitempty"`
}
