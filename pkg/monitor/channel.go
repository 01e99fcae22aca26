package monitor

import "github.com/pvmon/pvmon-go/pkg/pv"

// ChannelState is the engine's view of a monitored channel.
type ChannelState uint8

const (
	// StateConnecting is the state between AddMonitor and the first
	// connection.
	StateConnecting ChannelState = iota
	StateConnected
	StateMetadataPending
	StateSubscribed
	StateDisconnected

	// StateFailed is terminal; the channel never subscribes.
	StateFailed
)

// String returns the state name.
func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateMetadataPending:
		return "METADATA_PENDING"
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// NoPrecision marks a channel without a negotiated display precision.
const NoPrecision = -1

// channel is the per-channel state. Callbacks registered with the transport
// capture the *channel they belong to.
type channel struct {
	name   string
	handle pv.Handle
	state  ChannelState

	// resume is the state restored when a disconnected channel comes back.
	resume ChannelState

	connected bool
	fieldType pv.FieldType
	count     int
	precision int

	subscriptionStarted bool
	subscription        pv.SubscriptionID
	accessInstalled     bool

	// removed is set once the channel is cleared; late callbacks are dropped.
	removed bool
}

func newChannel(name string) *channel {
	return &channel{
		name:      name,
		state:     StateConnecting,
		fieldType: pv.FieldTypeNotConnected,
		precision: NoPrecision,
	}
}

// settle moves the channel to s, or records s as the state to resume when
// the channel is currently down.
func (c *channel) settle(s ChannelState) {
	if !c.connected && c.state == StateDisconnected {
		c.resume = s
		return
	}
	c.state = s
}
