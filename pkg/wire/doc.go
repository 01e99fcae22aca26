// Package wire defines the CBOR wire format spoken between pvclient and
// pvserver.
//
// Every frame carries one Envelope encoded as a CBOR map with integer keys:
//
//	{
//	  1: kind,       // request, response, event, control
//	  2: messageId,  // correlates request/response; ping sequence for control
//	  3: code,       // operation, status, event type or control type
//	  4: channelId,  // server-assigned channel id (0 = none)
//	  5: body        // kind/code specific CBOR map
//	}
//
// The body is kept as raw CBOR until the receiver knows which struct to
// decode it into.
//
// # Operations
//
//	create-channel  body CreateChannelRequest -> ChannelDescriptor
//	clear-channel   no body
//	subscribe       body SubscribeRequest     -> SubscribeResponse
//	unsubscribe     body UnsubscribeRequest
//	get-metadata    no body                   -> Metadata
//
// # Events
//
// Servers push update, access-rights, channel-down and exception events
// without a message id.
package wire
