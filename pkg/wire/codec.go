package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for envelopes and bodies.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for envelopes and bodies.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Unknown keys are ignored so newer peers can add fields.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encode validates and encodes an envelope.
func Encode(env *Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	return Marshal(env)
}

// Decode decodes and validates an envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	return &env, nil
}

// DecodeBody decodes the envelope body into v. An absent body leaves v
// untouched.
func DecodeBody(env *Envelope, v any) error {
	if len(env.Body) == 0 {
		return nil
	}
	if err := Unmarshal(env.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s body: %w", env.Kind, err)
	}
	return nil
}

func rawBody(body any) (cbor.RawMessage, error) {
	if body == nil {
		return nil, nil
	}
	data, err := Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	return cbor.RawMessage(data), nil
}

// NewRequest builds a request envelope.
func NewRequest(msgID uint32, op Operation, channelID uint32, body any) (*Envelope, error) {
	raw, err := rawBody(body)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Kind:      KindRequest,
		MessageID: msgID,
		Code:      uint8(op),
		ChannelID: channelID,
		Body:      raw,
	}, nil
}

// NewResponse builds the response to req.
func NewResponse(req *Envelope, status Status, body any) (*Envelope, error) {
	raw, err := rawBody(body)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Kind:      KindResponse,
		MessageID: req.MessageID,
		Code:      uint8(status),
		ChannelID: req.ChannelID,
		Body:      raw,
	}, nil
}

// NewEvent builds a server-pushed event envelope.
func NewEvent(ev EventType, channelID uint32, body any) (*Envelope, error) {
	raw, err := rawBody(body)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Kind:      KindEvent,
		Code:      uint8(ev),
		ChannelID: channelID,
		Body:      raw,
	}, nil
}

// NewControl builds a control envelope. The sequence travels in the
// message id slot.
func NewControl(ct ControlType, seq uint32) *Envelope {
	return &Envelope{
		Kind:      KindControl,
		MessageID: seq,
		Code:      uint8(ct),
	}
}

// EncodeControl encodes a control message.
func EncodeControl(ct ControlType, seq uint32) ([]byte, error) {
	return Encode(NewControl(ct, seq))
}

// PeekKind returns the envelope kind without decoding the body.
func PeekKind(data []byte) (Kind, error) {
	var peek struct {
		Kind Kind `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return 0, fmt.Errorf("failed to peek message: %w", err)
	}
	return peek.Kind, nil
}
