package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the big-endian length prefix.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize bounds a single frame payload (1 MiB; arrays
	// can be large).
	DefaultMaxMessageSize = 1 << 20

	// MaxCapturedFrameSize limits the bytes copied into capture events.
	MaxCapturedFrameSize = 4096
)

// Framing errors.
var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageEmpty    = errors.New("message is empty")
	ErrFrameTruncated  = errors.New("frame truncated")
)

// Framer reads and writes length-prefixed frames on one stream. Writes are
// serialized; reads must come from a single goroutine.
type Framer struct {
	r       io.Reader
	w       io.Writer
	maxSize uint32

	writeMu sync.Mutex
	header  [LengthPrefixSize]byte

	capture   log.Logger
	sessionID string
}

// NewFramer returns a framer with the default size limit.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize returns a framer rejecting payloads above maxSize.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Framer{r: rw, w: rw, maxSize: maxSize}
}

// SetCapture records every frame to capture, tagged with sessionID. Pass
// nil to stop capturing.
func (f *Framer) SetCapture(capture log.Logger, sessionID string) {
	f.capture = capture
	f.sessionID = sessionID
}

// WriteFrame writes one frame.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if uint32(len(data)) > f.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), f.maxSize)
	}

	buf := make([]byte, LengthPrefixSize+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[LengthPrefixSize:], data)

	f.writeMu.Lock()
	_, err := f.w.Write(buf)
	f.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	f.record(data, log.DirectionOut)
	return nil
}

// ReadFrame reads one frame and returns its payload. A clean end of stream
// before a header is returned as io.EOF.
func (f *Framer) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.r, f.header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(f.header[:])
	switch {
	case n == 0:
		return nil, ErrMessageEmpty
	case n > f.maxSize:
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, n, f.maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	f.record(payload, log.DirectionIn)
	return payload, nil
}

func (f *Framer) record(data []byte, dir log.Direction) {
	if f.capture == nil {
		return
	}
	captured := data
	truncated := false
	if len(captured) > MaxCapturedFrameSize {
		captured = captured[:MaxCapturedFrameSize]
		truncated = true
	}
	f.capture.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: f.sessionID,
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryFrame,
		Frame: &log.FrameEvent{
			Size:      FrameSize(len(data)),
			Data:      captured,
			Truncated: truncated,
		},
	})
}

// FrameSize returns the on-wire size of a payload including its prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
