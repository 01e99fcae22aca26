package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/pvmon/pvmon-go/pkg/log"
)

type captureSink struct {
	events []log.Event
}

func (c *captureSink) Log(e log.Event) { c.events = append(c.events, e) }

func TestFramerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)

	payloads := [][]byte{{0x01}, bytes.Repeat([]byte{0xAB}, 300), []byte("hello")}
	for _, p := range payloads {
		if err := f.WriteFrame(p); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	for i, want := range payloads {
		got, err := f.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %x, want %x", i, got, want)
		}
	}

	if _, err := f.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

func TestFramerErrors(t *testing.T) {
	t.Run("empty write", func(t *testing.T) {
		f := NewFramer(&bytes.Buffer{})
		if err := f.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
			t.Errorf("err = %v, want ErrMessageEmpty", err)
		}
	})

	t.Run("oversized write", func(t *testing.T) {
		f := NewFramerWithMaxSize(&bytes.Buffer{}, 4)
		if err := f.WriteFrame([]byte("12345")); !errors.Is(err, ErrMessageTooLarge) {
			t.Errorf("err = %v, want ErrMessageTooLarge", err)
		}
	})

	t.Run("oversized read", func(t *testing.T) {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, uint32(100))
		f := NewFramerWithMaxSize(&buf, 10)
		if _, err := f.ReadFrame(); !errors.Is(err, ErrMessageTooLarge) {
			t.Errorf("err = %v, want ErrMessageTooLarge", err)
		}
	})

	t.Run("zero length read", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
		if _, err := NewFramer(buf).ReadFrame(); !errors.Is(err, ErrMessageEmpty) {
			t.Errorf("err = %v, want ErrMessageEmpty", err)
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{0, 0})
		if _, err := NewFramer(buf).ReadFrame(); !errors.Is(err, ErrFrameTruncated) {
			t.Errorf("err = %v, want ErrFrameTruncated", err)
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{0, 0, 0, 5, 'a', 'b'})
		if _, err := NewFramer(buf).ReadFrame(); !errors.Is(err, ErrFrameTruncated) {
			t.Errorf("err = %v, want ErrFrameTruncated", err)
		}
	})
}

func TestFramerCapture(t *testing.T) {
	var buf bytes.Buffer
	sink := &captureSink{}
	f := NewFramer(&buf)
	f.SetCapture(sink, "sess-1")

	big := bytes.Repeat([]byte{1}, MaxCapturedFrameSize+10)
	if err := f.WriteFrame(big); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := f.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if len(sink.events) != 2 {
		t.Fatalf("captured %d events, want 2", len(sink.events))
	}
	out := sink.events[0]
	if out.Direction != log.DirectionOut || out.SessionID != "sess-1" || out.Category != log.CategoryFrame {
		t.Errorf("out event = %+v", out)
	}
	if !out.Frame.Truncated || len(out.Frame.Data) != MaxCapturedFrameSize {
		t.Errorf("frame not truncated: %d bytes", len(out.Frame.Data))
	}
	if out.Frame.Size != FrameSize(len(big)) {
		t.Errorf("Size = %d, want %d", out.Frame.Size, FrameSize(len(big)))
	}
	if sink.events[1].Direction != log.DirectionIn {
		t.Errorf("second event direction = %v", sink.events[1].Direction)
	}
}
