// Package commands implements the pvlog CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// timeLayout renders capture timestamps.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Channel   string
}

func (f ViewFilter) capture() log.Filter {
	return log.Filter{
		Layer:     f.Layer,
		Direction: f.Direction,
		Category:  f.Category,
		Channel:   f.Channel,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// timestamp [session] DIRECTION LAYER CATEGORY channel
	ts := event.Timestamp.UTC().Format(timeLayout)
	fmt.Fprintf(w, "%s [%s] %-3s %s %s", ts, shortenID(event.SessionID), event.Direction, event.Layer, event.Category)
	if event.Channel != "" {
		fmt.Fprintf(w, " %s", event.Channel)
	}
	fmt.Fprintln(w)

	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}
	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.State != nil:
		formatStateChangeDetails(w, event.State)
	case event.Control != nil:
		fmt.Fprintf(w, "  %s", event.Control.Type)
		if event.Control.Sequence != 0 {
			fmt.Fprintf(w, " seq=%d", event.Control.Sequence)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Monitor != nil:
		formatMonitorDetails(w, event.Category, event.Monitor)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID, or "-".
func shortenID(id string) string {
	switch {
	case id == "":
		return "-"
	case len(id) > 8:
		return id[:8]
	default:
		return id
	}
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  %s %s", msg.Kind, msg.Code)
	if msg.MessageID != 0 {
		fmt.Fprintf(w, " id=%d", msg.MessageID)
	}
	if msg.ChannelID != 0 {
		fmt.Fprintf(w, " channel=%d", msg.ChannelID)
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEvent) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func formatMonitorDetails(w io.Writer, cat log.Category, ev *log.MonitorEvent) {
	if ev.State != "" {
		fmt.Fprintf(w, "  State: %s\n", ev.State)
	}
	if ev.FieldType != "" {
		fmt.Fprintf(w, "  Type: %s[%d]\n", ev.FieldType, ev.Count)
	}
	if ev.Value != "" || cat == log.CategoryUpdate {
		fmt.Fprintf(w, "  Value: %s", ev.Value)
		if ev.Alarm != "" {
			fmt.Fprintf(w, " (%s %s)", ev.Alarm, ev.Severity)
		}
		fmt.Fprintln(w)
	}
	if cat == log.CategoryAccess {
		fmt.Fprintf(w, "  Read: %t Write: %t\n", ev.Read, ev.Write)
	}
	if ev.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", ev.Detail)
	}
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "monitor":
		return log.LayerMonitor, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or monitor)", s)
	}
}

// ParseDirectionFlag parses a direction name (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}

// RunView prints every matching event of the capture at path.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.capture())
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
