package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Channels          map[string]*ChannelStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for one transport session.
type SessionStats struct {
	RemoteAddr string
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
}

// ChannelStats holds statistics for one channel.
type ChannelStats struct {
	Updates     int
	Connects    int
	Actions     int
	LastValue   string
	LastUpdated time.Time
}

// CollectStats reads the capture at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		Channels:          make(map[string]*ChannelStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.SessionID != "" {
		sess, ok := s.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if sess.RemoteAddr == "" {
			sess.RemoteAddr = event.RemoteAddr
		}
	}

	if event.Channel != "" && event.Layer == log.LayerMonitor {
		ch, ok := s.Channels[event.Channel]
		if !ok {
			ch = &ChannelStats{}
			s.Channels[event.Channel] = ch
		}
		switch event.Category {
		case log.CategoryUpdate:
			ch.Updates++
			if event.Monitor != nil {
				ch.LastValue = event.Monitor.Value
			}
			ch.LastUpdated = event.Timestamp
		case log.CategoryConnection:
			ch.Connects++
		case log.CategoryAction:
			ch.Actions++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats prints statistics about the capture at path.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== PV Monitor Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerMonitor} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for cat := log.CategoryFrame; cat <= log.CategoryCommand; cat++ {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	ids := make([]string, 0, len(stats.Sessions))
	for id := range stats.Sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Sessions[ids[i]].FirstSeen.Before(stats.Sessions[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		s := stats.Sessions[id]
		fmt.Fprintf(w, "  [%s] %s %d events, duration %s\n",
			shortenID(id), s.RemoteAddr, s.Events, s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
	}

	if len(stats.Channels) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Channels: %d\n", len(stats.Channels))
		names := make([]string, 0, len(stats.Channels))
		for name := range stats.Channels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := stats.Channels[name]
			fmt.Fprintf(w, "  %-24s updates=%d connects=%d actions=%d", name, c.Updates, c.Connects, c.Actions)
			if c.Updates > 0 {
				fmt.Fprintf(w, " last=%q", c.LastValue)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
