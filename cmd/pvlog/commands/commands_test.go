package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pvmon/pvmon-go/pkg/log"
)

var ts = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func createTestCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pvlog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		fl.Log(e)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: ts, SessionID: "0123456789abcdef", Direction: log.DirectionOut,
			Layer: log.LayerTransport, Category: log.CategoryFrame, RemoteAddr: "10.0.0.5:5075",
			Frame: &log.FrameEvent{Size: 12, Data: []byte{0xa1, 0x01}},
		},
		{
			Timestamp: ts.Add(time.Millisecond), SessionID: "0123456789abcdef",
			Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Kind: "response", Code: "SUCCESS", MessageID: 4, ChannelID: 2},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), Layer: log.LayerMonitor,
			Category: log.CategoryConnection, Channel: "temp",
			Monitor: &log.MonitorEvent{State: "Connected", FieldType: "DOUBLE", Count: 1},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), Layer: log.LayerMonitor,
			Category: log.CategoryUpdate, Channel: "temp",
			Monitor: &log.MonitorEvent{Value: "21.50", Alarm: "HIHI", Severity: "MAJOR"},
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond), Direction: log.DirectionOut, Layer: log.LayerMonitor,
			Category: log.CategoryAction, Channel: "temp",
			Monitor: &log.MonitorEvent{Value: "21.50", Detail: "pid=42"},
		},
		{
			Timestamp: ts.Add(5 * time.Second), Layer: log.LayerWire, Category: log.CategoryError,
			Error: &log.ErrorEvent{Layer: log.LayerWire, Message: "bad envelope"},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestCapture(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-03-02T10:00:00.000000Z [01234567] OUT TRANSPORT FRAME",
		"Remote: 10.0.0.5:5075",
		"Data: a101",
		"response SUCCESS id=4 channel=2",
		"MONITOR CONNECTION temp",
		"Type: DOUBLE[1]",
		"Value: 21.50 (HIHI MAJOR)",
		"Detail: pid=42",
		"Message: bad envelope",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestViewFilter(t *testing.T) {
	path := createTestCapture(t, sampleEvents())

	layer := log.LayerMonitor
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer, Channel: "temp"}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if n := strings.Count(buf.String(), " MONITOR "); n != 3 {
		t.Errorf("monitor events = %d, want 3:\n%s", n, buf.String())
	}
	if strings.Contains(buf.String(), "TRANSPORT") {
		t.Error("transport event not filtered")
	}
}

func TestViewMissingFile(t *testing.T) {
	if err := RunView(filepath.Join(t.TempDir(), "none.pvlog"), ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Monitor"); err != nil || l != log.LayerMonitor {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("update"); err != nil || c != log.CategoryUpdate {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestStats(t *testing.T) {
	path := createTestCapture(t, sampleEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}
	if stats.TotalEvents != 6 {
		t.Errorf("TotalEvents = %d, want 6", stats.TotalEvents)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if len(stats.Sessions) != 1 || stats.Sessions["0123456789abcdef"].RemoteAddr != "10.0.0.5:5075" {
		t.Errorf("Sessions = %+v", stats.Sessions)
	}
	ch := stats.Channels["temp"]
	if ch == nil || ch.Updates != 1 || ch.Connects != 1 || ch.Actions != 1 || ch.LastValue != "21.50" {
		t.Errorf("temp stats = %+v", ch)
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Total Events: 6", "MONITOR:", "UPDATE:", "Duration:   5s", "Sessions: 1", `last="21.50"`, "Errors: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6", len(lines))
	}
	var ev log.Event
	if err := json.Unmarshal([]byte(lines[3]), &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Channel != "temp" || ev.Monitor == nil || ev.Monitor.Value != "21.50" {
		t.Errorf("event = %+v", ev)
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("header = %v", rows[0])
	}
	if got := rows[2][6]; got != "response:SUCCESS" {
		t.Errorf("message type = %q", got)
	}
	if got := rows[4][8]; got != "21.50" {
		t.Errorf("update value = %q", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFilter(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.pvlog")

	n, err := RunFilter(path, FilterOptions{Output: out, Category: "update"})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 1 {
		t.Errorf("filtered = %d, want 1", n)
	}

	stats, err := CollectStats(out)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 1 || stats.EventsByCategory[log.CategoryUpdate] != 1 {
		t.Errorf("filtered stats = %+v", stats)
	}

	if _, err := RunFilter(path, FilterOptions{Output: out, TimeStart: "yesterday"}); err == nil {
		t.Error("expected error for bad time-start")
	}
}
