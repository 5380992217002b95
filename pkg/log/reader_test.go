package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test"+FileExtension)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var read []Event
	for event, err := range r.Events() {
		if err != nil {
			t.Fatalf("Events failed: %v", err)
		}
		read = append(read, event)
	}
	return read
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s-1", Direction: DirectionOut, Layer: LayerHTTP, Category: CategoryMessage},
		{Timestamp: time.Now(), SessionID: "s-2", Direction: DirectionIn, Layer: LayerHTTP, Category: CategoryMessage},
		{Timestamp: time.Now(), SessionID: "s-3", Layer: LayerSession, Category: CategoryState},
	}

	reader, err := NewReader(createTestLogFile(t, events))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].SessionID != "s-1" {
		t.Errorf("first event SessionID = %q, want %q", read[0].SessionID, "s-1")
	}
	if read[2].SessionID != "s-3" {
		t.Errorf("last event SessionID = %q, want %q", read[2].SessionID, "s-3")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	reader, err := NewReader(createTestLogFile(t, nil))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next on empty file = %v, want io.EOF", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing"+FileExtension)); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, SessionID: "a", Direction: DirectionOut, Layer: LayerHTTP, Category: CategoryMessage,
			Message: &MessageEvent{Endpoint: "/v1/user/setting/login"}},
		{Timestamp: base.Add(time.Second), SessionID: "a", Direction: DirectionIn, Layer: LayerHTTP, Category: CategoryMessage,
			Message: &MessageEvent{Endpoint: "/v1/user/essinfo/home"}},
		{Timestamp: base.Add(2 * time.Second), SessionID: "b", Layer: LayerSession, Category: CategoryState, DeviceName: "garage"},
		{Timestamp: base.Add(3 * time.Second), SessionID: "b", Layer: LayerDiscovery, Category: CategoryError},
	}
	path := createTestLogFile(t, events)

	in := DirectionIn
	httpLayer := LayerHTTP
	errCat := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"All", Filter{}, 4},
		{"Session", Filter{SessionID: "a"}, 2},
		{"Direction", Filter{Direction: &in}, 1},
		{"Layer", Filter{Layer: &httpLayer}, 2},
		{"Category", Filter{Category: &errCat}, 1},
		{"TimeRange", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"Device", Filter{DeviceName: "garage"}, 1},
		{"Endpoint", Filter{Endpoint: "/v1/user/essinfo/home"}, 1},
		{"EndpointPrefix", Filter{Endpoint: "/v1/user/"}, 2},
		{"EndpointSkipsNonMessages", Filter{Endpoint: "/", SessionID: "b"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			if got := len(readAll(t, reader)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderEventsStopsEarly(t *testing.T) {
	events := []Event{{SessionID: "1"}, {SessionID: "2"}, {SessionID: "3"}}
	reader, err := NewReader(createTestLogFile(t, events))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	for event, err := range reader.Events() {
		if err != nil {
			t.Fatalf("Events failed: %v", err)
		}
		if event.SessionID != "1" {
			t.Errorf("SessionID = %q, want 1", event.SessionID)
		}
		break
	}

	next, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if next.SessionID != "2" {
		t.Errorf("after break SessionID = %q, want 2", next.SessionID)
	}
}

func TestReaderEventsYieldsDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt"+FileExtension)
	if err := os.WriteFile(path, []byte{0xff, 0xff, 0xff}, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	calls := 0
	for _, err := range reader.Events() {
		calls++
		if err == nil {
			t.Error("expected decode error")
		}
	}
	if calls != 1 {
		t.Errorf("yielded %d times, want 1", calls)
	}
}
