package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	status := 200

	newJSONAdapter(&buf).Log(Event{
		Timestamp:  time.Now(),
		SessionID:  "sess-123",
		Direction:  DirectionIn,
		Layer:      LayerHTTP,
		Category:   CategoryMessage,
		RemoteAddr: "192.168.1.24",
		Message: &MessageEvent{
			Type:       MessageTypeResponse,
			Method:     "POST",
			Endpoint:   "/v1/user/essinfo/common",
			Attempt:    2,
			StatusCode: &status,
		},
	})

	entry := decodeEntry(t, &buf)
	if entry["session_id"] != "sess-123" {
		t.Errorf("session_id: got %v", entry["session_id"])
	}
	if entry["layer"] != "HTTP" {
		t.Errorf("layer: got %v", entry["layer"])
	}
	if entry["endpoint"] != "/v1/user/essinfo/common" {
		t.Errorf("endpoint: got %v", entry["endpoint"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status: got %v", entry["status"])
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("attempt: got %v", entry["attempt"])
	}
	if entry["remote_addr"] != "192.168.1.24" {
		t.Errorf("remote_addr: got %v", entry["remote_addr"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer

	newJSONAdapter(&buf).Log(Event{
		Timestamp: time.Now(),
		SessionID: "sess-1",
		Layer:     LayerSession,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			OldState: "AUTHENTICATED",
			NewState: "AUTHENTICATING",
			Reason:   "auth_key failed",
		},
	})

	entry := decodeEntry(t, &buf)
	if entry["new_state"] != "AUTHENTICATING" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
	if entry["reason"] != "auth_key failed" {
		t.Errorf("reason: got %v", entry["reason"])
	}
}

func TestSlogAdapterLogsDiscoveryAndError(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Layer:    LayerDiscovery,
		Category: CategoryDiscovery,
		Discovery: &DiscoveryEvent{
			Operation: "browse",
			Count:     2,
		},
	})
	entry := decodeEntry(t, &buf)
	if entry["operation"] != "browse" || entry["count"] != float64(2) {
		t.Errorf("discovery attrs: got %v", entry)
	}

	buf.Reset()
	adapter.Log(Event{
		Layer:    LayerSession,
		Category: CategoryError,
		Error: &ErrorEventData{
			Layer:    LayerSession,
			Message:  "time sync failed",
			Category: "protocol",
			Context:  "login",
		},
	})
	entry = decodeEntry(t, &buf)
	if entry["error_category"] != "protocol" {
		t.Errorf("error_category: got %v", entry["error_category"])
	}
	if entry["error_context"] != "login" {
		t.Errorf("error_context: got %v", entry["error_context"])
	}
}
