package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsRecordToolCall(t *testing.T) {
	m := NewMetrics()
	m.RecordToolCall("calendar_get_events", "jmap", "success", 42*time.Millisecond)
	m.RecordToolCall("calendar_get_events", "jmap", "success", 10*time.Millisecond)
	m.RecordToolCall("calendar_get_events", "jmap", "error", 5*time.Millisecond)

	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	byName := map[string]bool{}
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	if !byName["calendar_tool_calls_total"] || !byName["calendar_tool_duration_seconds"] {
		t.Errorf("expected tool metrics, got %v", byName)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordToolCall("calendar_list_calendars", "caldav", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "calendar_tool_calls_total") {
		t.Errorf("exposition missing counter:\n%s", body)
	}
	if !strings.Contains(body, `backend="caldav"`) {
		t.Errorf("exposition missing backend label:\n%s", body)
	}
}
