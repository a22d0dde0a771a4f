package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
)

func wire(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestDecodeUTCTimestamps(t *testing.T) {
	obj, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-1",
		"SUMMARY:Team sync",
		"DESCRIPTION:Weekly",
		"LOCATION:Room 4",
		"DTSTART:20260501T090000Z",
		"DTEND:20260501T100000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	if obj.UID != "ev-1" || obj.Summary != "Team sync" || obj.Location != "Room 4" {
		t.Errorf("unexpected fields: %+v", obj)
	}
	wantStart := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if !obj.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", obj.Start, wantStart)
	}
	if !obj.HasEnd || !obj.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("End = %v (HasEnd=%t)", obj.End, obj.HasEnd)
	}
	if obj.AllDay {
		t.Error("timed event flagged all-day")
	}
}

func TestDecodeZonedTimestamp(t *testing.T) {
	obj, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-2",
		"SUMMARY:Breakfast",
		"DTSTART;TZID=America/New_York:20260115T090000",
		"DTEND;TZID=America/New_York:20260115T100000",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	// 09:00 New York in January is 14:00 UTC.
	want := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	if !obj.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", obj.Start, want)
	}
}

func TestDecodeAllDay(t *testing.T) {
	obj, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-3",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20260704",
		"DTEND;VALUE=DATE:20260705",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	if !obj.AllDay {
		t.Error("bare date must decode as all-day")
	}
	if !obj.Start.Equal(time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", obj.Start)
	}
}

func TestDecodeDuration(t *testing.T) {
	obj, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-4",
		"SUMMARY:Call",
		"DTSTART:20260501T090000Z",
		"DURATION:PT30M",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	if !obj.HasDuration || obj.Duration != 30*time.Minute {
		t.Errorf("Duration = %v (HasDuration=%t)", obj.Duration, obj.HasDuration)
	}
	if !obj.End.Equal(obj.Start.Add(30 * time.Minute)) {
		t.Errorf("End = %v", obj.End)
	}
}

func TestDecodeStatusAndTransparency(t *testing.T) {
	obj, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-5",
		"SUMMARY:Focus",
		"STATUS:TENTATIVE",
		"TRANSP:TRANSPARENT",
		"DTSTART:20260501T090000Z",
		"DTEND:20260501T100000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	if obj.Status != calendar.StatusTentative {
		t.Errorf("Status = %v", obj.Status)
	}
	if obj.FreeBusy != calendar.FreeBusyFree {
		t.Errorf("FreeBusy = %v, TRANSPARENT must map to free", obj.FreeBusy)
	}
}

func TestDecodeMissingDelimiter(t *testing.T) {
	// Truncated object: BEGIN:VEVENT without END:VEVENT.
	_, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-6",
		"SUMMARY:Broken",
		"DTSTART:20260501T090000Z",
	))
	if !calendar.IsKind(err, calendar.ParseFailure) {
		t.Errorf("KindOf = %v, want ParseFailure", calendar.KindOf(err))
	}
}

func TestDecodeNoVEVENT(t *testing.T) {
	_, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"END:VCALENDAR",
	))
	if !calendar.IsKind(err, calendar.ParseFailure) {
		t.Errorf("KindOf = %v, want ParseFailure", calendar.KindOf(err))
	}
}

func TestDecodeMissingDTSTART(t *testing.T) {
	_, err := DecodeBytes(wire(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-7",
		"SUMMARY:No start",
		"END:VEVENT",
		"END:VCALENDAR",
	))
	if !calendar.IsKind(err, calendar.ParseFailure) {
		t.Errorf("KindOf = %v, want ParseFailure", calendar.KindOf(err))
	}
}

func TestEncodeAlwaysUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	obj := &Object{
		UID:     "ev-8",
		Summary: "Dinner",
		Status:  calendar.StatusConfirmed,
		Start:   time.Date(2026, 5, 1, 19, 0, 0, 0, berlin),
		End:     time.Date(2026, 5, 1, 21, 0, 0, 0, berlin),
		HasEnd:  true,
	}

	var buf bytes.Buffer
	if err := obj.Encode(&buf); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out := buf.String()

	// Generation always emits UTC-suffixed timestamps, 19:00 Berlin in
	// summer is 17:00 UTC.
	if !strings.Contains(out, "DTSTART:20260501T170000Z") {
		t.Errorf("missing UTC DTSTART in:\n%s", out)
	}
	if !strings.Contains(out, "DTEND:20260501T190000Z") {
		t.Errorf("missing UTC DTEND in:\n%s", out)
	}
	if strings.Contains(out, "TZID") {
		t.Error("generated object must not carry TZID parameters")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	obj := &Object{
		UID:         "ev-9",
		Summary:     "Review",
		Description: "Quarterly",
		Location:    "HQ",
		Status:      calendar.StatusTentative,
		FreeBusy:    calendar.FreeBusyTentative,
		Start:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC),
		HasEnd:      true,
	}

	var buf bytes.Buffer
	if err := obj.Encode(&buf); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if back.UID != obj.UID || back.Summary != obj.Summary || back.Location != obj.Location {
		t.Errorf("round trip changed fields: %+v", back)
	}
	if !back.Start.Equal(obj.Start) || !back.End.Equal(obj.End) {
		t.Errorf("round trip changed times: %v %v", back.Start, back.End)
	}
	if back.Status != calendar.StatusTentative {
		t.Errorf("Status = %v", back.Status)
	}
}
