// Package ics translates between the CalDAV wire representation of a
// single calendar object (an iCalendar VEVENT block) and a structured
// record. Line unfolding and text escaping are handled by
// github.com/emersion/go-ical; this package owns the semantic mapping,
// in particular the three datetime encodings and the UTC-only generation
// rule.
package ics

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
)

const prodID = "-//fastmail-claude-calendar-plugin//EN"

// Object is the structured form of one VEVENT. Start and End are absolute
// instants; AllDay records whether the wire carried bare dates. HasEnd and
// HasDuration distinguish an explicit DTEND, an explicit DURATION, and the
// absence of both (which upstream resolves with its named default policy).
type Object struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Status      calendar.Status
	FreeBusy    calendar.FreeBusyStatus
	Start       time.Time
	End         time.Time
	AllDay      bool
	Duration    time.Duration
	HasEnd      bool
	HasDuration bool
}

// Decode parses a single iCalendar object. A malformed or absent
// BEGIN/END delimiter pair is a parse failure; no partial event is ever
// fabricated from one.
func Decode(r io.Reader) (*Object, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, calendar.WrapError(calendar.ParseFailure, "ics.decode", "malformed calendar object", err)
	}
	return FromCalendar(cal)
}

// DecodeBytes is Decode over an in-memory object.
func DecodeBytes(data []byte) (*Object, error) {
	return Decode(bytes.NewReader(data))
}

// FromCalendar extracts the first VEVENT of an already-parsed calendar.
func FromCalendar(cal *ical.Calendar) (*Object, error) {
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			return fromComponent(child)
		}
	}
	return nil, calendar.Errorf(calendar.ParseFailure, "ics.decode", "calendar object contains no VEVENT")
}

func fromComponent(comp *ical.Component) (*Object, error) {
	obj := &Object{
		Status:   calendar.StatusConfirmed,
		FreeBusy: calendar.FreeBusyBusy,
	}

	obj.UID = textProp(comp, ical.PropUID)
	obj.Summary = textProp(comp, ical.PropSummary)
	obj.Description = textProp(comp, ical.PropDescription)
	obj.Location = textProp(comp, ical.PropLocation)

	if status := comp.Props.Get(ical.PropStatus); status != nil {
		switch strings.ToUpper(status.Value) {
		case "TENTATIVE":
			obj.Status = calendar.StatusTentative
			obj.FreeBusy = calendar.FreeBusyTentative
		case "CANCELLED":
			obj.Status = calendar.StatusCancelled
		}
	}
	if transp := comp.Props.Get(ical.PropTransparency); transp != nil {
		if strings.EqualFold(transp.Value, "TRANSPARENT") {
			obj.FreeBusy = calendar.FreeBusyFree
		}
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return nil, calendar.Errorf(calendar.ParseFailure, "ics.decode", "VEVENT %s has no DTSTART", obj.UID)
	}
	var err error
	obj.Start, obj.AllDay, err = parseDateTimeProp(start)
	if err != nil {
		return nil, err
	}

	if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
		obj.End, _, err = parseDateTimeProp(end)
		if err != nil {
			return nil, err
		}
		obj.HasEnd = true
	} else if dur := comp.Props.Get(ical.PropDuration); dur != nil {
		d, err := calendar.ParseWireDuration(dur.Value)
		if err != nil {
			return nil, err
		}
		obj.Duration = d
		obj.HasDuration = true
		obj.End = obj.Start.Add(d)
	} else {
		obj.End = obj.Start
	}
	return obj, nil
}

// parseDateTimeProp normalizes the three wire encodings of a datetime
// property to an absolute instant: a bare 8-digit date (all-day), a
// UTC-suffixed timestamp, and a timestamp qualified by a TZID parameter.
// A floating timestamp with no qualifier is read as UTC.
func parseDateTimeProp(prop *ical.Prop) (time.Time, bool, error) {
	value := prop.Value

	if prop.ValueType() == ical.ValueDate || (len(value) == 8 && !strings.Contains(value, "T")) {
		t, err := time.ParseInLocation("20060102", value, time.UTC)
		if err != nil {
			return time.Time{}, false, calendar.WrapError(calendar.ParseFailure, "ics.decode", "invalid DATE value "+value, err)
		}
		return t, true, nil
	}

	if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
		loc, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, false, calendar.WrapError(calendar.ParseFailure, "ics.decode", "unknown TZID "+tzid, err)
		}
		t, err := time.ParseInLocation("20060102T150405", value, loc)
		if err != nil {
			return time.Time{}, false, calendar.WrapError(calendar.ParseFailure, "ics.decode", "invalid zoned timestamp "+value, err)
		}
		return t.UTC(), false, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, false, calendar.WrapError(calendar.ParseFailure, "ics.decode", "invalid UTC timestamp "+value, err)
		}
		return t, false, nil
	}

	t, err := time.ParseInLocation("20060102T150405", value, time.UTC)
	if err != nil {
		return time.Time{}, false, calendar.WrapError(calendar.ParseFailure, "ics.decode", "invalid timestamp "+value, err)
	}
	return t, false, nil
}

func textProp(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	text, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return text
}

// Calendar renders the object as a complete VCALENDAR ready for PUT.
// Timestamps are always emitted UTC-suffixed regardless of the record's
// zone; zone-local display is reconstructed by the event formatter, never
// from the wire form.
func (o *Object) Calendar() *ical.Calendar {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, o.UID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	comp.Props.SetText(ical.PropSummary, o.Summary)
	if o.Description != "" {
		comp.Props.SetText(ical.PropDescription, o.Description)
	}
	if o.Location != "" {
		comp.Props.SetText(ical.PropLocation, o.Location)
	}
	switch o.Status {
	case calendar.StatusTentative:
		comp.Props.SetText(ical.PropStatus, "TENTATIVE")
	case calendar.StatusCancelled:
		comp.Props.SetText(ical.PropStatus, "CANCELLED")
	default:
		comp.Props.SetText(ical.PropStatus, "CONFIRMED")
	}
	if o.FreeBusy == calendar.FreeBusyFree {
		comp.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	}
	comp.Props.SetDateTime(ical.PropDateTimeStart, o.Start.UTC())
	comp.Props.SetDateTime(ical.PropDateTimeEnd, o.End.UTC())

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Children = append(cal.Children, comp)
	return cal
}

// Encode writes the object's VCALENDAR form to w.
func (o *Object) Encode(w io.Writer) error {
	if err := ical.NewEncoder(w).Encode(o.Calendar()); err != nil {
		return calendar.WrapError(calendar.ParseFailure, "ics.encode", "failed to encode calendar object", err)
	}
	return nil
}
