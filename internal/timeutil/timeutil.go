// Package timeutil converts between the wall-clock representation used on
// the wire (a local datetime string paired with an IANA zone name) and
// absolute instants, and round-trips the restricted ISO-8601 duration
// grammar used by calendar events.
package timeutil

import (
	"fmt"
	"time"
)

// LocalLayout is the offset-less wall-clock layout used by the JMAP event
// record and by all zone-local display rendering.
const LocalLayout = "2006-01-02T15:04:05"

// localLayoutShort accepts input without a seconds component.
const localLayoutShort = "2006-01-02T15:04"

// ToInstant interprets a local wall-clock datetime in the given IANA zone
// and returns the absolute instant it represents. The zone's offset is
// resolved at that moment, so datetimes across DST transitions map to the
// correct instant rather than one computed from a fixed offset.
func ToInstant(local, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown time zone %q: %w", tz, err)
	}
	t, err := time.ParseInLocation(LocalLayout, local, loc)
	if err != nil {
		t, err = time.ParseInLocation(localLayoutShort, local, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid local datetime %q: %w", local, err)
	}
	return t.UTC(), nil
}

// ToLocal formats an absolute instant as the local wall-clock string in the
// given zone. The result carries no offset suffix.
func ToLocal(t time.Time, tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("unknown time zone %q: %w", tz, err)
	}
	return t.In(loc).Format(LocalLayout), nil
}
