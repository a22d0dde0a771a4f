package calendar

import "fmt"

// Untrusted-content markers. Title, description and location are the three
// fields an external invitee could have authored, so every read path wraps
// them before they reach the calling agent. The wrapping marks the text as
// calendar data rather than instructions; it is a security control, not a
// display nicety, and has no bypass.
const (
	untrustedOpen  = "[UNTRUSTED_CONTENT %s]"
	untrustedClose = "[/UNTRUSTED_CONTENT]"
)

// TagUntrusted wraps an externally authored value in the fixed marker,
// labelled with the field it came from. Empty values stay empty so absent
// fields do not render as empty markers.
func TagUntrusted(field, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(untrustedOpen, field) + " " + value + " " + untrustedClose
}

// TagEvent returns a copy of the event with the invitee-authored fields
// wrapped. Server-controlled fields (identity, status, computed times)
// must never be tagged.
func TagEvent(e Event) Event {
	e.Title = TagUntrusted("title", e.Title)
	e.Description = TagUntrusted("description", e.Description)
	e.Location = TagUntrusted("location", e.Location)
	return e
}

// TagEvents applies TagEvent to every event of a read result.
func TagEvents(events []Event) []Event {
	tagged := make([]Event, len(events))
	for i, e := range events {
		tagged[i] = TagEvent(e)
	}
	return tagged
}
