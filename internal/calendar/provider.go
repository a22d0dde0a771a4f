package calendar

import (
	"context"
	"time"
)

// Provider is the capability contract shared by the JMAP and CalDAV
// backends. Exactly one implementation is selected at startup by
// configuration; they are never mixed at runtime.
//
// QueryEvents with an empty calendarID spans every calendar the account
// can see, which the free-slot computation relies on. Both failure
// channels of a backend (batch-level faults and per-object rejections)
// surface as *Error values with the appropriate Kind.
type Provider interface {
	// ListCalendars returns the calendars visible to the account.
	ListCalendars(ctx context.Context) ([]CalendarRef, error)

	// QueryEvents returns events overlapping [after, before). Events that
	// fail to parse are skipped, not fatal.
	QueryEvents(ctx context.Context, calendarID string, after, before time.Time) ([]Event, error)

	// CreateEvent writes a validated draft and returns the stored event.
	CreateEvent(ctx context.Context, draft Draft) (*Event, error)

	// UpdateEvent applies a partial patch. An empty patch returns the
	// unchanged event without issuing a write.
	UpdateEvent(ctx context.Context, eventID string, patch Patch) (*Event, error)

	// DeleteEvent removes the event.
	DeleteEvent(ctx context.Context, eventID string) error

	// Backend names the protocol variant, for logging and metrics.
	Backend() string
}
