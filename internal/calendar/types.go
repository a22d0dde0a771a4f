package calendar

import (
	"time"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/timeutil"
)

// DefaultEventDuration is the named fallback applied when a remote event
// carries neither a duration nor an explicit end. Treating an absent
// duration as zero everywhere else is deliberate; only this policy turns
// it into a usable block.
const DefaultEventDuration = time.Hour

// ParseWireDuration parses an ISO-8601 duration coming off the wire,
// classifying a malformed value as a ParseFailure.
func ParseWireDuration(s string) (time.Duration, error) {
	d, err := timeutil.ParseDuration(s)
	if err != nil {
		return 0, WrapError(ParseFailure, "duration", "invalid ISO-8601 duration", err)
	}
	return d, nil
}

// Status is an event's lifecycle state as reported by the server.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusTentative Status = "tentative"
	StatusCancelled Status = "cancelled"
)

// FreeBusyStatus classifies whether an event blocks time for availability
// purposes.
type FreeBusyStatus string

const (
	FreeBusyBusy      FreeBusyStatus = "busy"
	FreeBusyFree      FreeBusyStatus = "free"
	FreeBusyTentative FreeBusyStatus = "tentative"
)

// CalendarRef identifies one calendar the account can see. Records are
// immutable once fetched; the backends refresh them on a TTL policy and
// invalidate after any successful write.
type CalendarRef struct {
	ID       string
	Name     string
	Writable bool
}

// Event is the agent-facing event shape. Start is a local wall-clock
// datetime with no offset; TimeZone names the IANA zone that makes it an
// instant. Duration is an ISO-8601 string and is always positive.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       string
	TimeZone    string
	Duration    string
	CalendarIDs []string
	Status      Status
	FreeBusy    FreeBusyStatus
	AllDay      bool
}

// StartInstant resolves the event's local start to an absolute instant.
func (e Event) StartInstant() (time.Time, error) {
	tz := e.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return timeutil.ToInstant(e.Start, tz)
}

// EndInstant resolves start + duration. An absent duration falls back to
// DefaultEventDuration; a malformed one is a parse failure.
func (e Event) EndInstant() (time.Time, error) {
	start, err := e.StartInstant()
	if err != nil {
		return time.Time{}, err
	}
	if e.Duration == "" {
		return start.Add(DefaultEventDuration), nil
	}
	d, err := timeutil.ParseDuration(e.Duration)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(d), nil
}

// Draft is a client-side event constructed immediately before a create
// call. Start and End are absolute instants; TimeZone, when set, is the
// zone the event should display in.
type Draft struct {
	CalendarID  string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Validate enforces the end-after-start invariant. Violations are a
// validation error, never a silent correction, and must be caught before
// any network write.
func (d Draft) Validate() error {
	if d.Title == "" {
		return Errorf(ValidationError, "draft", "title is required")
	}
	if !d.End.After(d.Start) {
		return Errorf(ValidationError, "draft", "event end %s must be after start %s",
			d.End.Format(time.RFC3339), d.Start.Format(time.RFC3339))
	}
	return nil
}

// Patch carries the fields of an update; nil means "leave unchanged".
type Patch struct {
	Title       *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
	TimeZone    *string
}

// IsEmpty reports whether the patch changes nothing. An empty patch must
// not issue a write.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.Start == nil && p.End == nil && p.TimeZone == nil
}

// Fields lists the names of the fields the patch sets, for reporting which
// fields an update touched.
func (p Patch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Location != nil {
		fields = append(fields, "location")
	}
	if p.Start != nil {
		fields = append(fields, "start")
	}
	if p.End != nil {
		fields = append(fields, "end")
	}
	if p.TimeZone != nil {
		fields = append(fields, "timeZone")
	}
	return fields
}
