package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-webdav/caldav"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/ics"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/logging"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/timeutil"
)

// DefaultEndpoint is Fastmail's CalDAV root.
const DefaultEndpoint = "https://caldav.fastmail.com/dav/"

// DefaultCacheTTL bounds how long discovered calendars are reused before
// the principal walk is repeated.
const DefaultCacheTTL = 60 * time.Second

// basicAuthTransport adds Basic Auth and a User-Agent to every request,
// including the raw conditional writes that bypass the webdav client.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "fastmail-claude-calendar-plugin/1.0")
	return t.transport.RoundTrip(req)
}

// Options configures a Client.
type Options struct {
	// Endpoint is the CalDAV root; DefaultEndpoint if empty.
	Endpoint string
	// Username is the account address.
	Username string
	// Password is an app password, not the account password.
	Password string
	// CacheTTL overrides DefaultCacheTTL when positive.
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Client is the text-protocol backend. Calendar identifiers and event
// identifiers are server paths relative to the endpoint host.
type Client struct {
	dav        *caldav.Client
	httpClient *http.Client
	endpoint   *url.URL
	logger     *slog.Logger
	cacheTTL   time.Duration

	mu        sync.Mutex
	calendars []caldav.Calendar
	fetchedAt time.Time
}

var _ calendar.Provider = (*Client)(nil)

// NewClient creates a CalDAV client. No network traffic happens until the
// first operation.
func NewClient(opts Options) (*Client, error) {
	if opts.Username == "" || opts.Password == "" {
		return nil, fmt.Errorf("caldav: username and app password are required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("caldav: invalid endpoint %q: %w", opts.Endpoint, err)
	}

	httpClient := &http.Client{Transport: &basicAuthTransport{
		username:  opts.Username,
		password:  opts.Password,
		transport: http.DefaultTransport,
	}}
	dav, err := caldav.NewClient(httpClient, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("caldav: creating client: %w", err)
	}

	return &Client{
		dav:        dav,
		httpClient: httpClient,
		endpoint:   endpoint,
		logger:     logging.WithBackend(opts.Logger, "caldav"),
		cacheTTL:   opts.CacheTTL,
	}, nil
}

// Backend implements calendar.Provider.
func (c *Client) Backend() string { return "caldav" }

// discoverCalendars walks principal, home set, and calendar collections,
// reusing the previous result within the TTL window.
func (c *Client) discoverCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	const op = "caldav.discover"
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calendars != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		return c.calendars, nil
	}

	principal, err := c.dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, calendar.WrapError(calendar.TransportFailure, op, "finding current user principal", err)
	}
	homeSet, err := c.dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, calendar.WrapError(calendar.TransportFailure, op, "finding calendar home set", err)
	}
	calendars, err := c.dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, calendar.WrapError(calendar.TransportFailure, op, "listing calendar collections", err)
	}

	c.calendars = calendars
	c.fetchedAt = time.Now()
	c.logger.Debug("calendar discovery complete", "count", len(calendars))
	return calendars, nil
}

// invalidateCalendars drops the discovery cache after a successful write.
func (c *Client) invalidateCalendars() {
	c.mu.Lock()
	c.calendars = nil
	c.mu.Unlock()
}

// ListCalendars implements calendar.Provider. CalDAV exposes no per-user
// rights on collections, so every discovered calendar reports writable.
func (c *Client) ListCalendars(ctx context.Context) ([]calendar.CalendarRef, error) {
	calendars, err := c.discoverCalendars(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]calendar.CalendarRef, 0, len(calendars))
	for _, cal := range calendars {
		name := cal.Name
		if name == "" {
			name = cal.Path
		}
		refs = append(refs, calendar.CalendarRef{ID: cal.Path, Name: name, Writable: true})
	}
	return refs, nil
}

// QueryEvents implements calendar.Provider. Each calendar in scope gets a
// time-range REPORT; objects that fail to convert are skipped so one bad
// event cannot hide the rest.
func (c *Client) QueryEvents(ctx context.Context, calendarID string, after, before time.Time) ([]calendar.Event, error) {
	const op = "caldav.query_events"
	calendars, err := c.discoverCalendars(ctx)
	if err != nil {
		return nil, err
	}

	var paths []string
	if calendarID != "" {
		paths = []string{calendarID}
	} else {
		for _, cal := range calendars {
			paths = append(paths, cal.Path)
		}
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			Comps:    []caldav.CalendarCompRequest{{Name: "VEVENT", AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: after.UTC(),
				End:   before.UTC(),
			}},
		},
	}

	var events []calendar.Event
	for _, calPath := range paths {
		objects, err := c.dav.QueryCalendar(ctx, calPath, query)
		if err != nil {
			return nil, calendar.WrapError(calendar.TransportFailure, op,
				fmt.Sprintf("querying calendar %s", calPath), err)
		}
		for _, object := range objects {
			obj, err := ics.FromCalendar(object.Data)
			if err != nil {
				c.logger.Warn("skipping unparsable object",
					"path", object.Path, logging.Err(err))
				continue
			}
			events = append(events, toEvent(obj, object.Path, calPath))
		}
	}
	return events, nil
}

// calendarFor resolves an event path back to its parent calendar path.
func calendarFor(eventPath string) string {
	idx := strings.LastIndex(eventPath, "/")
	if idx < 0 {
		return eventPath
	}
	return eventPath[:idx+1]
}

// toEvent converts a decoded object to the agent-facing shape. Instants
// come off the wire already resolved, so the local rendering is pinned to
// UTC; zone-local display happens at the formatting layer.
func toEvent(obj *ics.Object, eventPath, calendarPath string) calendar.Event {
	event := calendar.Event{
		ID:          eventPath,
		Title:       obj.Summary,
		Description: obj.Description,
		Location:    obj.Location,
		Start:       obj.Start.UTC().Format(timeutil.LocalLayout),
		TimeZone:    "Etc/UTC",
		CalendarIDs: []string{calendarPath},
		Status:      obj.Status,
		FreeBusy:    obj.FreeBusy,
		AllDay:      obj.AllDay,
	}
	if obj.End.After(obj.Start) {
		event.Duration = timeutil.FormatDuration(obj.End.Sub(obj.Start))
	}
	return event
}
