package caldav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/ics"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		Endpoint: srv.URL + "/dav/",
		Username: "user@example.com",
		Password: "app-password",
	})
	require.NoError(t, err)
	return client
}

func testObject() *ics.Object {
	return &ics.Object{
		UID:     "uid-1",
		Summary: "Sync",
		Status:  calendar.StatusConfirmed,
		Start:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		HasEnd:  true,
	}
}

func TestPutObjectConflict(t *testing.T) {
	var gotIfMatch string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfMatch = r.Header.Get("If-Match")
		w.WriteHeader(http.StatusPreconditionFailed)
	}))

	_, err := client.putObject(context.Background(), "caldav.update_event",
		"/dav/calendars/work/uid-1.ics", testObject(), writeConditions{ifMatch: `"etag-1"`})

	assert.Equal(t, `"etag-1"`, gotIfMatch)
	assert.True(t, calendar.IsKind(err, calendar.ConcurrencyConflict),
		"412 must surface as ConcurrencyConflict, got %v", err)
}

func TestPutObjectCreateAssertsAbsence(t *testing.T) {
	var gotIfNoneMatch, gotContentType string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag-new"`)
		w.WriteHeader(http.StatusCreated)
	}))

	etag, err := client.putObject(context.Background(), "caldav.create_event",
		"/dav/calendars/work/uid-1.ics", testObject(), writeConditions{ifNoneMatch: true})

	require.NoError(t, err)
	assert.Equal(t, "*", gotIfNoneMatch)
	assert.Equal(t, "text/calendar; charset=utf-8", gotContentType)
	assert.Equal(t, `"etag-new"`, etag)
}

func TestPutObjectSendsBasicAuth(t *testing.T) {
	var user, pass string
	var ok bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := client.putObject(context.Background(), "caldav.create_event",
		"/dav/calendars/work/uid-1.ics", testObject(), writeConditions{ifNoneMatch: true})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user@example.com", user)
	assert.Equal(t, "app-password", pass)
}

func TestDeleteObjectConflict(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))

	err := client.deleteObject(context.Background(), "caldav.delete_event",
		"/dav/calendars/work/uid-1.ics", `"etag-1"`)
	assert.True(t, calendar.IsKind(err, calendar.ConcurrencyConflict))
}

func TestDeleteObjectNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.deleteObject(context.Background(), "caldav.delete_event",
		"/dav/calendars/work/gone.ics", `"etag-1"`)
	assert.True(t, calendar.IsKind(err, calendar.ObjectRejected))
}

func TestApplyPatchStartOnlyPreservesLength(t *testing.T) {
	obj := testObject()
	start := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	err := applyPatch(obj, calendar.Patch{Start: &start})
	require.NoError(t, err)

	assert.Equal(t, start, obj.Start)
	assert.Equal(t, start.Add(time.Hour), obj.End, "the event length must be preserved")
}

func TestApplyPatchEndOnly(t *testing.T) {
	obj := testObject()
	end := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	err := applyPatch(obj, calendar.Patch{End: &end})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), obj.Start)
	assert.Equal(t, end, obj.End)
}

func TestApplyPatchEndBeforeStart(t *testing.T) {
	obj := testObject()
	end := obj.Start.Add(-time.Minute)
	err := applyPatch(obj, calendar.Patch{End: &end})
	assert.True(t, calendar.IsKind(err, calendar.ValidationError))
}

func TestApplyPatchTextFields(t *testing.T) {
	obj := testObject()
	title, location := "Renamed", ""
	err := applyPatch(obj, calendar.Patch{Title: &title, Location: &location})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", obj.Summary)
	assert.Empty(t, obj.Location)
	// Untouched time fields stay put.
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), obj.Start)
}

func TestCalendarFor(t *testing.T) {
	assert.Equal(t, "/dav/calendars/work/", calendarFor("/dav/calendars/work/uid-1.ics"))
}

func TestToEventRendersUTC(t *testing.T) {
	obj := testObject()
	event := toEvent(obj, "/dav/calendars/work/uid-1.ics", "/dav/calendars/work/")

	assert.Equal(t, "/dav/calendars/work/uid-1.ics", event.ID)
	assert.Equal(t, "2026-05-01T09:00:00", event.Start)
	assert.Equal(t, "Etc/UTC", event.TimeZone)
	assert.Equal(t, "PT1H", event.Duration)
	assert.Equal(t, []string{"/dav/calendars/work/"}, event.CalendarIDs)
}

func TestToEventZeroLengthLeavesDurationEmpty(t *testing.T) {
	obj := testObject()
	obj.End = obj.Start
	event := toEvent(obj, "/x.ics", "/")
	assert.Empty(t, event.Duration, "the default-duration policy applies downstream")
}
